package useragent

import (
	"strings"
	"testing"
)

func TestRandomGenerator_ProducesBrowserStrings(t *testing.T) {
	g := NewRandomGenerator(42)
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		ua := g.Random()
		if !strings.HasPrefix(ua, "Mozilla/5.0 (") {
			t.Fatalf("Unexpected user agent: %q", ua)
		}
		seen[ua] = struct{}{}
	}
	if len(seen) < 10 {
		t.Errorf("Expected a variety of user agents, but got only %d distinct values", len(seen))
	}
}

func TestRandomGenerator_SameSeedSameSequence(t *testing.T) {
	a, b := NewRandomGenerator(7), NewRandomGenerator(7)
	for i := 0; i < 20; i++ {
		if ua1, ua2 := a.Random(), b.Random(); ua1 != ua2 {
			t.Fatalf("Expected identical sequences, diverged at %d: %q vs %q", i, ua1, ua2)
		}
	}
}

func TestStatic(t *testing.T) {
	if got := Static("test-agent").Random(); got != "test-agent" {
		t.Errorf("Expected 'test-agent', but got '%s'", got)
	}
}
