package storage

import (
	"reflect"
	"testing"
)

func TestMemoryStorage_Remove(t *testing.T) {
	ms := NewMemoryStorage([]string{"p1", "p2", "p3"})

	if removed, _ := ms.Remove("p2"); !removed {
		t.Fatalf("Expected p2 to be removed")
	}
	if removed, _ := ms.Remove("p4"); removed {
		t.Errorf("Expected removal of unknown entry to be a no-op")
	}

	got, _ := ms.Load()
	if !reflect.DeepEqual(got, []string{"p1", "p3"}) {
		t.Errorf("Expected [p1 p3], but got %v", got)
	}
}

func TestMemoryStorage_LoadReturnsCopy(t *testing.T) {
	ms := NewMemoryStorage([]string{"p1"})
	got, _ := ms.Load()
	got[0] = "mutated"

	again, _ := ms.Load()
	if again[0] != "p1" {
		t.Errorf("Expected stored entry to be unaffected, but got %v", again)
	}
}
