package identity

import (
	"testing"

	"github.com/google/uuid"

	"liuproxy_keepalive/proxypool/model"
)

func TestDerive_Deterministic(t *testing.T) {
	ep := model.ParseEndpoint("socks5://1.2.3.4:1080")
	first := Derive(ep)
	second := Derive(model.ParseEndpoint("socks5://1.2.3.4:1080"))
	if first != second {
		t.Errorf("Expected identical identities, but got '%s' and '%s'", first, second)
	}

	id, err := uuid.Parse(first)
	if err != nil {
		t.Fatalf("identity is not a UUID: %v", err)
	}
	if id.Version() != 5 {
		t.Errorf("Expected a version 5 UUID, but got version %d", id.Version())
	}
}

func TestDerive_MatchesNamespaceDerivation(t *testing.T) {
	raw := "http://5.6.7.8:3128"
	want := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(raw)).String()
	if got := Derive(model.ParseEndpoint(raw)); got != want {
		t.Errorf("Expected '%s', but got '%s'", want, got)
	}
}

func TestDerive_DistinctEndpoints(t *testing.T) {
	a := Derive(model.ParseEndpoint("socks5://1.2.3.4:1080"))
	b := Derive(model.ParseEndpoint("socks5://1.2.3.4:1081"))
	if a == b {
		t.Errorf("Expected different endpoints to yield different identities, both got '%s'", a)
	}
}

func TestDerive_AnyString(t *testing.T) {
	if DeriveString("") == "" || DeriveString("not a proxy at all") == "" {
		t.Errorf("Expected an identity for arbitrary input")
	}
}
