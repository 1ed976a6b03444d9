package validator

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"liuproxy_keepalive/internal/tunnel/transport"
	"liuproxy_keepalive/proxypool/model"
)

// fakeResolver：地址以 "dead" 开头的代理拨号失败
type fakeResolver struct{}

type fakeTransport struct{ dead bool }

func (t fakeTransport) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if t.dead {
		return nil, errors.New("connection refused")
	}
	c1, c2 := net.Pipe()
	go c2.Close()
	return c1, nil
}

func (fakeResolver) Resolve(ep model.ProxyEndpoint) (transport.Transport, error) {
	if ep.Scheme == "" {
		return nil, transport.ErrUnsupportedScheme
	}
	return fakeTransport{dead: ep.Host == "dead.example"}, nil
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(fakeResolver{}, "remote.example:4444", time.Second, 2)
	proxies := []model.ProxyEndpoint{
		model.ParseEndpoint("socks5://alive.example:1080"),
		model.ParseEndpoint("http://dead.example:8080"),
		model.ParseEndpoint("garbage"),
		model.ParseEndpoint("http://alive.example:3128"),
	}

	results := v.Validate(context.Background(), proxies)
	if len(results) != len(proxies) {
		t.Fatalf("Expected %d results, but got %d", len(proxies), len(results))
	}

	want := []bool{true, false, false, true}
	for i, r := range results {
		if r.Proxy.Raw != proxies[i].Raw {
			t.Errorf("Expected result %d for %s, but got %s", i, proxies[i].Raw, r.Proxy.Raw)
		}
		if r.Alive() != want[i] {
			t.Errorf("Expected alive=%v for %s, but got %v (%v)", want[i], r.Proxy.Raw, r.Alive(), r.Err)
		}
	}
	if !errors.Is(results[2].Err, transport.ErrUnsupportedScheme) {
		t.Errorf("Expected ErrUnsupportedScheme for garbage entry, but got %v", results[2].Err)
	}
}

func TestValidator_Empty(t *testing.T) {
	v := NewValidator(fakeResolver{}, "remote.example:4444", time.Second, 0)
	if results := v.Validate(context.Background(), nil); results != nil {
		t.Errorf("Expected nil results, but got %v", results)
	}
}
