package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"liuproxy_keepalive/internal/shared/types"
	manager "liuproxy_keepalive/proxypool"
)

func testConfig(t *testing.T, sourceURL string) *types.Config {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.ProxyPoolConf.File = filepath.Join(t.TempDir(), "auto_proxies.txt")
	cfg.ProxyPoolConf.SourceURL = sourceURL
	return cfg
}

func TestAppServer_PreparePoolFetchesSource(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("socks5://10.0.0.1:1080\n10.0.0.2:8080\n\n"))
	}))
	defer src.Close()

	s, err := New(testConfig(t, src.URL), "operator-1")
	if err != nil {
		t.Fatalf("New() returned an error: %v", err)
	}
	if err := s.preparePool(context.Background(), true); err != nil {
		t.Fatalf("preparePool() returned an error: %v", err)
	}

	got := s.pool.List()
	if len(got) != 2 {
		t.Fatalf("Expected 2 proxies, but got %d", len(got))
	}
	if got[1].Raw != "http://10.0.0.2:8080" {
		t.Errorf("Expected the bare entry to get the default scheme, but got %s", got[1].Raw)
	}
}

func TestAppServer_EmptySourceFailsFast(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer src.Close()

	s, err := New(testConfig(t, src.URL), "operator-1")
	if err != nil {
		t.Fatalf("New() returned an error: %v", err)
	}
	if err := s.Run(context.Background(), true); !errors.Is(err, manager.ErrEmptyProxyList) {
		t.Errorf("Expected ErrEmptyProxyList, but got %v", err)
	}
}

func TestAppServer_NoFetchUsesStoredPool(t *testing.T) {
	s, err := New(testConfig(t, ""), "operator-1")
	if err != nil {
		t.Fatalf("New() returned an error: %v", err)
	}
	if err := s.preparePool(context.Background(), true); !errors.Is(err, manager.ErrEmptyProxyList) {
		t.Errorf("Expected ErrEmptyProxyList for an empty stored pool, but got %v", err)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.ProxyPoolConf.Storage = "cassandra"
	if _, err := New(cfg, "operator-1"); err == nil {
		t.Error("Expected an error for an unknown storage, but got nil")
	}

	cfg = testConfig(t, "")
	cfg.SessionConf.TLSFingerprint = "netscape"
	if _, err := New(cfg, "operator-1"); err == nil {
		t.Error("Expected an error for an unknown fingerprint, but got nil")
	}
}

func TestProbeTarget(t *testing.T) {
	tests := []struct {
		endpoints []string
		want      string
	}{
		{[]string{"wss://proxy2.wynd.network:4444/"}, "proxy2.wynd.network:4444"},
		{[]string{"wss://remote.example/"}, "remote.example:443"},
		{[]string{"ws://remote.example/"}, "remote.example:80"},
	}
	for _, tt := range tests {
		got, err := probeTarget(tt.endpoints)
		if err != nil {
			t.Fatalf("probeTarget(%v) returned an error: %v", tt.endpoints, err)
		}
		if got != tt.want {
			t.Errorf("Expected %s, but got %s", tt.want, got)
		}
	}
	if _, err := probeTarget(nil); err == nil {
		t.Error("Expected an error for no endpoints, but got nil")
	}
}
