package session

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"liuproxy_keepalive/internal/shared/types"
	"liuproxy_keepalive/internal/shared/useragent"
	"liuproxy_keepalive/internal/tunnel/transport"
	manager "liuproxy_keepalive/proxypool"
	"liuproxy_keepalive/proxypool/model"
	"liuproxy_keepalive/proxypool/storage"
)

func supervisorConfig() Config {
	return Config{
		Endpoints:    []string{"wss://a.example:4444/", "wss://b.example:4650/"},
		PingInterval: time.Hour,
		MaxJitter:    5 * time.Millisecond,
		PingVersion:  "1.0.0",
	}
}

func TestSupervisor_OneEnginePerProxy(t *testing.T) {
	pool, st := newPool(t, "socks5://10.0.0.1:1080", "http://10.0.0.2:8080", "ftp://10.0.0.3:21")
	dialer := newFakeDialer()
	registry := NewRegistry()

	sup := NewSupervisor("operator-1", supervisorConfig(), Deps{
		Pool:      pool,
		Resolver:  transport.NewResolver(transport.Config{DialTimeout: time.Second}),
		Dialer:    dialer,
		UserAgent: useragent.Static("ua"),
		Observer:  registry,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	// 两个可解析的代理各拨号一次；ftp 代理在 CONNECTING 阶段被移除
	var uris []string
	for i := 0; i < 2; i++ {
		uris = append(uris, dialer.waitDial(t).uri)
	}
	for _, uri := range uris {
		if uri != "wss://a.example:4444/" && uri != "wss://b.example:4650/" {
			t.Errorf("Unexpected remote endpoint %s", uri)
		}
	}

	deadline := time.Now().Add(waitTimeout)
	for pool.Len() != 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pool.Len() != 2 {
		t.Fatalf("Expected the ftp proxy to be evicted, but pool has %d entries", pool.Len())
	}

	select {
	case err := <-done:
		t.Fatalf("Expected Run to keep running, but it returned %v", err)
	default:
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, but got %v", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for the supervisor to stop")
	}

	stored, _ := st.Load()
	sort.Strings(stored)
	if len(stored) != 2 || stored[0] != "http://10.0.0.2:8080" || stored[1] != "socks5://10.0.0.1:1080" {
		t.Errorf("Unexpected pool after shutdown: %v", stored)
	}

	snap := registry.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Expected 3 sessions in the registry, but got %d", len(snap))
	}
	for _, s := range snap {
		if s.BrowserID == "" {
			t.Errorf("Expected a browser id for %s", s.Proxy)
		}
		if s.Proxy == "ftp://10.0.0.3:21" && s.State != types.SessionFailed {
			t.Errorf("Expected the ftp session to be FAILED, but got %s", s.State)
		}
	}
}

func TestSupervisor_EmptyPool(t *testing.T) {
	m := manager.NewManager(storage.NewMemoryStorage(nil), "http")
	sup := NewSupervisor("operator-1", supervisorConfig(), Deps{Pool: m})
	if err := sup.Run(context.Background()); !errors.Is(err, manager.ErrEmptyProxyList) {
		t.Errorf("Expected ErrEmptyProxyList, but got %v", err)
	}
}

func TestSupervisor_InvalidConfig(t *testing.T) {
	pool, _ := newPool(t, "socks5://10.0.0.1:1080")
	sup := NewSupervisor("operator-1", Config{PingInterval: time.Second}, Deps{Pool: pool})
	if err := sup.Run(context.Background()); err == nil {
		t.Error("Expected an error for a config without endpoints, but got nil")
	}
}

func TestRegistry_SubscribeAndSnapshot(t *testing.T) {
	r := NewRegistry()
	updates, unsubscribe := r.Subscribe()
	defer unsubscribe()

	ep := model.ParseEndpoint("socks5://10.0.0.1:1080")
	r.SessionStarted(ep, "bid-1")
	r.StateChanged(ep, types.SessionConnecting, "", nil)
	r.StateChanged(ep, types.SessionOpen, "wss://a.example:4444/", nil)
	r.PingSent(ep)
	r.ReplySent(ep, "PONG")
	r.StateChanged(ep, types.SessionFailed, "", errors.New("boom"))

	var last types.SessionStatus
	for i := 0; i < 6; i++ {
		select {
		case last = <-updates:
		case <-time.After(waitTimeout):
			t.Fatalf("timed out waiting for update %d", i)
		}
	}
	if last.State != types.SessionFailed || last.LastError != "boom" {
		t.Errorf("Unexpected last update: %+v", last)
	}

	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Expected 1 session, but got %d", len(snap))
	}
	s := snap[0]
	if s.BrowserID != "bid-1" || s.URI != "wss://a.example:4444/" || s.Connects != 1 || s.Pings != 1 || s.Replies != 1 {
		t.Errorf("Unexpected snapshot: %+v", s)
	}
}

func TestRegistry_UnsubscribeClosesChannel(t *testing.T) {
	r := NewRegistry()
	updates, unsubscribe := r.Subscribe()
	unsubscribe()
	unsubscribe()

	if _, ok := <-updates; ok {
		t.Error("Expected the subscription channel to be closed")
	}
	// 取消订阅后更新不应阻塞或 panic
	r.PingSent(model.ParseEndpoint("http://10.0.0.1:80"))
}
