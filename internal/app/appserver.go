package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"liuproxy_keepalive/internal/service/web"
	"liuproxy_keepalive/internal/session"
	"liuproxy_keepalive/internal/shared/logger"
	"liuproxy_keepalive/internal/shared/types"
	"liuproxy_keepalive/internal/shared/useragent"
	"liuproxy_keepalive/internal/tunnel/channel"
	"liuproxy_keepalive/internal/tunnel/transport"
	manager "liuproxy_keepalive/proxypool"
	"liuproxy_keepalive/proxypool/scraper"
	"liuproxy_keepalive/proxypool/storage"
	"liuproxy_keepalive/proxypool/validator"
)

// AppServer is the application's main struct.
type AppServer struct {
	cfg    *types.Config
	userID string

	pool      *manager.Manager
	source    scraper.Scraper
	validator *validator.Validator

	registry   *session.Registry
	supervisor *session.Supervisor

	hub *web.Hub
	web *web.Server
}

// New 根据配置组装所有组件，不做任何网络 I/O（redis 存储的连通性检查除外）。
func New(cfg *types.Config, userID string) (*AppServer, error) {
	st, err := storage.New(cfg.ProxyPoolConf)
	if err != nil {
		return nil, err
	}
	source, err := scraper.New(cfg.ProxyPoolConf)
	if err != nil {
		return nil, err
	}

	handshakeTimeout := time.Duration(cfg.SessionConf.HandshakeTimeoutMs) * time.Millisecond
	resolver := transport.NewResolver(transport.Config{
		DialTimeout:        time.Duration(cfg.ProxyPoolConf.DialTimeoutSec) * time.Second,
		NegotiationTimeout: handshakeTimeout,
	})
	dialer, err := channel.NewWSDialer(channel.Config{
		HandshakeTimeout: handshakeTimeout,
		Fingerprint:      cfg.SessionConf.TLSFingerprint,
		AllowInsecure:    cfg.SessionConf.AllowInsecure,
	})
	if err != nil {
		return nil, err
	}

	s := &AppServer{
		cfg:      cfg,
		userID:   userID,
		pool:     manager.NewManager(st, cfg.ProxyPoolConf.DefaultScheme),
		source:   source,
		registry: session.NewRegistry(),
		hub:      web.NewHub(),
	}

	if cfg.ProxyPoolConf.Validate {
		target, err := probeTarget(cfg.SessionConf.Endpoints)
		if err != nil {
			return nil, err
		}
		s.validator = validator.NewValidator(resolver, target, handshakeTimeout, cfg.ProxyPoolConf.ValidateConcurrency)
	}

	s.supervisor = session.NewSupervisor(userID, session.ConfigFromConf(cfg.SessionConf), session.Deps{
		Pool:      s.pool,
		Resolver:  resolver,
		Dialer:    dialer,
		UserAgent: useragent.NewRandomGenerator(time.Now().UnixNano()),
		Observer:  s.registry,
	})
	s.web = web.NewServer(cfg.LocalConf, web.NewHandler(s.registry, s.pool), s.hub)
	return s, nil
}

// Run 准备代理池后启动所有会话和状态页，直到 ctx 结束。
// fetch 为 true 时先从 source_url 刷新代理池。
func (s *AppServer) Run(ctx context.Context, fetch bool) error {
	l := logger.WithComponent("App")
	l.Info().Str("user_id", s.userID).Msg("Starting keep-alive sessions.")

	if err := s.preparePool(ctx, fetch); err != nil {
		return err
	}

	updates, unsubscribe := s.registry.Subscribe()
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.hub.Pump(gctx, updates)
		return nil
	})
	g.Go(func() error { return s.web.Run(gctx) })
	g.Go(func() error { return s.supervisor.Run(gctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		l.Info().Msg("Shutdown complete.")
		return nil
	}
	return err
}

// probeTarget 返回第一个远端地址的 host:port，作为代理探测目标。
func probeTarget(endpoints []string) (string, error) {
	if len(endpoints) == 0 {
		return "", errors.New("no remote endpoints configured")
	}
	u, err := url.Parse(endpoints[0])
	if err != nil {
		return "", fmt.Errorf("invalid remote endpoint %q: %w", endpoints[0], err)
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "ws" {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
