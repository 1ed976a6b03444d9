package session

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"liuproxy_keepalive/internal/shared/logger"
	manager "liuproxy_keepalive/proxypool"
)

// Supervisor 为代理池中的每个代理启动一个独立的 Engine。
type Supervisor struct {
	userID string
	cfg    Config
	deps   Deps
}

func NewSupervisor(userID string, cfg Config, deps Deps) *Supervisor {
	return &Supervisor{userID: userID, cfg: cfg, deps: deps}
}

// Run 读取一次代理池快照并为每个条目运行一个引擎。
// 单个引擎的失败不会影响其他引擎，也不会让 Run 返回；
// Run 只在 ctx 结束且所有引擎都已退出后返回 ctx.Err()。
func (s *Supervisor) Run(ctx context.Context) error {
	l := logger.WithComponent("Session/Supervisor")

	if err := s.cfg.Validate(); err != nil {
		return err
	}
	proxies := s.deps.Pool.List()
	if len(proxies) == 0 {
		return manager.ErrEmptyProxyList
	}
	l.Info().Int("count", len(proxies)).Msg("Starting sessions.")

	seed := time.Now().UnixNano()
	g, gctx := errgroup.WithContext(ctx)
	for i, ep := range proxies {
		ep := ep
		cfg := s.cfg
		cfg.Rand = rand.New(rand.NewSource(seed + int64(i)))
		engine := NewEngine(ep, s.userID, cfg, s.deps)

		g.Go(func() error {
			if err := engine.Run(gctx); err != nil && gctx.Err() == nil {
				l.Warn().Err(err).Str("proxy", ep.Raw).Msg("Session terminated.")
			}
			return nil
		})
	}

	_ = g.Wait()
	if ctx.Err() == nil {
		l.Warn().Msg("All sessions have terminated; waiting for shutdown.")
		<-ctx.Done()
	}
	return ctx.Err()
}
