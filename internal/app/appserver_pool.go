package app

import (
	"context"

	"liuproxy_keepalive/internal/shared/logger"
	manager "liuproxy_keepalive/proxypool"
)

// preparePool 在会话启动前填充代理池：可选的远程抓取、加载、可选的探测。
// 任何一步之后池为空都直接失败，不重试。
func (s *AppServer) preparePool(ctx context.Context, fetch bool) error {
	l := logger.WithComponent("App/Pool")

	if fetch {
		if s.source == nil {
			l.Warn().Msg("No proxy source configured; using the stored pool.")
		} else if err := s.pool.Refresh(s.source); err != nil {
			return err
		}
	}

	if err := s.pool.Load(); err != nil {
		return err
	}
	if s.validator != nil {
		s.validatePool(ctx)
	}
	if s.pool.Len() == 0 {
		return manager.ErrEmptyProxyList
	}

	for _, p := range s.pool.List() {
		l.Debug().Str("proxy", p.Raw).Msg("Proxy read from pool.")
	}
	return nil
}

func (s *AppServer) validatePool(ctx context.Context) {
	l := logger.WithComponent("App/Pool")
	for _, r := range s.validator.Validate(ctx, s.pool.List()) {
		if r.Alive() {
			continue
		}
		l.Info().Err(r.Err).Str("proxy", r.Proxy.Raw).Msg("Dropping unreachable proxy.")
		if err := s.pool.Remove(r.Proxy); err != nil {
			l.Warn().Err(err).Str("proxy", r.Proxy.Raw).Msg("Failed to drop proxy.")
		}
	}
}
