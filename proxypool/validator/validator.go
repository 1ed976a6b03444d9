package validator

import (
	"context"
	"sync"
	"time"

	"liuproxy_keepalive/internal/shared/logger"
	"liuproxy_keepalive/internal/tunnel/transport"
	"liuproxy_keepalive/proxypool/model"
)

// Result 是单个代理的探测结果。
type Result struct {
	Proxy   model.ProxyEndpoint
	Latency time.Duration
	Err     error
}

// Alive reports whether the probe succeeded.
func (r Result) Alive() bool { return r.Err == nil }

// Validator 通过代理向 target 建立一次 TCP 连接来判断代理是否可用。
type Validator struct {
	resolver    transport.Resolver
	target      string
	timeout     time.Duration
	concurrency int
}

func NewValidator(resolver transport.Resolver, target string, timeout time.Duration, concurrency int) *Validator {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Validator{
		resolver:    resolver,
		target:      target,
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// Validate 并发探测所有代理，结果与输入顺序一致。
func (v *Validator) Validate(ctx context.Context, proxies []model.ProxyEndpoint) []Result {
	l := logger.WithComponent("ProxyPool/Validator")
	if len(proxies) == 0 {
		return nil
	}

	l.Info().Int("count", len(proxies)).Int("concurrency", v.concurrency).Msg("Starting validation batch...")

	var wg sync.WaitGroup
	results := make([]Result, len(proxies))
	semaphore := make(chan struct{}, v.concurrency)

	for i, p := range proxies {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, p model.ProxyEndpoint) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[i] = v.validateSingleProxy(ctx, p)
		}(i, p)
	}
	wg.Wait()

	alive := 0
	for _, r := range results {
		if r.Alive() {
			alive++
		}
	}
	l.Info().Int("alive", alive).Int("dead", len(results)-alive).Msg("Validation batch finished.")
	return results
}

func (v *Validator) validateSingleProxy(ctx context.Context, p model.ProxyEndpoint) Result {
	start := time.Now()

	tr, err := v.resolver.Resolve(p)
	if err != nil {
		return Result{Proxy: p, Err: err}
	}

	dialCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	conn, err := tr.DialContext(dialCtx, "tcp", v.target)
	if err != nil {
		return Result{Proxy: p, Err: err}
	}
	conn.Close()
	return Result{Proxy: p, Latency: time.Since(start)}
}
