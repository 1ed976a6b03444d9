package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"liuproxy_keepalive/internal/identity"
	"liuproxy_keepalive/internal/metrics"
	"liuproxy_keepalive/internal/shared/logger"
	"liuproxy_keepalive/internal/shared/protocol"
	"liuproxy_keepalive/internal/shared/types"
	"liuproxy_keepalive/internal/shared/useragent"
	"liuproxy_keepalive/internal/tunnel/channel"
	"liuproxy_keepalive/internal/tunnel/transport"
	manager "liuproxy_keepalive/proxypool"
	"liuproxy_keepalive/proxypool/model"
)

var (
	// ErrTransportOpen 表示通道无法建立（代理不可达、握手失败等）。
	ErrTransportOpen = errors.New("failed to open channel")
	// ErrChannel 表示已建立的通道上发生了传输层错误。
	ErrChannel = errors.New("channel error")
)

// Deps 是引擎的外部协作者。Observer 可以为空。
type Deps struct {
	Pool      manager.Pool
	Resolver  transport.Resolver
	Dialer    channel.Dialer
	UserAgent useragent.Generator
	Observer  Observer
}

// Engine 为一个代理维持与远端服务的会话：断开后重连，
// 遇到致命错误时将代理从池中移除并永久退出。
type Engine struct {
	ep        model.ProxyEndpoint
	userID    string
	browserID string

	cfg  Config
	deps Deps
	rng  *rand.Rand
	log  zerolog.Logger
}

// NewEngine 创建引擎，不做任何 I/O。
func NewEngine(ep model.ProxyEndpoint, userID string, cfg Config, deps Deps) *Engine {
	cfg = cfg.withDefaults()
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.UserAgent == nil {
		deps.UserAgent = useragent.NewRandomGenerator(time.Now().UnixNano())
	}
	return &Engine{
		ep:        ep,
		userID:    userID,
		browserID: identity.Derive(ep),
		cfg:       cfg,
		deps:      deps,
		rng:       cfg.Rand,
		log:       logger.WithComponent("Session/Engine").With().Str("proxy", ep.Raw).Logger(),
	}
}

// BrowserID 返回该代理派生出的会话标识。
func (e *Engine) BrowserID() string { return e.browserID }

// Run 循环执行 IDLE -> CONNECTING -> OPEN 直到代理被移除或 ctx 取消。
// 被移除时返回导致移除的错误，取消时返回 ctx.Err()。
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().Str("browser_id", e.browserID).Msg("Device ID derived.")
	e.deps.Observer.SessionStarted(e.ep, e.browserID)

	for {
		e.setState(types.SessionIdle, "", nil)
		if err := e.pause(ctx); err != nil {
			e.setState(types.SessionClosed, "", nil)
			return err
		}

		uri, err := e.attempt(ctx)
		if ctx.Err() != nil {
			e.setState(types.SessionClosed, uri, nil)
			return ctx.Err()
		}
		if err != nil {
			e.setState(types.SessionFailed, uri, err)
			e.log.Error().Err(err).Str("uri", uri).Msg("Session failed, evicting proxy.")
			e.evict()
			return err
		}

		metrics.DisconnectsTotal.Inc()
		e.setState(types.SessionClosed, uri, nil)
		e.log.Info().Str("uri", uri).Msg("WebSocket closed, reconnecting.")
	}
}

// pause 是连接前的随机延迟，避免所有会话同时重连。
func (e *Engine) pause(ctx context.Context) error {
	if e.cfg.MaxJitter <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(e.rng.Int63n(int64(e.cfg.MaxJitter) + 1)))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// attempt 完成一次连接尝试。返回 nil 表示通道被干净地关闭。
func (e *Engine) attempt(ctx context.Context) (string, error) {
	e.setState(types.SessionConnecting, "", nil)

	tr, err := e.deps.Resolver.Resolve(e.ep)
	if err != nil {
		return "", err
	}
	tr = transport.WithCounters(tr, metrics.ProxyBytesTotal.WithLabelValues("up"), metrics.ProxyBytesTotal.WithLabelValues("down"))

	uri := e.cfg.Endpoints[e.rng.Intn(len(e.cfg.Endpoints))]
	ua := e.deps.UserAgent.Random()
	header := http.Header{}
	header.Set("User-Agent", ua)

	metrics.ConnectAttemptTotal.WithLabelValues(e.ep.Scheme).Inc()
	e.log.Debug().Str("uri", uri).Str("user_agent", ua).Msg("Opening channel.")

	ch, err := e.deps.Dialer.Dial(ctx, uri, header, tr)
	if err != nil {
		return uri, fmt.Errorf("%w: %v", ErrTransportOpen, err)
	}
	return uri, e.serve(ctx, ch, uri, ua)
}

// serve 在一个已建立的通道上运行保活与消息处理，直到通道结束。
func (e *Engine) serve(ctx context.Context, ch channel.Channel, uri, ua string) error {
	e.log.Info().Str("uri", uri).Msg("Connected to WebSocket.")
	e.setState(types.SessionOpen, uri, nil)

	metrics.SessionsOpen.Inc()
	opened := e.cfg.Now()
	defer func() {
		metrics.SessionsOpen.Dec()
		metrics.SessionDuration.Observe(e.cfg.Now().Sub(opened).Seconds())
	}()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	// 连接结束（或外部取消）时关闭通道，使阻塞的 ReadMessage 返回
	context.AfterFunc(connCtx, func() { _ = ch.Close() })

	w := &frameWriter{ch: ch}
	pingErr := make(chan error, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := e.keepAlive(connCtx, w); err != nil {
			pingErr <- err
			cancel()
		}
	}()

	var failure error
	for {
		_, frame, err := ch.ReadMessage()
		if err != nil {
			failure = err
			break
		}
		if err := e.handle(w, frame, ua); err != nil {
			failure = err
			break
		}
	}
	cancel()
	wg.Wait()

	// 写错误优先于随后由关闭引起的读错误
	select {
	case err := <-pingErr:
		failure = err
	default:
	}

	if ctx.Err() != nil || channel.IsClosed(failure) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrChannel, failure)
}

// keepAlive 每个周期发送一个 PING，直到 ctx 结束。定时器在退出时停止。
func (e *Engine) keepAlive(ctx context.Context, w *frameWriter) error {
	ticker := e.cfg.NewTicker(e.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			ping := protocol.NewPing(e.cfg.NewID(), e.cfg.PingVersion)
			if err := w.send(ping); err != nil {
				// 连接已在结束（例如对端关闭后通道被关闭），不是写错误
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			metrics.PingsSentTotal.Inc()
			e.deps.Observer.PingSent(e.ep)
			e.log.Debug().Str("id", ping.IDString()).Msg("PING sent.")
		}
	}
}

// handle 按到达顺序处理一个入站帧。只有写失败会返回错误。
func (e *Engine) handle(w *frameWriter, frame []byte, ua string) error {
	msg, err := protocol.Decode(frame)
	if err != nil {
		metrics.MalformedFrameTotal.Inc()
		e.log.Warn().Err(err).Msg("Discarding malformed frame.")
		return nil
	}
	e.log.Debug().Str("action", msg.Action).Str("id", msg.IDString()).Msg("Message received.")

	switch msg.Action {
	case protocol.ActionAuth:
		reply := protocol.NewAuthReply(msg.ID, protocol.AuthResult{
			BrowserID:  e.browserID,
			UserID:     e.userID,
			UserAgent:  ua,
			Timestamp:  e.cfg.Now().Unix(),
			DeviceType: e.cfg.DeviceType,
			Version:    e.cfg.ClientVersion,
		})
		if err := w.send(reply); err != nil {
			return err
		}
		e.replied(protocol.ActionAuth, msg.IDString())
		e.setState(types.SessionAuthenticated, "", nil)
	case protocol.ActionPong:
		if err := w.send(protocol.NewPongReply(msg.ID)); err != nil {
			return err
		}
		e.replied(protocol.ActionPong, msg.IDString())
	}
	return nil
}

func (e *Engine) replied(action, id string) {
	metrics.RepliesSentTotal.WithLabelValues(action).Inc()
	e.deps.Observer.ReplySent(e.ep, action)
	e.log.Debug().Str("origin_action", action).Str("id", id).Msg("Reply sent.")
}

// evict 移除失败只记录日志，不影响引擎退出。
func (e *Engine) evict() {
	if err := e.deps.Pool.Remove(e.ep); err != nil {
		if errors.Is(err, manager.ErrNotInPool) {
			e.log.Warn().Msg("Proxy was already gone from the pool.")
			return
		}
		e.log.Error().Err(err).Msg("Failed to remove proxy from the pool.")
		return
	}
	metrics.EvictionsTotal.Inc()
	e.log.Warn().Msgf("Proxy '%s' has been removed from the pool.", e.ep.Raw)
}

func (e *Engine) setState(state types.SessionState, uri string, err error) {
	e.deps.Observer.StateChanged(e.ep, state, uri, err)
}

// frameWriter 串行化同一通道上的写入。
type frameWriter struct {
	mu sync.Mutex
	ch channel.Channel
}

func (w *frameWriter) send(v interface{}) error {
	data, err := protocol.Encode(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ch.WriteMessage(channel.TextMessage, data)
}
