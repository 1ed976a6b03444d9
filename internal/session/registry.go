package session

import (
	"sync"
	"time"

	"liuproxy_keepalive/internal/shared/types"
	"liuproxy_keepalive/proxypool/model"
)

// Observer 接收引擎的状态变化与流量事件，必须可并发调用。
type Observer interface {
	SessionStarted(ep model.ProxyEndpoint, browserID string)
	StateChanged(ep model.ProxyEndpoint, state types.SessionState, uri string, err error)
	PingSent(ep model.ProxyEndpoint)
	ReplySent(ep model.ProxyEndpoint, action string)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(model.ProxyEndpoint, string)                          {}
func (nopObserver) StateChanged(model.ProxyEndpoint, types.SessionState, string, error) {}
func (nopObserver) PingSent(model.ProxyEndpoint)                                        {}
func (nopObserver) ReplySent(model.ProxyEndpoint, string)                               {}

// Registry 保存每个会话的最新状态，并把变化推送给订阅者（状态页的 hub）。
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*types.SessionStatus
	order    []string
	subs     map[chan types.SessionStatus]struct{}
	now      func() time.Time
}

var _ Observer = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*types.SessionStatus),
		subs:     make(map[chan types.SessionStatus]struct{}),
		now:      time.Now,
	}
}

func (r *Registry) SessionStarted(ep model.ProxyEndpoint, browserID string) {
	r.update(ep, func(s *types.SessionStatus) {
		s.BrowserID = browserID
		s.State = types.SessionIdle
	})
}

func (r *Registry) StateChanged(ep model.ProxyEndpoint, state types.SessionState, uri string, err error) {
	r.update(ep, func(s *types.SessionStatus) {
		s.State = state
		if uri != "" {
			s.URI = uri
		}
		if state == types.SessionConnecting {
			s.Connects++
		}
		if err != nil {
			s.LastError = err.Error()
		}
	})
}

func (r *Registry) PingSent(ep model.ProxyEndpoint) {
	r.update(ep, func(s *types.SessionStatus) { s.Pings++ })
}

func (r *Registry) ReplySent(ep model.ProxyEndpoint, _ string) {
	r.update(ep, func(s *types.SessionStatus) { s.Replies++ })
}

// Snapshot 按会话启动顺序返回所有会话状态的副本。
func (r *Registry) Snapshot() []types.SessionStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.SessionStatus, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, *r.sessions[key])
	}
	return out
}

// Subscribe 返回一个接收状态变化的通道，以及取消订阅的函数。
// 订阅者消费过慢时，多余的更新会被丢弃。
func (r *Registry) Subscribe() (<-chan types.SessionStatus, func()) {
	ch := make(chan types.SessionStatus, 64)
	r.mu.Lock()
	r.subs[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, ch)
			r.mu.Unlock()
			close(ch)
		})
	}
}

func (r *Registry) update(ep model.ProxyEndpoint, fn func(s *types.SessionStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[ep.Raw]
	if !ok {
		s = &types.SessionStatus{Proxy: ep.Raw}
		r.sessions[ep.Raw] = s
		r.order = append(r.order, ep.Raw)
	}
	fn(s)
	s.UpdatedAt = r.now().UTC()

	snapshot := *s
	for ch := range r.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
