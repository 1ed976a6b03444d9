package web

import (
	"encoding/json"
	"net/http"

	"liuproxy_keepalive/internal/shared/logger"
	"liuproxy_keepalive/internal/shared/types"
	"liuproxy_keepalive/proxypool/model"
)

// SessionSource 提供所有会话的状态快照。
type SessionSource interface {
	Snapshot() []types.SessionStatus
}

// PoolSource 提供当前代理池。
type PoolSource interface {
	List() []model.ProxyEndpoint
}

// Handler holds the read-only sources behind the status API.
type Handler struct {
	sessions SessionSource
	pool     PoolSource
}

func NewHandler(sessions SessionSource, pool PoolSource) *Handler {
	return &Handler{sessions: sessions, pool: pool}
}

// HandleSessions 处理 GET /api/sessions 请求
func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.sessions.Snapshot())
}

type poolEntry struct {
	Raw     string `json:"raw"`
	Scheme  string `json:"scheme"`
	Address string `json:"address"`
}

// HandlePool 处理 GET /api/pool 请求
func (h *Handler) HandlePool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	proxies := h.pool.List()
	entries := make([]poolEntry, 0, len(proxies))
	for _, p := range proxies {
		entries = append(entries, poolEntry{Raw: p.Raw, Scheme: p.Scheme, Address: p.Address()})
	}
	writeJSON(w, entries)
}

// HandleHealth 处理 GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
