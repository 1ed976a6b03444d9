package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"liuproxy_keepalive/internal/shared/logger"
	"liuproxy_keepalive/internal/shared/types"
)

// loggingListener 记录每个被接受的连接（debug 级别）
type loggingListener struct {
	net.Listener
}

func (l loggingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err == nil {
		logger.Debug().Msgf("[WebServer] Connection accepted from: %s", conn.RemoteAddr())
	}
	return conn, err
}

// basicAuthMiddleware 检查 web_user 和 web_password 是否已配置。
// 如果配置了，它将强制执行 HTTP Basic Authentication。
func basicAuthMiddleware(next http.Handler, user, pass string) http.Handler {
	// 如果用户名或密码未设置，则不启用认证，直接返回原始处理器
	if user == "" || pass == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized.\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Server 是本地状态页：指标、会话、代理池与实时推送。
type Server struct {
	cfg     types.LocalConf
	handler *Handler
	hub     *Hub
}

func NewServer(cfg types.LocalConf, handler *Handler, hub *Hub) *Server {
	return &Server{cfg: cfg, handler: handler, hub: hub}
}

// Routes 返回完整的路由表。
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	user, pass := s.cfg.WebUser, s.cfg.WebPassword

	mux.Handle("/metrics", basicAuthMiddleware(promhttp.Handler(), user, pass))
	mux.Handle("/api/sessions", basicAuthMiddleware(http.HandlerFunc(s.handler.HandleSessions), user, pass))
	mux.Handle("/api/pool", basicAuthMiddleware(http.HandlerFunc(s.handler.HandlePool), user, pass))

	// --- 公开的端点 ---
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(s.hub, w, r)
	})
	mux.HandleFunc("/healthz", s.handler.HandleHealth)
	return mux
}

// Run 在 web_port 上提供服务直到 ctx 结束。web_port 为 0 时直接返回。
func (s *Server) Run(ctx context.Context) error {
	l := logger.WithComponent("Web/Server")
	if s.cfg.WebPort <= 0 {
		l.Info().Msg("Web UI is disabled (web_port is 0 or not set).")
		return nil
	}

	addr := fmt.Sprintf("0.0.0.0:%d", s.cfg.WebPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start web server on %s: %w", addr, err)
	}
	l.Info().Msgf("Status page is listening on http://%s", addr)

	go s.hub.Run(ctx)

	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(loggingListener{Listener: listener}); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	l.Info().Msg("Web server stopped.")
	return nil
}
