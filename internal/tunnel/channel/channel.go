package channel

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	utls "github.com/refraction-networking/utls"

	"liuproxy_keepalive/internal/tunnel/transport"
)

// 与 gorilla/websocket 一致的帧类型
const (
	TextMessage   = websocket.TextMessage
	BinaryMessage = websocket.BinaryMessage
)

// Channel 是一条已建立的双向文本帧通道。
// ReadMessage 只能由一个 goroutine 调用，WriteMessage 也只能由一个 goroutine 调用。
type Channel interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer 通过给定的 Transport 打开到 uri 的通道。
type Dialer interface {
	Dial(ctx context.Context, uri string, header http.Header, tr transport.Transport) (Channel, error)
}

// Config 控制 WebSocket 握手。
type Config struct {
	HandshakeTimeout time.Duration
	// Fingerprint 为空时使用 crypto/tls，否则用 utls 模拟对应浏览器的 ClientHello。
	Fingerprint   string
	AllowInsecure bool
}

// WSDialer 使用 gorilla/websocket 建立通道，TCP 层全部走代理 Transport。
type WSDialer struct {
	cfg         Config
	fingerprint *utls.ClientHelloID
}

// NewWSDialer 创建 WSDialer；未知的指纹名返回错误。
func NewWSDialer(cfg Config) (*WSDialer, error) {
	d := &WSDialer{cfg: cfg}
	if cfg.Fingerprint != "" {
		id, ok := fingerprints[strings.ToLower(cfg.Fingerprint)]
		if !ok {
			return nil, fmt.Errorf("unknown tls fingerprint: '%s'", cfg.Fingerprint)
		}
		d.fingerprint = &id
	}
	return d, nil
}

var fingerprints = map[string]utls.ClientHelloID{
	"chrome":     utls.HelloChrome_Auto,
	"firefox":    utls.HelloFirefox_Auto,
	"safari":     utls.HelloSafari_Auto,
	"edge":       utls.HelloEdge_Auto,
	"ios":        utls.HelloIOS_Auto,
	"randomized": utls.HelloRandomized,
}

func (d *WSDialer) Dial(ctx context.Context, uri string, header http.Header, tr transport.Transport) (Channel, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid channel uri %q: %w", uri, err)
	}

	dialer := &websocket.Dialer{
		NetDialContext:   tr.DialContext,
		HandshakeTimeout: d.cfg.HandshakeTimeout,
		ReadBufferSize:   4 * 1024,
		WriteBufferSize:  4 * 1024,
		TLSClientConfig: &tls.Config{
			ServerName:         u.Hostname(),
			InsecureSkipVerify: d.cfg.AllowInsecure,
		},
	}

	if u.Scheme == "wss" && d.fingerprint != nil {
		dialer.NetDialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return d.dialUTLS(ctx, tr, network, addr, u.Hostname())
		}
	}

	ws, resp, err := dialer.DialContext(ctx, uri, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial %s failed (%s): %w", uri, resp.Status, err)
		}
		return nil, fmt.Errorf("websocket dial %s failed: %w", uri, err)
	}
	return ws, nil
}

// dialUTLS 完成带浏览器指纹的 TLS 握手，ALPN 固定为 http/1.1 以便进行 WebSocket 升级。
func (d *WSDialer) dialUTLS(ctx context.Context, tr transport.Transport, network, addr, serverName string) (net.Conn, error) {
	raw, err := tr.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	uconn := utls.UClient(raw, &utls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: d.cfg.AllowInsecure,
	}, *d.fingerprint)

	if err := uconn.BuildHandshakeState(); err != nil {
		_ = raw.Close()
		return nil, err
	}
	hasALPN := false
	for _, ext := range uconn.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			hasALPN = true
			break
		}
	}
	if !hasALPN {
		uconn.Extensions = append(uconn.Extensions, &utls.ALPNExtension{AlpnProtocols: []string{"http/1.1"}})
	}
	if err := uconn.BuildHandshakeState(); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if err := uconn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("utls handshake with %s: %w", addr, err)
	}
	return uconn, nil
}

// IsClosed 判断读写错误是否是一次“干净”的关闭：对端发送了 close 帧，
// 连接在帧边界被网络断开（gorilla 将其报告为 1006），
// 或在已回应 close 之后继续写入。其余错误均视为通道错误。
func IsClosed(err error) bool {
	if errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	var ce *websocket.CloseError
	return errors.As(err, &ce)
}
