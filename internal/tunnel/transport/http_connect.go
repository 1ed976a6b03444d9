package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"liuproxy_keepalive/proxypool/model"
)

// httpConnectTransport dials through an HTTP or HTTPS proxy using CONNECT.
// For https proxies the hop to the proxy itself is wrapped in TLS.
type httpConnectTransport struct {
	cfg    Config
	ep     model.ProxyEndpoint
	auth   string
	direct *net.Dialer
}

func newHTTPConnectTransport(cfg Config, ep model.ProxyEndpoint) (Transport, error) {
	if ep.Host == "" {
		return nil, fmt.Errorf("http proxy: invalid proxy host in %q", ep.Raw)
	}
	auth := ""
	if ep.User != "" {
		auth = "Basic " + base64.StdEncoding.EncodeToString([]byte(ep.User+":"+ep.Password))
	}
	return &httpConnectTransport{
		cfg:    cfg,
		ep:     ep,
		auth:   auth,
		direct: (&resolver{cfg: cfg}).direct(),
	}, nil
}

func (t *httpConnectTransport) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if !strings.HasPrefix(network, "tcp") {
		return nil, fmt.Errorf("http proxy dial %s %s: unsupported network", network, address)
	}

	c, err := t.direct.DialContext(ctx, "tcp", t.ep.Address())
	if err != nil {
		return nil, fmt.Errorf("http proxy: %w", err)
	}

	if t.cfg.NegotiationTimeout > 0 {
		_ = c.SetDeadline(time.Now().Add(t.cfg.NegotiationTimeout))
	}

	if t.ep.Scheme == model.SchemeHTTPS {
		tlsConn := tls.Client(c, &tls.Config{MinVersion: tls.VersionTLS12, ServerName: t.ep.Host})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = tlsConn.Close()
			return nil, fmt.Errorf("http proxy connect tls handshake: %w", err)
		}
		c = tlsConn
	}

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: address},
		Host:   address,
		Header: make(http.Header),
	}
	if t.auth != "" {
		req.Header.Set("Proxy-Authorization", t.auth)
	}

	if err := req.Write(c); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("http proxy connect write: %w", err)
	}

	br := bufio.NewReader(c)
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("http proxy connect read: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		_ = c.Close()
		return nil, fmt.Errorf("http proxy connect failed: %s", resp.Status)
	}

	if t.cfg.NegotiationTimeout > 0 {
		_ = c.SetDeadline(time.Time{})
	}

	if br.Buffered() > 0 {
		return &bufferedConn{Conn: c, r: br}, nil
	}
	return c, nil
}

// bufferedConn 保留 CONNECT 响应之后已被 bufio 读入的字节。
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (b *bufferedConn) Read(p []byte) (int, error) {
	return b.r.Read(p)
}
