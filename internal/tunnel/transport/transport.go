// Package transport resolves a proxy endpoint into a dialer that routes
// outbound TCP connections through that proxy.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"liuproxy_keepalive/proxypool/model"
)

// ErrUnsupportedScheme is returned for endpoints whose scheme has no transport.
// It is permanent: retrying the same endpoint can never succeed.
var ErrUnsupportedScheme = errors.New("unsupported proxy scheme")

// Transport opens TCP connections to arbitrary addresses through one proxy.
type Transport interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Resolver maps a proxy endpoint to its Transport.
type Resolver interface {
	Resolve(ep model.ProxyEndpoint) (Transport, error)
}

// Config holds the timeouts shared by all transports.
type Config struct {
	// DialTimeout bounds the TCP connect to the proxy server itself.
	DialTimeout time.Duration
	// NegotiationTimeout bounds the proxy handshake (CONNECT / TLS to an https proxy).
	NegotiationTimeout time.Duration
}

type resolver struct {
	cfg Config
}

// NewResolver returns the default Resolver.
func NewResolver(cfg Config) Resolver {
	return &resolver{cfg: cfg}
}

// Resolve has no side effects; no connection is made until DialContext.
func (r *resolver) Resolve(ep model.ProxyEndpoint) (Transport, error) {
	switch ep.Scheme {
	case model.SchemeSOCKS4:
		return newSOCKS4Transport(r.cfg, ep)
	case model.SchemeSOCKS5:
		return newSOCKS5Transport(r.cfg, ep)
	case model.SchemeHTTP, model.SchemeHTTPS:
		return newHTTPConnectTransport(r.cfg, ep)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, ep.Raw)
	}
}

func (r *resolver) direct() *net.Dialer {
	return &net.Dialer{Timeout: r.cfg.DialTimeout, KeepAlive: 30 * time.Second}
}
