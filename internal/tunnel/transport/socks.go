package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
	"h12.io/socks"

	"liuproxy_keepalive/proxypool/model"
)

type socks5Transport struct {
	dialer proxy.ContextDialer
}

func newSOCKS5Transport(cfg Config, ep model.ProxyEndpoint) (Transport, error) {
	var auth *proxy.Auth
	if ep.User != "" {
		auth = &proxy.Auth{User: ep.User, Password: ep.Password}
	}
	forward := &net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second}
	d, err := proxy.SOCKS5("tcp", ep.Address(), auth, forward)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer for %s is not context aware", ep.Address())
	}
	return &socks5Transport{dialer: cd}, nil
}

func (t *socks5Transport) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := t.dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy dial %s: %w", address, err)
	}
	return conn, nil
}

// socks4Transport 基于 h12.io/socks，目标主机名在本地解析为 IPv4。
type socks4Transport struct {
	dial func(network, address string) (net.Conn, error)
}

func newSOCKS4Transport(cfg Config, ep model.ProxyEndpoint) (Transport, error) {
	u := url.URL{Scheme: model.SchemeSOCKS4, Host: ep.Address()}
	if ep.User != "" {
		u.User = url.User(ep.User)
	}
	if cfg.DialTimeout > 0 {
		u.RawQuery = url.Values{"timeout": []string{cfg.DialTimeout.String()}}.Encode()
	}
	return &socks4Transport{dial: socks.Dial(u.String())}, nil
}

// DialContext 中 h12.io/socks 不接受 context，超时由 URI 中的 timeout 参数控制。
func (t *socks4Transport) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := t.dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("socks4 proxy dial %s: %w", address, err)
	}
	return conn, nil
}
