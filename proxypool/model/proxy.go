package model

import (
	"net"
	"net/url"
	"strings"
)

// 代理协议
const (
	SchemeSOCKS4 = "socks4"
	SchemeSOCKS5 = "socks5"
	SchemeHTTP   = "http"
	SchemeHTTPS  = "https"
)

// ProxyEndpoint 定义了一个出站代理端点，是整个模块的核心数据结构。
// 读取后不可变；Raw 是代理池中的原始行，同时也是会话的唯一标识。
type ProxyEndpoint struct {
	Raw      string `json:"raw"`
	Scheme   string `json:"scheme"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user,omitempty"`
	Password string `json:"-"`
}

// ParseEndpoint 解析 "scheme://[user:pass@]host:port" 形式的代理行。
// 它从不失败：无法解析的行只保留 Raw，Scheme 为空，之后由解析器以
// ErrUnsupportedScheme 拒绝。
func ParseEndpoint(raw string) ProxyEndpoint {
	raw = strings.TrimSpace(raw)
	ep := ProxyEndpoint{Raw: raw}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ep
	}
	ep.Scheme = strings.ToLower(u.Scheme)
	ep.Host = u.Hostname()
	ep.Port = u.Port()
	if u.User != nil {
		ep.User = u.User.Username()
		ep.Password, _ = u.User.Password()
	}
	return ep
}

// ParseEndpointDefault 为裸 "host:port" 行补上 scheme 后再解析。
func ParseEndpointDefault(raw, scheme string) ProxyEndpoint {
	raw = strings.TrimSpace(raw)
	if scheme != "" && !strings.Contains(raw, "://") {
		raw = scheme + "://" + raw
	}
	return ParseEndpoint(raw)
}

// Address 返回代理服务器的 host:port。
func (p ProxyEndpoint) Address() string {
	return net.JoinHostPort(p.Host, p.Port)
}

// String 返回原始行。
func (p ProxyEndpoint) String() string {
	return p.Raw
}
