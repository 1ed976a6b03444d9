// Package identity derives the stable per-proxy device identifier a session
// reports to the remote service.
package identity

import (
	"github.com/google/uuid"

	"liuproxy_keepalive/proxypool/model"
)

// Derive returns the name-based (version 5, SHA-1) UUID of the endpoint's raw
// string in the DNS namespace. The same endpoint always yields the same value,
// across processes and restarts.
func Derive(ep model.ProxyEndpoint) string {
	return DeriveString(ep.Raw)
}

// DeriveString is Derive for an arbitrary string.
func DeriveString(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}
