package transport

import (
	"context"
	"net"
)

// Counter 接收字节计数，prometheus.Counter 满足该接口。
type Counter interface {
	Add(float64)
}

// WithCounters 包装 tr，统计经由代理的上行和下行字节数。
func WithCounters(tr Transport, uplink, downlink Counter) Transport {
	return &countedTransport{Transport: tr, uplink: uplink, downlink: downlink}
}

type countedTransport struct {
	Transport
	uplink   Counter
	downlink Counter
}

func (t *countedTransport) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := t.Transport.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return &countedConn{Conn: conn, uplink: t.uplink, downlink: t.downlink}, nil
}

// countedConn 在读写时累加下行、上行计数。
type countedConn struct {
	net.Conn
	uplink   Counter
	downlink Counter
}

func (c *countedConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.downlink.Add(float64(n))
	}
	return n, err
}

func (c *countedConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if n > 0 {
		c.uplink.Add(float64(n))
	}
	return n, err
}
