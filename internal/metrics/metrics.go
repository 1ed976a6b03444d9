package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsOpen        = promauto.NewGauge(prometheus.GaugeOpts{Name: "keepalive_sessions_open", Help: "Sessions with an open channel"})
	ConnectAttemptTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "keepalive_connect_attempts_total", Help: "Channel open attempts by proxy scheme"}, []string{"scheme"})
	PingsSentTotal      = promauto.NewCounter(prometheus.CounterOpts{Name: "keepalive_pings_sent_total", Help: "Keep-alive pings sent"})
	RepliesSentTotal    = promauto.NewCounterVec(prometheus.CounterOpts{Name: "keepalive_replies_sent_total", Help: "Replies sent by origin action"}, []string{"action"})
	MalformedFrameTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "keepalive_malformed_frames_total", Help: "Inbound frames discarded as malformed"})
	EvictionsTotal      = promauto.NewCounter(prometheus.CounterOpts{Name: "keepalive_evictions_total", Help: "Proxies evicted from the pool"})
	DisconnectsTotal    = promauto.NewCounter(prometheus.CounterOpts{Name: "keepalive_disconnects_total", Help: "Channels closed without error"})
	ProxyBytesTotal     = promauto.NewCounterVec(prometheus.CounterOpts{Name: "keepalive_proxy_bytes_total", Help: "Bytes carried through proxies by direction"}, []string{"direction"})
	SessionDuration     = promauto.NewHistogram(prometheus.HistogramOpts{Name: "keepalive_session_duration_seconds", Help: "Channel lifetime seconds", Buckets: prometheus.ExponentialBuckets(1, 2, 16)})
)
