package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsTotal     = promauto.NewCounter(prometheus.CounterOpts{Name: "obfs4shim_sessions_total", Help: "Client connections accepted"})
	ActiveSessions    = promauto.NewGauge(prometheus.GaugeOpts{Name: "obfs4shim_active_sessions", Help: "Sessions with at least one open direction"})
	HandshakeFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "obfs4shim_handshake_failures_total", Help: "Helper handshakes that failed, by stage"}, []string{"stage"})
	ActiveForwards    = promauto.NewGaugeVec(prometheus.GaugeOpts{Name: "obfs4shim_active_forwards", Help: "Running forwarders by direction"}, []string{"direction"})
	ForwardedBytes    = promauto.NewCounterVec(prometheus.CounterOpts{Name: "obfs4shim_forwarded_bytes_total", Help: "Bytes relayed by direction"}, []string{"direction"})
	ForwardErrors     = promauto.NewCounterVec(prometheus.CounterOpts{Name: "obfs4shim_forward_errors_total", Help: "Forwarders that ended with an unexpected I/O error"}, []string{"direction"})
)
