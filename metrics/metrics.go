// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradelink_live_sessions",
		Help: "Number of authenticated socket sessions currently connected.",
	})

	LiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradelink_live_rooms",
		Help: "Number of trade rooms currently open.",
	})

	DispatchSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tradelink_dispatch_seconds",
		Help:    "Handler execution time per dispatched event.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})

	HandshakeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradelink_handshake_failures_total",
		Help: "Rejected connection handshakes by error code.",
	}, []string{"code"})
)

// Handler serves the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
