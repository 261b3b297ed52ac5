// Package metrics holds the Prometheus collectors shared by the client and server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "yuanbao"

var (
	// ProbeTotal counts credential probes by result (valid, invalid, error).
	ProbeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probe_total",
		Help:      "Credential probes against the account-info endpoint.",
	}, []string{"result"})

	// ChatRequests counts upstream chat calls by outcome (ok, transport_error, http_error).
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_requests_total",
		Help:      "Upstream chat requests.",
	}, []string{"outcome"})

	// StreamEvents counts decoded stream lines by kind.
	StreamEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_events_total",
		Help:      "Decoded chat stream lines by kind.",
	}, []string{"kind"})

	ChatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chat_duration_seconds",
		Help:      "Wall time of upstream chat calls including stream consumption.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
