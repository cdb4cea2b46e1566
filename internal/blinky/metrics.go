package blinky

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var buckets = []float64{.0001, .0005, .001, .005, .01, .05}

var _ prometheus.Collector = httpMetrics{}

// httpMetrics counts and times the requests to the status server
type httpMetrics struct {
	serverCounter  *prometheus.CounterVec
	serverDuration *prometheus.HistogramVec
}

func newHTTPMetrics() httpMetrics {
	return httpMetrics{
		serverCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledrotator_server_api_requests_total",
				Help: "A counter for requests to the status server.",
			},
			[]string{"code", "method"},
		),
		serverDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledrotator_server_api_request_duration_seconds",
				Help:    "A histogram of latencies for requests to the status server.",
				Buckets: buckets,
			},
			[]string{"code", "method"},
		),
	}
}

func (m httpMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.serverCounter.Describe(ch)
	m.serverDuration.Describe(ch)
}

func (m httpMetrics) Collect(ch chan<- prometheus.Metric) {
	m.serverCounter.Collect(ch)
	m.serverDuration.Collect(ch)
}

func (m httpMetrics) ServerMiddleware(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.serverCounter,
		promhttp.InstrumentHandlerDuration(m.serverDuration,
			next,
		),
	)
}
