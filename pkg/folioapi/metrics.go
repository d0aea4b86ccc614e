package folioapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "folio"

// Metrics holds the client-side request instrumentation.
type Metrics struct {
	// RequestsTotal counts finished requests.
	// Labels:
	//   - code: HTTP status code
	//   - method: HTTP method
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures round-trip latency.
	// Label:
	//   - method: HTTP method
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the client metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total number of backend requests, by status code and method.",
			},
			[]string{"code", "method"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Duration of backend requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// InstrumentTransport wraps next so every round trip is counted and timed.
// A nil next means http.DefaultTransport.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(m.RequestsTotal,
		promhttp.InstrumentRoundTripperDuration(m.RequestDuration, next))
}
