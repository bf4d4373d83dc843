// Package metrics declares the Prometheus collectors of the calibration helper.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attempt results used as the "result" label.
const (
	ResultSuccess        = "success"
	ResultTransportError = "transport_error"
	ResultParseError     = "parse_error"
)

//nolint:gochecknoglobals // Collectors are registered once for the whole process.
var (
	// MeasureAttempts counts single command/response exchanges per instrument.
	MeasureAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calibration_instrument_attempts_total",
		Help: "Measurement exchanges with an instrument by result.",
	}, []string{"instrument", "result"})

	// Reconnects counts full close-and-reopen cycles triggered by failures.
	Reconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calibration_instrument_reconnects_total",
		Help: "Transport reopen cycles after a failed exchange.",
	}, []string{"instrument"})

	// Faults counts drivers that exhausted their retry bound.
	Faults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calibration_instrument_faults_total",
		Help: "Times a driver entered the faulted state.",
	}, []string{"instrument"})

	// Verdicts counts stored records by verdict.
	Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calibration_verdicts_total",
		Help: "Evaluated measurement records by verdict.",
	}, []string{"verdict"})

	// HTTPRequests counts API requests by route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calibration_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes API latency by route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calibration_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
