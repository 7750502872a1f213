package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Print kinds used as the "kind" label.
const (
	KindTemporary  = "temporary"
	KindPersistent = "persistent"
)

var (
	registry *prometheus.Registry

	// Prints accepted into the queue. Watch for: bursts far above the display rate (queue grows).
	PrintsQueuedTotal *prometheus.CounterVec

	// Prints written to the console.
	PrintsDisplayedTotal *prometheus.CounterVec

	// Temporary prints cut short by skip, overwrite or clear.
	PrintsSkippedTotal prometheus.Counter

	// Prints rejected by validation.
	PrintsRejectedTotal *prometheus.CounterVec

	// Entries waiting behind the one on screen.
	PrintQueueDepth prometheus.Gauge

	// Time a temporary line actually stayed on screen (display + post delay, shorter when skipped).
	PrintDisplaySeconds prometheus.Histogram

	// Control API request rate. Watch for: non-2xx responses.
	HTTPRequestsTotal *prometheus.CounterVec

	// Control API latency per request.
	HTTPRequestDuration *prometheus.HistogramVec

	// Control API requests currently being served.
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limit denials on the control API.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	PrintsQueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printsQueuedTotal",
			Help: "Total number of prints accepted into the queue",
		},
		[]string{"kind"},
	)
	PrintsDisplayedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printsDisplayedTotal",
			Help: "Total number of prints written to the console",
		},
		[]string{"kind"},
	)
	PrintsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "printsSkippedTotal",
			Help: "Total number of prints cut short by skip, overwrite or clear",
		},
	)
	PrintsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printsRejectedTotal",
			Help: "Total number of prints rejected by validation",
		},
		[]string{"reason"},
	)
	PrintQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "printQueueDepth",
			Help: "Number of prints waiting in the queue",
		},
	)
	PrintDisplaySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printDisplaySeconds",
			Help:    "Seconds a temporary print stayed on screen before being erased",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		PrintsQueuedTotal, PrintsDisplayedTotal, PrintsSkippedTotal, PrintsRejectedTotal,
		PrintQueueDepth, PrintDisplaySeconds,
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
