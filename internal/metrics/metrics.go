// Package metrics owns the Prometheus registry. A nil *Recorder is valid and
// records nothing, so packages can take one unconditionally.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	lockedTotal     *prometheus.CounterVec
	mutationsTotal  *prometheus.CounterVec
}

// New registers the portal's collectors on a private registry, together with
// the standard Go runtime and process collectors.
func New() *Recorder {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	lockedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_locked_total",
		Help: "Content items served locked because the viewer's role was not allowed",
	}, []string{"kind"})

	mutationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_mutations_total",
		Help: "Successful creates, updates and deletes per entity kind",
	}, []string{"kind", "op"})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		lockedTotal,
		mutationsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Recorder{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		lockedTotal:     lockedTotal,
		mutationsTotal:  mutationsTotal,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Recorder) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one finished request. route should be the router
// pattern ("/api/videos/{id}"), never the raw path, to keep cardinality bounded.
func (m *Recorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, code).Inc()
}

// RecordLocked counts n items of kind that were served locked.
func (m *Recorder) RecordLocked(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lockedTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *Recorder) RecordMutation(kind, op string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(kind, op).Inc()
}
