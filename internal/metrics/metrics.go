// Package metrics exposes the server's Prometheus metrics on a private
// registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reaction"

// Result labels used by the counters below.
const (
	ResultOK       = "ok"
	ResultExists   = "exists"
	ResultInvalid  = "invalid"
	ResultError    = "error"
	ResultImproved = "improved"
	ResultKept     = "kept"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registrations *prometheus.CounterVec
	submissions   *prometheus.CounterVec
	bestTime      prometheus.Histogram

	liveClients     prometheus.Gauge
	batchFlushes    *prometheus.CounterVec
	relayedMessages *prometheus.CounterVec
}

// New creates the metrics on a fresh registry, so several instances can live
// side by side in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by endpoint, method and status code.",
		}, []string{"endpoint", "method", "status"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
		registrations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Player registrations by result.",
		}, []string{"result"}),
		submissions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "time_submissions_total",
			Help:      "Time submissions by result.",
		}, []string{"result"}),
		bestTime: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submitted_time_ms",
			Help:      "Submitted reaction times in milliseconds.",
			Buckets:   []float64{100, 150, 200, 250, 300, 400, 500, 750, 1000, 2000, 3000},
		}),
		liveClients: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_clients",
			Help:      "Connected live leaderboard clients.",
		}),
		batchFlushes: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_batch_flushes_total",
			Help:      "Submission history batch writes by result.",
		}, []string{"result"}),
		relayedMessages: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_messages_total",
			Help:      "Leaderboard updates relayed over NATS by direction.",
		}, []string{"direction"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registration(result string) {
	m.registrations.WithLabelValues(result).Inc()
}

func (m *Metrics) Submission(result string) {
	m.submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) SubmittedTime(ms int64) {
	m.bestTime.Observe(float64(ms))
}

func (m *Metrics) LiveClientConnected()    { m.liveClients.Inc() }
func (m *Metrics) LiveClientDisconnected() { m.liveClients.Dec() }

func (m *Metrics) BatchFlush(err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.batchFlushes.WithLabelValues(result).Inc()
}

func (m *Metrics) Relayed(direction string) {
	m.relayedMessages.WithLabelValues(direction).Inc()
}

// Middleware records request count and latency for one endpoint.
func (m *Metrics) Middleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		m.httpRequests.WithLabelValues(endpoint, r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
		m.httpRequestDuration.WithLabelValues(endpoint, r.Method).Observe(time.Since(start).Seconds())
	}
}

// responseWriter captures the status code written by the handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
