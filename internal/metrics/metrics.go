// Package metrics holds the Prometheus collectors for inbound page requests
// and outbound backend calls.
package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	backendTotal    *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	lockDenials     *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	backendCount         uint64
	backendFailures      uint64
	backendDurationTotal uint64
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studyportal_http_request_duration_seconds",
		Help:    "Duration of page requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyportal_http_requests_total",
		Help: "Total number of page requests",
	}, []string{"method", "route", "status"})

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studyportal_backend_request_duration_seconds",
		Help:    "Duration of backend API calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "resource"})

	backendTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyportal_backend_requests_total",
		Help: "Total number of backend API calls",
	}, []string{"method", "resource", "status"})

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyportal_document_uploads_total",
		Help: "Document uploads by slot and outcome",
	}, []string{"slot", "outcome"})

	lockDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyportal_edit_lock_denials_total",
		Help: "Mutations refused because the application status does not allow edits",
	}, []string{"action"})

	registry.MustRegister(requestDuration, requestTotal, backendDuration, backendTotal, uploads, lockDenials)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		backendDuration: backendDuration,
		backendTotal:    backendTotal,
		uploads:         uploads,
		lockDenials:     lockDenials,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, code).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveBackendCall satisfies backend.Observer. A zero status is a call
// that never got a response.
func (m *Metrics) ObserveBackendCall(method, resource string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.backendDuration.WithLabelValues(method, resource).Observe(duration.Seconds())
	m.backendTotal.WithLabelValues(method, resource, code).Inc()
	atomic.AddUint64(&m.backendCount, 1)
	atomic.AddUint64(&m.backendDurationTotal, uint64(duration.Nanoseconds()))
	if status == 0 || status >= http.StatusInternalServerError {
		atomic.AddUint64(&m.backendFailures, 1)
	}
}

func (m *Metrics) RecordUpload(slot, outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(slot, outcome).Inc()
}

func (m *Metrics) RecordLockDenial(action string) {
	if m == nil {
		return
	}
	m.lockDenials.WithLabelValues(action).Inc()
}

// Snapshot is the aggregate view shown on the admin analytics page.
type Snapshot struct {
	Requests        uint64
	AvgRequestMs    float64
	BackendCalls    uint64
	BackendFailures uint64
	AvgBackendMs    float64
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}

	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	calls := atomic.LoadUint64(&m.backendCount)
	callDuration := atomic.LoadUint64(&m.backendDurationTotal)

	s := Snapshot{
		Requests:        requests,
		BackendCalls:    calls,
		BackendFailures: atomic.LoadUint64(&m.backendFailures),
	}
	if requests > 0 {
		s.AvgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	if calls > 0 {
		s.AvgBackendMs = float64(callDuration) / float64(calls) / float64(time.Millisecond)
	}
	return s
}
