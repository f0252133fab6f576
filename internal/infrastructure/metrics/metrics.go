// Package metrics exposes Prometheus collectors for HTTP traffic, sessions
// and resource operations.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the collectors of one server
type Registry struct {
	reg *prometheus.Registry

	httpInFlight  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	authAttempts  *prometheus.CounterVec
	tokenRejects  *prometheus.CounterVec
	resourceOps   *prometheus.CounterVec
	imageUploads  prometheus.Counter
	messagesTotal prometheus.Counter
}

// NewRegistry creates a registry with the Go and process collectors
// registered
func NewRegistry(namespace string) *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Login, registration and logout attempts by outcome.",
		}, []string{"action", "outcome"}),
		tokenRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_rejections_total",
			Help:      "Requests rejected by the session guard, by token state.",
		}, []string{"state"}),
		resourceOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resource",
			Name:      "operations_total",
			Help:      "Composed resource operations by resource, operation and outcome.",
		}, []string{"resource", "operation", "outcome"}),
		imageUploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "teams",
			Name:      "image_uploads_total",
			Help:      "Profile images stored.",
		}),
		messagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inbox",
			Name:      "messages_received_total",
			Help:      "Public contact messages accepted.",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpInFlight,
		r.httpRequests,
		r.httpDuration,
		r.authAttempts,
		r.tokenRejects,
		r.resourceOps,
		r.imageUploads,
		r.messagesTotal,
	)
	return r
}

// RegisterDB exports the connection pool statistics of db
func (r *Registry) RegisterDB(db *sql.DB, name string) error {
	return r.reg.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer returns the underlying gatherer
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// RequestStarted tracks an in-flight request. The returned func records it
// as finished.
func (r *Registry) RequestStarted() func(method, route string, status int) {
	start := time.Now()
	r.httpInFlight.Inc()
	return func(method, route string, status int) {
		r.httpInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// AuthAttempt counts an authentication action
func (r *Registry) AuthAttempt(action string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	r.authAttempts.WithLabelValues(action, outcome).Inc()
}

// TokenRejected counts a request rejected in state
func (r *Registry) TokenRejected(state string) {
	r.tokenRejects.WithLabelValues(state).Inc()
}

// ResourceOperation counts a composed resource operation
func (r *Registry) ResourceOperation(resource, operation, outcome string) {
	r.resourceOps.WithLabelValues(resource, operation, outcome).Inc()
}

// ImageUploaded counts a stored profile image
func (r *Registry) ImageUploaded() {
	r.imageUploads.Inc()
}

// MessageReceived counts an accepted contact message
func (r *Registry) MessageReceived() {
	r.messagesTotal.Inc()
}
