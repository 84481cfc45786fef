// Package metrics defines the Prometheus collectors the service exports
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bemanning"

// Metrics holds every collector, registered on its own registry
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	Submissions        *prometheus.CounterVec
	SubmissionDuration *prometheus.HistogramVec
	Leads              *prometheus.CounterVec
	RateLimitDecisions *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	Effects            *prometheus.CounterVec
}

// New builds and registers the collectors plus the Go and process collectors
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Application submissions by terminal outcome.",
		}, []string{"outcome"}),
		SubmissionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Time from request to terminal outcome.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		Leads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_total",
			Help:      "Contact form submissions by terminal outcome.",
		}, []string{"outcome"}),
		RateLimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Rate limit decisions by policy and result (admitted, rejected, fail_open).",
		}, []string{"policy", "result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by recipient class and outcome.",
		}, []string{"recipient", "outcome"}),
		Effects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "effects_total",
			Help:      "Post commit effects by name and outcome.",
		}, []string{"effect", "outcome"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.Submissions,
		m.SubmissionDuration,
		m.Leads,
		m.RateLimitDecisions,
		m.Notifications,
		m.Effects,
	)
	return m
}

// Registry exposes the registry for tests
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveSubmission counts a terminal outcome and its latency
func (m *Metrics) ObserveSubmission(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
	m.SubmissionDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveLead counts a contact form outcome
func (m *Metrics) ObserveLead(outcome string) {
	if m == nil {
		return
	}
	m.Leads.WithLabelValues(outcome).Inc()
}

// RateLimit counts one limiter decision
func (m *Metrics) RateLimit(policy, result string) {
	if m == nil {
		return
	}
	m.RateLimitDecisions.WithLabelValues(policy, result).Inc()
}

// Notification counts one delivery attempt
func (m *Metrics) Notification(recipient, outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(recipient, outcome).Inc()
}

// Effect counts one post commit effect run
func (m *Metrics) Effect(name, outcome string) {
	if m == nil {
		return
	}
	m.Effects.WithLabelValues(name, outcome).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency labeled by the chi route pattern
// unmatched requests share the "unmatched" route label
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
