// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvenow_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resolvenow_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	AuthFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvenow_auth_failures_total",
		Help: "Rejected authentication attempts by reason.",
	}, []string{"reason"})

	AuthzDenialsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvenow_authz_denials_total",
		Help: "Ownership checks that denied access, by resource and action.",
	}, []string{"resource", "action"})

	ValidationFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvenow_validation_failures_total",
		Help: "Requests rejected by input validation, by resource.",
	}, []string{"resource"})

	ComplaintsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvenow_complaints_created_total",
		Help: "Complaints created, by category.",
	}, []string{"category"})

	FeedbackCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvenow_feedback_created_total",
		Help: "Feedback entries created, by rating.",
	}, []string{"rating"})

	EventPublishFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvenow_event_publish_failures_total",
		Help: "Activity events that could not be published, by type.",
	}, []string{"type"})
)

// MustRegister registers every collector with registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthFailuresTotal,
		AuthzDenialsTotal,
		ValidationFailuresTotal,
		ComplaintsCreatedTotal,
		FeedbackCreatedTotal,
		EventPublishFailuresTotal,
	)
}

// Handler serves the collectors gathered by g in the exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
