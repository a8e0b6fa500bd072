package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "site"

// Registry holds the service's counters on a private registry so tests can build as many as they like.
type Registry struct {
	reg         *prometheus.Registry
	issuance    *prometheus.CounterVec
	redemption  *prometheus.CounterVec
	submissions *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		issuance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "investor",
			Name:      "download_issuance_total",
			Help:      "Investor download link requests by outcome.",
		}, []string{"outcome"}),
		redemption: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "investor",
			Name:      "download_redemption_total",
			Help:      "Investor download link redemptions by outcome.",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_submissions_total",
			Help:      "Public form submissions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		r.issuance, r.redemption, r.submissions, r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) ObserveIssuance(outcome string) {
	r.issuance.WithLabelValues(outcome).Inc()
}

func (r *Registry) ObserveRedemption(outcome string) {
	r.redemption.WithLabelValues(outcome).Inc()
}

func (r *Registry) ObserveSubmission(kind, outcome string) {
	r.submissions.WithLabelValues(kind, outcome).Inc()
}

// ObserveRequest is called by the HTTP logging middleware.
func (r *Registry) ObserveRequest(method, route, status string, seconds float64) {
	r.requests.WithLabelValues(method, route, status).Observe(seconds)
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
