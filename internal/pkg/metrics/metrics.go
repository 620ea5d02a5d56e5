// Package metrics exposes the Prometheus collectors of the dispatch service.
// Every method is safe on a nil receiver so tests and tools can skip metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dispatch"

// Dispatch collects run, fulfillment and vehicle metrics.
type Dispatch struct {
	runsCreated         prometheus.Counter
	runsFinished        *prometheus.CounterVec
	fulfillmentCalls    *prometheus.CounterVec
	fulfillmentDuration prometheus.Histogram
	vehicleActions      *prometheus.CounterVec
}

// NewDispatch registers the collectors on reg. A nil reg yields a no-op
// instance.
func NewDispatch(reg prometheus.Registerer) *Dispatch {
	if reg == nil {
		return nil
	}
	m := &Dispatch{
		runsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_created_total",
			Help:      "Delivery runs created.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Finish attempts by outcome (completed, partial, cancelled).",
		}, []string{"outcome"}),
		fulfillmentCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fulfillment_calls_total",
			Help:      "External fulfillment calls by result (ok, rejected, timeout, error).",
		}, []string{"result"}),
		fulfillmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fulfillment_call_duration_seconds",
			Help:      "Duration of external fulfillment calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		vehicleActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vehicle_actions_total",
			Help:      "Vehicle checkouts and checkins.",
		}, []string{"action"}),
	}
	reg.MustRegister(m.runsCreated, m.runsFinished, m.fulfillmentCalls, m.fulfillmentDuration, m.vehicleActions)
	return m
}

func (m *Dispatch) RunCreated() {
	if m == nil {
		return
	}
	m.runsCreated.Inc()
}

func (m *Dispatch) RunFinished(outcome string) {
	if m == nil {
		return
	}
	m.runsFinished.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Dispatch) FulfillmentCall(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.fulfillmentCalls.WithLabelValues(normalizeLabel(result)).Inc()
	m.fulfillmentDuration.Observe(took.Seconds())
}

func (m *Dispatch) VehicleAction(action string) {
	if m == nil {
		return
	}
	m.vehicleActions.WithLabelValues(normalizeLabel(action)).Inc()
}

// Jobs records background job executions.
type Jobs struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

func NewJobs(reg prometheus.Registerer) *Jobs {
	if reg == nil {
		return nil
	}
	m := &Jobs{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of background jobs in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_success_total",
			Help:      "Successful job executions.",
		}, []string{"job"}),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_failure_total",
			Help:      "Failed job executions.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.duration, m.success, m.failure)
	return m
}

// Observe records one execution of job.
func (m *Jobs) Observe(job string, took time.Duration, err error) {
	if m == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(took.Seconds())
	if err != nil {
		m.failure.WithLabelValues(job).Inc()
		return
	}
	m.success.WithLabelValues(job).Inc()
}

// HTTP records served requests by route template.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	if reg == nil {
		return nil
	}
	m := &HTTP{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *HTTP) Observe(method, route string, code int, took time.Duration) {
	if m == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(method, route).Observe(took.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
