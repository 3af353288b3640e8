// Package metrics provides Prometheus metrics collection for the driver
// back-office platform.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector this service exposes.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	ErrorsTotal *prometheus.CounterVec

	ScoringRecordsTotal    *prometheus.CounterVec
	ScoringRecordDuration  *prometheus.HistogramVec
	ScoringCounterContention prometheus.Counter

	BackgroundJobsTotal    *prometheus.CounterVec
	BackgroundJobDuration  *prometheus.HistogramVec
	BackgroundJobsCoalesced *prometheus.CounterVec

	OAuthRefreshTotal *prometheus.CounterVec

	ServiceInfo *prometheus.GaugeVec
}

// New creates a Metrics instance and registers it with registerer.
func New(serviceName, version, environment string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errors_total",
				Help: "Total number of errors by code and operation",
			},
			[]string{"service", "code", "operation"},
		),
		ScoringRecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoring_records_total",
				Help: "Total assessment records applied, by category and department",
			},
			[]string{"department", "category"},
		),
		ScoringRecordDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scoring_record_apply_duration_seconds",
				Help:    "Time to apply one assessment record, including counter lock wait",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"department"},
		),
		ScoringCounterContention: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scoring_counter_lock_waits_total",
				Help: "Number of ApplyRecord calls that had to wait for a cumulative counter row lock",
			},
		),
		BackgroundJobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "background_jobs_total",
				Help: "Total background job runs by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		BackgroundJobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "background_job_duration_seconds",
				Help:    "Background job duration in seconds",
				Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"kind"},
		),
		BackgroundJobsCoalesced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "background_jobs_coalesced_total",
				Help: "Background job invocations that joined an already-running task instead of starting a new one",
			},
			[]string{"kind"},
		),
		OAuthRefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_refresh_total",
				Help: "Total OAuth access-token refresh calls by department and outcome",
			},
			[]string{"department", "status"},
		),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "service_info",
				Help: "Service build information",
			},
			[]string{"service", "version", "environment"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.RequestsTotal,
			m.RequestDuration,
			m.RequestsInFlight,
			m.ErrorsTotal,
			m.ScoringRecordsTotal,
			m.ScoringRecordDuration,
			m.ScoringCounterContention,
			m.BackgroundJobsTotal,
			m.BackgroundJobDuration,
			m.BackgroundJobsCoalesced,
			m.OAuthRefreshTotal,
			m.ServiceInfo,
		)
	}

	m.ServiceInfo.WithLabelValues(serviceName, version, environment).Set(1)
	return m
}

func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(service, method, path, status).Inc()
	m.RequestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordError(service, code, operation string) {
	m.ErrorsTotal.WithLabelValues(service, code, operation).Inc()
}

func (m *Metrics) RecordScoringRecord(department, category string, duration time.Duration) {
	m.ScoringRecordsTotal.WithLabelValues(department, category).Inc()
	m.ScoringRecordDuration.WithLabelValues(department).Observe(duration.Seconds())
}

func (m *Metrics) RecordBackgroundJob(kind, status string, duration time.Duration) {
	m.BackgroundJobsTotal.WithLabelValues(kind, status).Inc()
	m.BackgroundJobDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) RecordBackgroundJobCoalesced(kind string) {
	m.BackgroundJobsCoalesced.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordOAuthRefresh(department, status string) {
	m.OAuthRefreshTotal.WithLabelValues(department, status).Inc()
}

func (m *Metrics) IncrementInFlight() { m.RequestsInFlight.Inc() }
func (m *Metrics) DecrementInFlight() { m.RequestsInFlight.Dec() }
