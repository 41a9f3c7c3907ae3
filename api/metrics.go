package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linesmerrill/court-case-api/models"
)

// Metrics holds the HTTP and court case collectors on their own registry
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge

	casesRegistered  *prometheus.CounterVec
	statusChanges    *prometheus.CounterVec
	hearings         *prometheus.CounterVec
	orders           *prometheus.CounterVec
	versionConflicts prometheus.Counter
	remindersSent    *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		casesRegistered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "court_cases_registered_total",
			Help: "Total number of court cases registered",
		}, []string{"court_type"}),
		statusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "court_case_status_changes_total",
			Help: "Total number of court case status changes",
		}, []string{"from_status", "to_status"}),
		hearings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "court_hearings_scheduled_total",
			Help: "Total number of hearings scheduled",
		}, []string{"hearing_type"}),
		orders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "court_case_orders_total",
			Help: "Total number of orders passed",
		}, []string{"order_type"}),
		versionConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "court_case_version_conflicts_total",
			Help: "Writes that lost an optimistic version check and were replayed",
		}),
		remindersSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "court_hearing_reminders_total",
			Help: "Hearing reminder emails by delivery outcome",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CaseRegistered counts a new case
func (m *Metrics) CaseRegistered(courtType models.CourtType) {
	m.casesRegistered.WithLabelValues(string(courtType)).Inc()
}

// StatusChanged counts a status transition
func (m *Metrics) StatusChanged(from, to models.CaseStatus) {
	m.statusChanges.WithLabelValues(string(from), string(to)).Inc()
}

// HearingScheduled counts a scheduled hearing
func (m *Metrics) HearingScheduled(hearingType models.HearingType) {
	m.hearings.WithLabelValues(string(hearingType)).Inc()
}

// OrderPassed counts an order
func (m *Metrics) OrderPassed(orderType models.OrderType) {
	m.orders.WithLabelValues(string(orderType)).Inc()
}

// VersionConflict counts a replayed write
func (m *Metrics) VersionConflict() {
	m.versionConflicts.Inc()
}

// ReminderDelivered counts one reminder email; outcome is "sent" or "failed"
func (m *Metrics) ReminderDelivered(outcome models.NotificationStatus) {
	m.remindersSent.WithLabelValues(string(outcome)).Inc()
}
