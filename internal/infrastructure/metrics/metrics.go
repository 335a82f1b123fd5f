package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the enrollment service collectors. A nil *Metrics is a no-op.
type Metrics struct {
	Registry *prometheus.Registry

	AuthTotal           *prometheus.CounterVec
	EnrollmentsDone     prometheus.Counter
	StatusChanges       *prometheus.CounterVec
	WizardTransitions   *prometheus.CounterVec
	CaptureEvents       *prometheus.CounterVec
	GenerationTotal     *prometheus.CounterVec
	GenerationDuration  *prometheus.HistogramVec
	ActiveWizards       prometheus.Gauge
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		AuthTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chamado_auth_total",
			Help: "Authentications by mode and profile origin",
		}, []string{"mode", "origin"}),
		EnrollmentsDone: factory.NewCounter(prometheus.CounterOpts{
			Name: "chamado_enrollments_completed_total",
			Help: "Enrollments submitted from the last wizard step",
		}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chamado_enrollment_status_changes_total",
			Help: "Administrative enrollment status changes",
		}, []string{"status"}),
		WizardTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chamado_wizard_transitions_total",
			Help: "Wizard step transitions by step and outcome",
		}, []string{"from", "outcome"}),
		CaptureEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chamado_capture_events_total",
			Help: "Identity video capture events",
		}, []string{"event"}),
		GenerationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chamado_generation_total",
			Help: "Generative text requests by kind and result",
		}, []string{"kind", "result"}),
		GenerationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chamado_generation_duration_seconds",
			Help:    "Duration of generative text calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"kind"}),
		ActiveWizards: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chamado_active_wizards",
			Help: "Enrollment wizards currently open",
		}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chamado_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncAuth(mode, origin string) {
	if m == nil {
		return
	}
	m.AuthTotal.WithLabelValues(mode, origin).Inc()
}

func (m *Metrics) IncEnrollmentCompleted() {
	if m == nil {
		return
	}
	m.EnrollmentsDone.Inc()
}

func (m *Metrics) IncStatusChange(status string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(status).Inc()
}

// ObserveTransition records an Advance or Retreat attempt from a step.
func (m *Metrics) ObserveTransition(from int, outcome string) {
	if m == nil {
		return
	}
	m.WizardTransitions.WithLabelValues(strconv.Itoa(from), outcome).Inc()
}

func (m *Metrics) IncCapture(event string) {
	if m == nil {
		return
	}
	m.CaptureEvents.WithLabelValues(event).Inc()
}

// ObserveGeneration records one generative call. Call with time.Now() at the
// start of the call.
func (m *Metrics) ObserveGeneration(kind, result string, start time.Time) {
	if m == nil {
		return
	}
	m.GenerationTotal.WithLabelValues(kind, result).Inc()
	m.GenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetActiveWizards(n int) {
	if m == nil {
		return
	}
	m.ActiveWizards.Set(float64(n))
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
