package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the retention engine.
type Metrics struct {
	// Use case executions by name and outcome
	UseCases *prometheus.CounterVec

	// Use case latency by name
	UseCaseLatency *prometheus.HistogramVec

	// Completed disposition steps by action name
	ActionsExecuted *prometheus.CounterVec

	// Governed nodes whose current action was recomputed, by trigger
	Rescheduled *prometheus.CounterVec

	// Freeze edges added and removed
	FreezeEdges *prometheus.CounterVec

	// Projection rows rewritten
	ProjectionSyncs prometheus.Counter
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		UseCases: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rm_use_cases_total",
			Help: "Total engine use case executions by name and outcome",
		}, []string{"use_case", "outcome"}), // outcome: "ok", "error"

		UseCaseLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rm_use_case_duration_seconds",
			Help:    "Duration of engine use cases including the transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"use_case"}),

		ActionsExecuted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rm_disposition_actions_executed_total",
			Help: "Total completed disposition steps by action name",
		}, []string{"action"}),

		Rescheduled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rm_rescheduled_nodes_total",
			Help: "Total governed nodes whose current disposition action was recomputed",
		}, []string{"trigger"}), // trigger: "schedule_created", "step_added", "step_edited", "record_level", "refile", "copy", "property"

		FreezeEdges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rm_freeze_edges_total",
			Help: "Total freeze edges added or removed",
		}, []string{"op"}), // op: "add", "remove"

		ProjectionSyncs: f.NewCounter(prometheus.CounterOpts{
			Name: "rm_projection_syncs_total",
			Help: "Total search projection rows rewritten",
		}),
	}
}

// ObserveUseCase records one use case execution.
func (m *Metrics) ObserveUseCase(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.UseCases.WithLabelValues(name, outcome).Inc()
	m.UseCaseLatency.WithLabelValues(name).Observe(d.Seconds())
}

// IncrementActionExecuted records a completed disposition step.
func (m *Metrics) IncrementActionExecuted(action string) {
	if m != nil {
		m.ActionsExecuted.WithLabelValues(action).Inc()
	}
}

// AddRescheduled records n recomputed nodes.
func (m *Metrics) AddRescheduled(trigger string, n int) {
	if m != nil && n > 0 {
		m.Rescheduled.WithLabelValues(trigger).Add(float64(n))
	}
}

// AddFreezeEdges records n freeze edges added (op "add") or removed.
func (m *Metrics) AddFreezeEdges(op string, n int) {
	if m != nil && n > 0 {
		m.FreezeEdges.WithLabelValues(op).Add(float64(n))
	}
}

// AddProjectionSyncs records n projection rewrites.
func (m *Metrics) AddProjectionSyncs(n int) {
	if m != nil && n > 0 {
		m.ProjectionSyncs.Add(float64(n))
	}
}
