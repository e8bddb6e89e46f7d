package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"docverify/internal/verification/models"
)

// Metrics provides observability for the verification pipeline.
type Metrics struct {
	// Check latency by check name
	CheckLatency *prometheus.HistogramVec

	// Check failures (errors and timeouts) by check name
	CheckErrors *prometheus.CounterVec

	Submissions *prometheus.CounterVec

	// End-to-end pipeline latency, validation to commit
	PipelineLatency prometheus.Histogram

	IntegrityChecks     *prometheus.CounterVec
	IntegrityMismatches prometheus.Counter

	RetentionPurged prometheus.Counter
}

// New registers the verification metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CheckLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docverify_check_duration_seconds",
			Help:    "Duration of individual analytical checks",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"check"}),

		CheckErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_check_errors_total",
			Help: "Total failed checks by check name",
		}, []string{"check"}),

		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_submissions_total",
			Help: "Total submissions by result (approved, manual_review, rejected, invalid, failed)",
		}, []string{"result"}),

		PipelineLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_pipeline_duration_seconds",
			Help:    "Duration of a full verification submission",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		IntegrityChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_integrity_checks_total",
			Help: "Total record integrity checks by outcome",
		}, []string{"outcome"}),

		IntegrityMismatches: f.NewCounter(prometheus.CounterOpts{
			Name: "docverify_integrity_mismatches_total",
			Help: "Total files whose current hash differs from the stored hash",
		}),

		RetentionPurged: f.NewCounter(prometheus.CounterOpts{
			Name: "docverify_retention_purged_total",
			Help: "Total attempts whose raw uploads were purged",
		}),
	}
}

// ObserveCheck implements checkrun.Observer.
func (m *Metrics) ObserveCheck(name models.CheckName, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.CheckLatency.WithLabelValues(string(name)).Observe(d.Seconds())
	if err != nil {
		m.CheckErrors.WithLabelValues(string(name)).Inc()
	}
}

func (m *Metrics) IncSubmission(result string) {
	if m != nil {
		m.Submissions.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObservePipelineLatency(d time.Duration) {
	if m != nil {
		m.PipelineLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncIntegrityCheck(verified bool) {
	if m == nil {
		return
	}
	outcome := "verified"
	if !verified {
		outcome = "mismatch"
	}
	m.IntegrityChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncIntegrityMismatch() {
	if m != nil {
		m.IntegrityMismatches.Inc()
	}
}

func (m *Metrics) IncRetentionPurged() {
	if m != nil {
		m.RetentionPurged.Inc()
	}
}
