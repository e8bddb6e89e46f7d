package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision module.
type Metrics struct {
	// Decision outcomes by overall status
	DecisionOutcome *prometheus.CounterVec

	// Distribution of overall confidence
	Confidence prometheus.Histogram

	EvaluateLatency prometheus.Histogram
}

// New registers the decision metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DecisionOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_decision_outcomes_total",
			Help: "Total decision outcomes by overall status",
		}, []string{"status"}),

		Confidence: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_decision_confidence",
			Help:    "Overall confidence of decided verifications",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 85, 90, 95, 100},
		}),

		EvaluateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_decision_evaluate_duration_seconds",
			Help:    "Duration of decision evaluation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveConfidence(c float64) {
	if m != nil {
		m.Confidence.Observe(c)
	}
}

// ObserveEvaluateLatency records the evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
