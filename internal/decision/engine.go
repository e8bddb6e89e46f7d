// Package decision turns the document and face results of one submission
// into the terminal overall status recorded on the verification record.
package decision

import (
	"context"
	"log/slog"
	"time"

	"docverify/internal/decision/metrics"
	"docverify/internal/verification/models"
	"docverify/pkg/requestcontext"
)

// Outcome is the decision for one submission.
type Outcome struct {
	Status     models.OverallStatus
	Confidence float64
}

// Engine wraps the pure rules with logging and metrics.
type Engine struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Evaluate(ctx context.Context, front, back models.DocumentVerificationResult, face models.FaceMatchResult) Outcome {
	start := time.Now()
	out := Outcome{
		Status:     Decide(front, back, face),
		Confidence: OverallConfidence(front, back, face),
	}
	e.metrics.IncrementOutcome(string(out.Status))
	e.metrics.ObserveConfidence(out.Confidence)
	e.metrics.ObserveEvaluateLatency(time.Since(start))

	e.logger.InfoContext(ctx, "verification decided",
		"request_id", requestcontext.RequestID(ctx),
		"front_status", front.Status,
		"back_status", back.Status,
		"face_status", face.Status,
		"overall_status", out.Status,
		"overall_confidence", out.Confidence,
	)
	return out
}
