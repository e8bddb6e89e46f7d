// Package checkrun executes analytical checks on a bounded, shared worker
// pool. Every check gets its own timeout and tracing span; a check failure is
// captured in its result and never cancels sibling checks.
package checkrun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"docverify/internal/verification/models"
)

const tracerName = "docverify/verification"

// ErrCheckTimeout marks a check that exceeded its deadline.
var ErrCheckTimeout = errors.New("check timed out")

// CheckFunc performs one check and returns its payload and issues.
type CheckFunc func(ctx context.Context) (models.CheckPayload, []string, error)

// Observer receives per-check latency and outcome.
type Observer interface {
	ObserveCheck(name models.CheckName, d time.Duration, err error)
}

type Runner struct {
	sem      *semaphore.Weighted
	timeout  time.Duration
	tracer   trace.Tracer
	observer Observer
}

type Option func(*Runner)

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// New creates a runner that allows at most maxConcurrency checks in flight
// across every pipeline sharing it.
func New(maxConcurrency int64, timeout time.Duration, opts ...Option) *Runner {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	r := &Runner{
		sem:     semaphore.NewWeighted(maxConcurrency),
		timeout: timeout,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tracer exposes the runner's tracer so callers can open parent spans.
func (r *Runner) Tracer() trace.Tracer { return r.tracer }

// Go schedules fn on g and stores its result in dst. The task always returns
// nil so the group never cancels siblings.
func (r *Runner) Go(ctx context.Context, g *errgroup.Group, name models.CheckName, dst *models.CheckResult, fn CheckFunc) {
	g.Go(func() error {
		*dst = r.Run(ctx, name, fn)
		return nil
	})
}

type outcome struct {
	payload models.CheckPayload
	issues  []string
	err     error
}

// Run executes fn under the pool and timeout. A check that ignores its
// context is abandoned at the deadline; its pool slot is released only when
// it returns.
func (r *Runner) Run(ctx context.Context, name models.CheckName, fn CheckFunc) models.CheckResult {
	ctx, span := r.tracer.Start(ctx, "check."+string(name),
		trace.WithAttributes(attribute.String("check.name", string(name))))
	defer span.End()

	start := time.Now()
	result := r.run(ctx, name, fn)

	var err error
	if result.Failed() {
		err = errors.New(result.Err)
		span.RecordError(err)
		span.SetStatus(codes.Error, result.Err)
	}
	if r.observer != nil {
		r.observer.ObserveCheck(name, time.Since(start), err)
	}
	return result
}

func (r *Runner) run(ctx context.Context, name models.CheckName, fn CheckFunc) models.CheckResult {
	if err := ctx.Err(); err != nil {
		return models.Failed(name, fmt.Errorf("check not started: %w", err))
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return models.Failed(name, fmt.Errorf("check not started: %w", err))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer r.sem.Release(1)
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("check panicked: %v", p)}
			}
		}()
		payload, issues, err := fn(ctx)
		done <- outcome{payload: payload, issues: issues, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return models.Failed(name, contextual(ctx, out.err))
		}
		if out.payload == nil {
			return models.Failed(name, errors.New("check returned no result"))
		}
		return models.Succeeded(out.payload, out.issues...)
	case <-ctx.Done():
		return models.Failed(name, contextual(ctx, ctx.Err()))
	}
}

func contextual(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrCheckTimeout
	}
	return err
}
