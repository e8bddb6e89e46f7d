// Package ops tracks operational audit events on a best-effort basis.
// Failures are logged and never surface to the caller.
package ops

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "docverify/pkg/platform/audit"
)

type Tracker struct {
	store   audit.Store
	sampler *Sampler
	logger  *slog.Logger
}

type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

func WithSampler(s *Sampler) Option {
	return func(t *Tracker) { t.sampler = s }
}

func New(store audit.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:   store,
		sampler: NewSampler(1, nil),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Track(ctx context.Context, event audit.OpsEvent) {
	if !t.sampler.Keep(event.Action) {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	stored := event.ToEvent()
	stored.ID = uuid.New()
	if err := t.store.Append(ctx, stored); err != nil {
		t.logger.WarnContext(ctx, "ops audit dropped",
			"action", event.Action,
			"error", err,
		)
	}
}
