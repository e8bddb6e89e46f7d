// Package compliance writes regulatory audit events synchronously. A failed
// write fails the caller; inside the verification transaction that rolls the
// record back with it.
//
// Events: verification_completed, retention_purged.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "docverify/pkg/platform/audit"
)

var errIncomplete = errors.New("incomplete compliance event")

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// New expects an outbox-backed store in production so the event commits
// with the record.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	if err := checkComplete(event); err != nil {
		return err
	}
	start := time.Now()
	if event.Timestamp.IsZero() {
		event.Timestamp = start
	}

	stored := event.ToEvent()
	stored.ID = uuid.New()
	if err := p.store.Append(ctx, stored); err != nil {
		p.metrics.IncPersistFailures()
		p.logger.ErrorContext(ctx, "compliance audit write failed",
			"action", event.Action,
			"account_id", event.AccountID,
			"verification_id", event.VerificationID,
			"error", err,
		)
		return fmt.Errorf("write compliance event %s: %w", event.Action, err)
	}

	p.metrics.ObservePersistDuration(time.Since(start).Seconds())
	p.metrics.IncEventsEmitted()
	return nil
}

// Every compliance event is about one verification of one account.
func checkComplete(event audit.ComplianceEvent) error {
	var missing []string
	if event.Action == "" {
		missing = append(missing, "action")
	}
	if event.AccountID == "" {
		missing = append(missing, "account_id")
	}
	if event.VerificationID == "" {
		missing = append(missing, "verification_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", errIncomplete, missing)
	}
	return nil
}
