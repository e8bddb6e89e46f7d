// Package worker relays audit outbox entries to the message broker.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/store/postgres"
)

// Outbox is the pending-entry view of the audit outbox.
type Outbox interface {
	FetchPending(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer publishes one message to a topic.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// TxRunner scopes a fetch-publish-mark cycle so row locks are held until
// entries are marked.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TopicFor names the topic for a category, e.g. "docverify.audit.compliance".
func TopicFor(prefix string, category audit.EventCategory) string {
	return prefix + ".audit." + string(category)
}

// Relay polls the outbox and publishes pending entries at least once.
type Relay struct {
	outbox      Outbox
	producer    Producer
	tx          TxRunner
	topicPrefix string
	batchSize   int
	interval    time.Duration
	logger      *slog.Logger
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func NewRelay(outbox Outbox, producer Producer, tx TxRunner, topicPrefix string, opts ...Option) *Relay {
	r := &Relay{
		outbox:      outbox,
		producer:    producer,
		tx:          tx,
		topicPrefix: topicPrefix,
		batchSize:   100,
		interval:    time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "audit outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were marked.
// A publish failure stops the batch; already-published entries are still
// marked, the rest stay pending for the next cycle.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var published int
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := r.outbox.FetchPending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(entries))
		var publishErr error
		for _, e := range entries {
			topic := TopicFor(r.topicPrefix, e.Category)
			if err := r.producer.Publish(ctx, topic, []byte(e.AggregateID), e.Payload); err != nil {
				publishErr = err
				break
			}
			ids = append(ids, e.ID)
		}
		if err := r.outbox.MarkPublished(ctx, ids, time.Now()); err != nil {
			return err
		}
		published = len(ids)
		if publishErr != nil {
			r.logger.WarnContext(ctx, "audit relay stopped early",
				"published", published,
				"pending", len(entries)-published,
				"error", publishErr,
			)
		}
		return nil
	})
	return published, err
}
