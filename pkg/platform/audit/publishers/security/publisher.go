// Package security emits security audit events without blocking the caller.
// Events go into a bounded queue that a background loop flushes to the
// audit store; under sustained store failure the oldest events are dropped.
package security

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "docverify/pkg/platform/audit"
)

const (
	defaultFlushInterval = 500 * time.Millisecond
	defaultBatchSize     = 100
)

type Publisher struct {
	store         audit.Store
	queue         *pending
	logger        *slog.Logger
	flushInterval time.Duration
	batchSize     int

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithBufferCapacity(n int) Option {
	return func(p *Publisher) { p.queue = newPending(n) }
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

// New starts the background flush loop. Call Close to drain and stop it.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		queue:         newPending(defaultCapacity),
		logger:        slog.Default(),
		flushInterval: defaultFlushInterval,
		batchSize:     defaultBatchSize,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.loop()
	return p
}

// Emit buffers the event and returns immediately.
func (p *Publisher) Emit(_ context.Context, event audit.SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = audit.SeverityWarning
	}
	p.queue.push(event)
}

// Dropped reports how many events were evicted from a full buffer.
func (p *Publisher) Dropped() int64 {
	return p.queue.evicted.Load()
}

// Close flushes everything still buffered and stops the loop.
func (p *Publisher) Close() error {
	p.once.Do(func() { close(p.stop) })
	<-p.done
	return nil
}

func (p *Publisher) loop() {
	defer close(p.done)
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.flush(context.Background())
		case <-p.stop:
			p.flush(context.Background())
			return
		}
	}
}

func (p *Publisher) flush(ctx context.Context) {
	for {
		batch := p.queue.take(p.batchSize)
		if len(batch) == 0 {
			return
		}
		for i, event := range batch {
			stored := event.ToEvent()
			stored.ID = uuid.New()
			if err := p.store.Append(ctx, stored); err != nil {
				p.logger.ErrorContext(ctx, "security audit persist failed; requeueing",
					"action", event.Action,
					"verification_id", event.VerificationID,
					"error", err,
				)
				p.queue.push(batch[i:]...)
				return
			}
		}
	}
}
