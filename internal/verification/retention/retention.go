// Package retention schedules and enforces deletion of raw uploads once the
// retention window after submission has passed.
package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"docverify/internal/verification/metrics"
	"docverify/internal/verification/models"
	"docverify/internal/verification/ports"
	"docverify/pkg/platform/audit"
	"docverify/pkg/requestcontext"
)

// DefaultWindow is how long raw uploads are kept after submission.
const DefaultWindow = 72 * time.Hour

// ScheduleFor computes the deletion schedule of a record.
func ScheduleFor(record models.VerificationRecord, window time.Duration) models.DeletionSchedule {
	if window <= 0 {
		window = DefaultWindow
	}
	return models.DeletionSchedule{
		VerificationID: record.VerificationID,
		ApplicationID:  record.ApplicationID,
		AccountID:      record.AccountID,
		AttemptDir:     record.AttemptDir,
		Paths:          record.Paths(),
		DeleteAfter:    record.SubmittedAt.Add(window),
	}
}

// Sweeper purges the files of due schedules. Each batch runs in one
// transaction together with the purge marks and compliance entries.
type Sweeper struct {
	schedules  ports.ScheduleStore
	files      ports.FileStore
	locker     ports.Locker
	tx         ports.TxRunner
	compliance ports.CompliancePublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	interval   time.Duration
	batchSize  int
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func NewSweeper(schedules ports.ScheduleStore, fileStore ports.FileStore, locker ports.Locker, tx ports.TxRunner, compliance ports.CompliancePublisher, opts ...Option) (*Sweeper, error) {
	if schedules == nil || fileStore == nil || locker == nil || tx == nil || compliance == nil {
		return nil, errors.New("schedule store, file store, locker, tx runner and compliance publisher are required")
	}
	s := &Sweeper{
		schedules:  schedules,
		files:      fileStore,
		locker:     locker,
		tx:         tx,
		compliance: compliance,
		logger:     slog.Default(),
		interval:   15 * time.Minute,
		batchSize:  50,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "retention sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce purges one batch of due schedules and returns how many were
// purged. Deleting files is idempotent, so a batch that fails to commit is
// simply retried next cycle.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	var purged int
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		due, err := s.schedules.ListDue(ctx, now, s.batchSize)
		if err != nil {
			return err
		}
		for _, sch := range due {
			if err := s.purge(ctx, sch, now); err != nil {
				return fmt.Errorf("purge %s: %w", sch.VerificationID, err)
			}
			purged++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for range purged {
		s.metrics.IncRetentionPurged()
	}
	if purged > 0 {
		s.logger.InfoContext(ctx, "retention sweep completed", "purged", purged)
	}
	return purged, nil
}

func (s *Sweeper) purge(ctx context.Context, sch models.DeletionSchedule, now time.Time) error {
	unlock, err := s.locker.Lock(ctx, sch.ApplicationID.String())
	if err != nil {
		return err
	}
	defer unlock()

	// Attempts of one application within the same second share AttemptDir,
	// so only the scheduled paths are removed.
	for _, path := range sch.Paths {
		if err := s.files.Delete(ctx, path); err != nil {
			return err
		}
	}
	if err := s.schedules.MarkPurged(ctx, sch.VerificationID, now); err != nil {
		return err
	}
	return s.compliance.Emit(ctx, audit.ComplianceEvent{
		Timestamp:      now,
		AccountID:      sch.AccountID.String(),
		VerificationID: sch.VerificationID.String(),
		ApplicationID:  sch.ApplicationID.String(),
		Action:         audit.EventRetentionPurged,
		Decision:       "purged",
		Reason:         "retention window elapsed",
		ActorID:        "retention-sweeper",
	})
}
