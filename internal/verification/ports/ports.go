// Package ports defines the storage and coordination interfaces shared by the
// verification pipeline, integrity checks and retention jobs.
package ports

import (
	"context"
	"time"

	"docverify/internal/verification/models"
	"docverify/pkg/domain"
	"docverify/pkg/platform/audit"
)

// FileStore holds uploaded images under slash-separated keys.
type FileStore interface {
	// Put writes data at path, creating parent directories with
	// owner-only permissions.
	Put(ctx context.Context, path string, data []byte) error

	// Get returns the bytes at path or sentinel.ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes path. Missing files are not an error. Attempt
	// directories are shared, so callers delete file by file.
	Delete(ctx context.Context, path string) error
}

// RecordStore is the append-only store of verification records.
type RecordStore interface {
	// Append persists a new record; a duplicate id yields sentinel.ErrConflict.
	Append(ctx context.Context, record models.VerificationRecord) error

	// FindByID returns sentinel.ErrNotFound when no record exists.
	FindByID(ctx context.Context, id domain.VerificationID) (*models.VerificationRecord, error)
}

// AccountStore holds at most one status per account.
type AccountStore interface {
	Replace(ctx context.Context, status models.AccountVerificationStatus) error
	FindByAccount(ctx context.Context, accountID domain.AccountID) (*models.AccountVerificationStatus, error)
	List(ctx context.Context) ([]models.AccountVerificationStatus, error)
}

// ScheduleStore records when raw uploads must be purged.
type ScheduleStore interface {
	Schedule(ctx context.Context, schedule models.DeletionSchedule) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.DeletionSchedule, error)
	MarkPurged(ctx context.Context, id domain.VerificationID, at time.Time) error
}

// Locker serializes access to one application's files.
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned
	// function releases the lock.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// TxRunner executes fn atomically; stores called with the ctx it passes
// join the same transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CompliancePublisher records compliance events fail-closed.
type CompliancePublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// SecurityPublisher records security findings without blocking the caller.
type SecurityPublisher interface {
	Emit(ctx context.Context, event audit.SecurityEvent)
}

// OpsTracker records best-effort operational events.
type OpsTracker interface {
	Track(ctx context.Context, event audit.OpsEvent)
}
