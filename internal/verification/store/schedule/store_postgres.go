package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"docverify/internal/verification/models"
	"docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
	txcontext "docverify/pkg/platform/tx"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Schedule(ctx context.Context, schedule models.DeletionSchedule) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO deletion_schedules (verification_id, application_id, account_id, attempt_dir, paths, delete_after)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, schedule.VerificationID.String(), schedule.ApplicationID.String(), schedule.AccountID.String(),
		schedule.AttemptDir, pq.Array(schedule.Paths), schedule.DeleteAfter)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("schedule %s: %w", schedule.VerificationID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert deletion schedule: %w", err)
	}
	return nil
}

// ListDue locks the returned rows when called inside a transaction so
// concurrent sweepers skip each other's work.
func (s *PostgresStore) ListDue(ctx context.Context, now time.Time, limit int) ([]models.DeletionSchedule, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT verification_id, application_id, account_id, attempt_dir, paths, delete_after
		FROM deletion_schedules
		WHERE purged_at IS NULL AND delete_after <= $1
		ORDER BY delete_after
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	var due []models.DeletionSchedule
	for rows.Next() {
		var (
			sch       models.DeletionSchedule
			id        string
			appID     string
			accountID string
		)
		if err := rows.Scan(&id, &appID, &accountID, &sch.AttemptDir, pq.Array(&sch.Paths), &sch.DeleteAfter); err != nil {
			return nil, fmt.Errorf("scan deletion schedule: %w", err)
		}
		sch.VerificationID = domain.VerificationID(id)
		sch.ApplicationID = domain.ApplicationID(appID)
		if sch.AccountID, err = domain.ParseAccountID(accountID); err != nil {
			return nil, fmt.Errorf("scan deletion schedule: %w", err)
		}
		due = append(due, sch)
	}
	return due, rows.Err()
}

func (s *PostgresStore) MarkPurged(ctx context.Context, id domain.VerificationID, at time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE deletion_schedules SET purged_at = $2 WHERE verification_id = $1`, id.String(), at)
	if err != nil {
		return fmt.Errorf("mark schedule purged: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark schedule purged: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("schedule %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}
