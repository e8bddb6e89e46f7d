package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"docverify/internal/verification/models"
	"docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
	txcontext "docverify/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore keeps each record as a JSONB document alongside the columns
// used for lookups. Rows are only ever inserted.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, record models.VerificationRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	query := `
		INSERT INTO verification_records (
			verification_id, application_id, account_id, submitted_at, attempt_dir,
			overall_status, overall_confidence, deletion_scheduled_at, record
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		record.VerificationID.String(),
		record.ApplicationID.String(),
		record.AccountID.String(),
		record.SubmittedAt,
		record.AttemptDir,
		string(record.OverallStatus),
		record.OverallConfidence,
		record.DeletionScheduledAt,
		doc,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("record %s: %w", record.VerificationID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert verification record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.VerificationID) (*models.VerificationRecord, error) {
	var doc []byte
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT record FROM verification_records WHERE verification_id = $1`, id.String(),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find verification record: %w", err)
	}
	var record models.VerificationRecord
	if err := json.Unmarshal(doc, &record); err != nil {
		return nil, fmt.Errorf("decode verification record: %w", err)
	}
	return &record, nil
}
