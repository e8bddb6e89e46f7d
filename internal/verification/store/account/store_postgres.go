package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docverify/internal/verification/models"
	"docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
	txcontext "docverify/pkg/platform/tx"
)

// PostgresStore keeps one row per account, replaced on every resolved
// verification.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const selectColumns = `
	account_id, identity_verified, overall_status, verification_date, id_expiration_date,
	next_revalidation_date, verification_confidence, verification_id, file_hashes
`

func (s *PostgresStore) Replace(ctx context.Context, status models.AccountVerificationStatus) error {
	hashes, err := json.Marshal(status.FileHashes)
	if err != nil {
		return fmt.Errorf("marshal file hashes: %w", err)
	}
	query := `
		INSERT INTO account_verification_status (
			account_id, identity_verified, overall_status, verification_date, id_expiration_date,
			next_revalidation_date, verification_confidence, verification_id, file_hashes, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (account_id) DO UPDATE SET
			identity_verified = EXCLUDED.identity_verified,
			overall_status = EXCLUDED.overall_status,
			verification_date = EXCLUDED.verification_date,
			id_expiration_date = EXCLUDED.id_expiration_date,
			next_revalidation_date = EXCLUDED.next_revalidation_date,
			verification_confidence = EXCLUDED.verification_confidence,
			verification_id = EXCLUDED.verification_id,
			file_hashes = EXCLUDED.file_hashes,
			updated_at = now()
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		status.AccountID.String(),
		status.IdentityVerified,
		string(status.OverallStatus),
		status.VerificationDate,
		nullTime(status.IDExpirationDate),
		nullTime(status.NextRevalidationDate),
		status.VerificationConfidence,
		status.VerificationID.String(),
		hashes,
	)
	if err != nil {
		return fmt.Errorf("replace account status: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByAccount(ctx context.Context, accountID domain.AccountID) (*models.AccountVerificationStatus, error) {
	query := `SELECT ` + selectColumns + ` FROM account_verification_status WHERE account_id = $1`
	status, err := scanStatus(s.execer(ctx).QueryRowContext(ctx, query, accountID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find account status: %w", err)
	}
	return status, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.AccountVerificationStatus, error) {
	query := `SELECT ` + selectColumns + ` FROM account_verification_status ORDER BY account_id`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list account statuses: %w", err)
	}
	defer rows.Close()

	var out []models.AccountVerificationStatus
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account status: %w", err)
		}
		out = append(out, *status)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStatus(row scanner) (*models.AccountVerificationStatus, error) {
	var (
		status         models.AccountVerificationStatus
		accountID      string
		overall        string
		verificationID string
		expiration     sql.NullTime
		revalidation   sql.NullTime
		hashes         []byte
	)
	err := row.Scan(&accountID, &status.IdentityVerified, &overall, &status.VerificationDate, &expiration,
		&revalidation, &status.VerificationConfidence, &verificationID, &hashes)
	if err != nil {
		return nil, err
	}
	if status.AccountID, err = domain.ParseAccountID(accountID); err != nil {
		return nil, err
	}
	status.VerificationID = domain.VerificationID(verificationID)
	status.OverallStatus = models.OverallStatus(overall)
	status.IDExpirationDate = timePtr(expiration)
	status.NextRevalidationDate = timePtr(revalidation)
	if err := json.Unmarshal(hashes, &status.FileHashes); err != nil {
		return nil, fmt.Errorf("decode file hashes: %w", err)
	}
	return &status, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
