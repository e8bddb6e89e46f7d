//go:build integration

package record_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"docverify/internal/verification/models"
	"docverify/internal/verification/store/record"
	"docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/platform/tx"
	"docverify/pkg/testutil/containers"
)

type PostgresRecordSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *record.PostgresStore
}

func TestPostgresRecordSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRecordSuite))
}

func (s *PostgresRecordSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = record.NewPostgres(s.postgres.DB)
}

func (s *PostgresRecordSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "verification_records"))
}

func sampleRecord() models.VerificationRecord {
	submitted := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	return models.VerificationRecord{
		VerificationID: domain.NewVerificationID(),
		ApplicationID:  "APP-77",
		AccountID:      domain.AccountID(uuid.New()),
		SubmittedAt:    submitted,
		AttemptDir:     "APP-77_20260501_080000",
		Files: map[models.Slot]models.StoredFile{
			models.SlotIDFront: {Slot: models.SlotIDFront, Path: "APP-77_20260501_080000/id_front_a.jpg", SHA256Hash: "aa", Algorithm: models.HashAlgorithmSHA256},
		},
		Front: models.DocumentVerificationResult{
			Side:      models.SideFront,
			Tampering: models.Succeeded(models.TamperingCheck{TamperingProbability: 12}),
			Status:    models.DocumentVerified,
		},
		Face: models.FaceMatchResult{
			Comparison: models.Failed(models.CheckFaceComparison, errors.New("analyzer timeout")),
			Status:     models.FaceError,
		},
		OverallStatus:       models.OverallManualReview,
		OverallConfidence:   61.25,
		DeletionScheduledAt: submitted.Add(72 * time.Hour),
	}
}

func (s *PostgresRecordSuite) TestAppendAndFind() {
	ctx := context.Background()
	rec := sampleRecord()
	s.Require().NoError(s.store.Append(ctx, rec))

	got, err := s.store.FindByID(ctx, rec.VerificationID)
	s.Require().NoError(err)
	s.Equal(rec.VerificationID, got.VerificationID)
	s.Equal(rec.AccountID, got.AccountID)
	s.Equal(rec.OverallStatus, got.OverallStatus)
	s.Equal(rec.OverallConfidence, got.OverallConfidence)
	s.True(rec.SubmittedAt.Equal(got.SubmittedAt))
	s.Equal(rec.Files[models.SlotIDFront].Ref(), got.Files[models.SlotIDFront].Ref())
	s.Equal(rec.Front.Tampering.Payload, got.Front.Tampering.Payload)
	s.Equal("analyzer timeout", got.Face.Comparison.Err)
}

func (s *PostgresRecordSuite) TestDuplicateIsConflict() {
	ctx := context.Background()
	rec := sampleRecord()
	s.Require().NoError(s.store.Append(ctx, rec))
	s.ErrorIs(s.store.Append(ctx, rec), sentinel.ErrConflict)
}

func (s *PostgresRecordSuite) TestNotFound() {
	_, err := s.store.FindByID(context.Background(), "VER-NOTTHERE")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresRecordSuite) TestRollbackLeavesNothing() {
	ctx := context.Background()
	rec := sampleRecord()
	runner := tx.NewSQLRunner(s.postgres.DB, 5*time.Second)

	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.Append(ctx, rec))
		return errors.New("projection failed")
	})
	s.Require().Error(err)

	_, err = s.store.FindByID(ctx, rec.VerificationID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
