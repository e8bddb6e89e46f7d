package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docverify/internal/verification/integrity"
	"docverify/internal/verification/models"
	"docverify/internal/verification/revalidation"
	"docverify/internal/verification/service/mocks"
	"docverify/internal/verification/store/account"
	"docverify/internal/verification/store/files"
	"docverify/internal/verification/store/lock"
	"docverify/internal/verification/store/record"
	"docverify/internal/verification/store/schedule"
	"docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/publishers/compliance"
	auditmemory "docverify/pkg/platform/audit/store/memory"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/platform/tx"
	"docverify/pkg/requestcontext"
)

var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	ctrl      *gomock.Controller
	documents *mocks.MockDocumentAnalyzer
	faces     *mocks.MockFaceMatcher
	vault     *mocks.MockFileVault
	records   *record.InMemoryStore
	accounts  *account.InMemoryStore
	schedules *schedule.InMemoryStore
	audit     *auditmemory.InMemoryStore
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctrl = gomock.NewController(s.T())
	s.documents = mocks.NewMockDocumentAnalyzer(s.ctrl)
	s.faces = mocks.NewMockFaceMatcher(s.ctrl)
	s.vault = mocks.NewMockFileVault(s.ctrl)
	s.records = record.NewInMemory()
	s.accounts = account.NewInMemory()
	s.schedules = schedule.NewInMemory()
	s.audit = auditmemory.NewInMemoryStore()

	var err error
	s.service, err = New(s.documents, s.faces, s.vault, s.stores())
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) stores() Stores {
	return Stores{
		Records:    s.records,
		Accounts:   s.accounts,
		Schedules:  s.schedules,
		Tx:         tx.NewLocalRunner(),
		Compliance: compliance.New(s.audit),
	}
}

func validRequest() models.VerificationRequest {
	return models.VerificationRequest{
		ApplicationID: "APP-1001",
		AccountID:     domain.AccountID(uuid.New()),
		Uploads: map[models.Slot]models.Upload{
			models.SlotIDFront:      {Slot: models.SlotIDFront, FileName: "front.jpg", ContentType: "image/jpeg", Data: append([]byte{}, jpeg...)},
			models.SlotIDBack:       {Slot: models.SlotIDBack, FileName: "back.jpg", ContentType: "image/jpeg", Data: append(append([]byte{}, jpeg...), 'b')},
			models.SlotSelfieWithID: {Slot: models.SlotSelfieWithID, FileName: "selfie.jpg", ContentType: "image/jpeg", Data: append(append([]byte{}, jpeg...), 's')},
		},
	}
}

func verifiedSide(side models.DocumentSide, confidence float64) models.DocumentVerificationResult {
	return models.DocumentVerificationResult{
		Side:       side,
		Confidence: confidence,
		Status:     models.DocumentVerified,
		ExtractedFields: models.ExtractedFields{
			FullName:       "Jane Doe",
			ExpirationDate: "2030-06-30",
		},
	}
}

func storedFiles(dir string) map[models.Slot]models.StoredFile {
	out := map[models.Slot]models.StoredFile{}
	for _, slot := range models.RequiredSlots {
		out[slot] = models.StoredFile{
			Slot:       slot,
			Path:       dir + "/" + slot.String() + "_0011223344556677.jpg",
			SHA256Hash: "abc",
			Algorithm:  models.HashAlgorithmSHA256,
		}
	}
	return out
}

func (s *ServiceSuite) expectApprovedAnalysis() {
	s.documents.EXPECT().Analyze(gomock.Any(), models.SideFront, gomock.Any()).Return(verifiedSide(models.SideFront, 92))
	s.documents.EXPECT().Analyze(gomock.Any(), models.SideBack, gomock.Any()).Return(verifiedSide(models.SideBack, 90))
	s.faces.EXPECT().Match(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.FaceMatchResult{
		SimilarityScore: 93,
		Confidence:      98,
		Status:          models.FaceMatch,
	})
}

func (s *ServiceSuite) TestSubmitApproved() {
	req := validRequest()
	dir := "APP-1001_20260402_093000"
	s.expectApprovedAnalysis()
	s.vault.EXPECT().SaveFiles(gomock.Any(), req, s.now).Return(dir, storedFiles(dir), nil)

	rec, err := s.service.Submit(s.ctx, req)
	s.Require().NoError(err)

	s.Regexp(regexp.MustCompile(`^VER-[A-Z0-9]{8}$`), rec.VerificationID.String())
	s.Equal(models.OverallApproved, rec.OverallStatus)
	s.InDelta(94.5, rec.OverallConfidence, 1e-9)
	s.Equal(s.now.Add(72*time.Hour), rec.DeletionScheduledAt)
	s.Equal(dir, rec.AttemptDir)
	s.Equal(1, s.records.Len())

	stored, err := s.records.FindByID(s.ctx, rec.VerificationID)
	s.Require().NoError(err)
	s.Equal(rec.OverallStatus, stored.OverallStatus)

	status, err := s.accounts.FindByAccount(s.ctx, req.AccountID)
	s.Require().NoError(err)
	s.True(status.IdentityVerified)
	s.Equal(models.OverallApproved, status.OverallStatus)
	s.Equal(rec.VerificationID, status.VerificationID)
	s.Require().NotNil(status.IDExpirationDate)
	s.Equal(time.Date(2030, 6, 30, 0, 0, 0, 0, time.UTC), *status.IDExpirationDate)
	s.Len(status.FileHashes, 3)

	sch, ok := s.schedules.Get(rec.VerificationID)
	s.Require().True(ok)
	s.Len(sch.Paths, 3)

	events, err := s.audit.ListByAction(s.ctx, audit.EventVerificationCompleted)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(models.OverallApproved), events[0].Decision)
}

func (s *ServiceSuite) TestSubmitRejectedStillPersists() {
	req := validRequest()
	dir := "APP-1001_20260402_093000"
	rejected := verifiedSide(models.SideFront, 20)
	rejected.Status = models.DocumentRejected

	s.documents.EXPECT().Analyze(gomock.Any(), models.SideFront, gomock.Any()).Return(rejected)
	s.documents.EXPECT().Analyze(gomock.Any(), models.SideBack, gomock.Any()).Return(verifiedSide(models.SideBack, 90))
	s.faces.EXPECT().Match(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.FaceMatchResult{Confidence: 98, Status: models.FaceMatch})
	s.vault.EXPECT().SaveFiles(gomock.Any(), req, s.now).Return(dir, storedFiles(dir), nil)

	rec, err := s.service.Submit(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(models.OverallRejected, rec.OverallStatus)

	status, err := s.accounts.FindByAccount(s.ctx, req.AccountID)
	s.Require().NoError(err)
	s.False(status.IdentityVerified)
	s.Equal(models.OverallRejected, status.OverallStatus)
}

func (s *ServiceSuite) TestSubmitMissingFileCreatesNothing() {
	req := validRequest()
	delete(req.Uploads, models.SlotIDFront)

	rec, err := s.service.Submit(s.ctx, req)
	s.Nil(rec)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "id_front")
	s.Equal(0, s.records.Len())
}

func (s *ServiceSuite) TestSubmitOversizedFileRejected() {
	req := validRequest()
	big := make([]byte, 15*1024*1024)
	copy(big, jpeg)
	req.Uploads[models.SlotIDBack] = models.Upload{Slot: models.SlotIDBack, ContentType: "image/jpeg", Data: big}

	_, err := s.service.Submit(s.ctx, req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "file_too_large")
	s.Equal(0, s.records.Len())
}

func (s *ServiceSuite) TestSubmitSaveFailureIsGeneric() {
	req := validRequest()
	s.expectApprovedAnalysis()
	s.vault.EXPECT().SaveFiles(gomock.Any(), req, s.now).Return("", nil, errors.New("disk full"))

	_, err := s.service.Submit(s.ctx, req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorIs(err, dErrors.New(dErrors.CodeInternal, ProcessingFailedMessage))
	s.Equal(0, s.records.Len())
}

type failingRecords struct{ *record.InMemoryStore }

func (failingRecords) Append(context.Context, models.VerificationRecord) error {
	return errors.New("connection reset")
}

func (s *ServiceSuite) TestSubmitPersistFailureDiscardsFiles() {
	stores := s.stores()
	stores.Records = failingRecords{record.NewInMemory()}
	svc, err := New(s.documents, s.faces, s.vault, stores)
	s.Require().NoError(err)

	req := validRequest()
	dir := "APP-1001_20260402_093000"
	s.expectApprovedAnalysis()
	s.vault.EXPECT().SaveFiles(gomock.Any(), req, s.now).Return(dir, storedFiles(dir), nil)
	s.vault.EXPECT().Discard(gomock.Any(), req.ApplicationID, models.VerificationRecord{Files: storedFiles(dir)}.Paths())

	_, err = svc.Submit(s.ctx, req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = s.accounts.FindByAccount(s.ctx, req.AccountID)
	s.Error(err)
	events, err := s.audit.ListByAction(s.ctx, audit.EventVerificationCompleted)
	s.Require().NoError(err)
	s.Empty(events)
}

// collidingRecords rejects the first n appends as duplicate ids.
type collidingRecords struct {
	*record.InMemoryStore
	remaining int
	seen      []domain.VerificationID
}

func (c *collidingRecords) Append(ctx context.Context, rec models.VerificationRecord) error {
	c.seen = append(c.seen, rec.VerificationID)
	if c.remaining > 0 {
		c.remaining--
		return fmt.Errorf("record %s: %w", rec.VerificationID, sentinel.ErrConflict)
	}
	return c.InMemoryStore.Append(ctx, rec)
}

func (s *ServiceSuite) TestSubmitRegeneratesCollidingVerificationID() {
	records := &collidingRecords{InMemoryStore: record.NewInMemory(), remaining: 1}
	stores := s.stores()
	stores.Records = records
	svc, err := New(s.documents, s.faces, s.vault, stores)
	s.Require().NoError(err)

	req := validRequest()
	dir := "APP-1001_20260402_093000"
	s.expectApprovedAnalysis()
	s.vault.EXPECT().SaveFiles(gomock.Any(), req, s.now).Return(dir, storedFiles(dir), nil)

	rec, err := svc.Submit(s.ctx, req)
	s.Require().NoError(err)

	s.Require().Len(records.seen, 2)
	s.NotEqual(records.seen[0], records.seen[1])
	s.Equal(records.seen[1], rec.VerificationID)
	s.Equal(1, records.Len())

	status, err := s.accounts.FindByAccount(s.ctx, req.AccountID)
	s.Require().NoError(err)
	s.Equal(rec.VerificationID, status.VerificationID)
	_, ok := s.schedules.Get(records.seen[0])
	s.False(ok, "colliding id leaves no schedule")
	sch, ok := s.schedules.Get(rec.VerificationID)
	s.Require().True(ok)
	s.Equal(rec.Paths(), sch.Paths)
}

func (s *ServiceSuite) TestSubmitGivesUpAfterRepeatedCollisions() {
	records := &collidingRecords{InMemoryStore: record.NewInMemory(), remaining: maxIDAttempts}
	stores := s.stores()
	stores.Records = records
	svc, err := New(s.documents, s.faces, s.vault, stores)
	s.Require().NoError(err)

	req := validRequest()
	dir := "APP-1001_20260402_093000"
	s.expectApprovedAnalysis()
	s.vault.EXPECT().SaveFiles(gomock.Any(), req, s.now).Return(dir, storedFiles(dir), nil)
	s.vault.EXPECT().Discard(gomock.Any(), req.ApplicationID, models.VerificationRecord{Files: storedFiles(dir)}.Paths())

	_, err = svc.Submit(s.ctx, req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Len(records.seen, maxIDAttempts)
	s.Zero(records.Len())
}

func (s *ServiceSuite) TestGetRecordNotFound() {
	_, err := s.service.GetRecord(s.ctx, "VER-ZZZZZZZZ")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestVerifyIntegrityPassesRecordThrough() {
	rec := models.VerificationRecord{VerificationID: "VER-ABCD1234", ApplicationID: "APP-1"}
	s.Require().NoError(s.records.Append(s.ctx, rec))
	want := &integrity.RecordVerification{VerificationID: rec.VerificationID, OverallVerified: true}
	s.vault.EXPECT().VerifyRecord(gomock.Any(), gomock.Any()).Return(want, nil)

	got, err := s.service.VerifyIntegrity(s.ctx, rec.VerificationID)
	s.Require().NoError(err)
	s.Same(want, got)
}

func (s *ServiceSuite) TestVerifyIntegrityMissingMetadata() {
	rec := models.VerificationRecord{VerificationID: "VER-ABCD1234", ApplicationID: "APP-1"}
	s.Require().NoError(s.records.Append(s.ctx, rec))
	s.vault.EXPECT().VerifyRecord(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Wrap(integrity.ErrMissingHashMetadata, dErrors.CodeInvariantViolation, "record has no hash metadata"))

	_, err := s.service.VerifyIntegrity(s.ctx, rec.VerificationID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestAccountStatus() {
	unknown := domain.AccountID(uuid.New())
	st, err := s.service.GetAccountStatus(s.ctx, unknown)
	s.Require().NoError(err)
	s.Nil(st.Status)
	s.Equal(revalidation.StatePendingVerification, st.RevalidationState)

	exp := s.now.AddDate(0, 0, 10)
	known := domain.AccountID(uuid.New())
	s.Require().NoError(s.accounts.Replace(s.ctx, models.AccountVerificationStatus{
		AccountID:        known,
		IdentityVerified: true,
		IDExpirationDate: &exp,
	}))
	st, err = s.service.GetAccountStatus(s.ctx, known)
	s.Require().NoError(err)
	s.Equal(revalidation.StateExpiringSoon, st.RevalidationState)
}

func TestNewRequiresDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	docs := mocks.NewMockDocumentAnalyzer(ctrl)
	faces := mocks.NewMockFaceMatcher(ctrl)
	vault := mocks.NewMockFileVault(ctrl)

	_, err := New(nil, faces, vault, Stores{})
	assert.ErrorContains(t, err, "document analyzer")
	_, err = New(docs, faces, vault, Stores{})
	assert.ErrorContains(t, err, "stores are required")
}

// The files written through the real vault carry the digests recorded on
// the record, so an immediate integrity check passes.
func TestSubmitThenVerifyIntegrity(t *testing.T) {
	now := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctrl := gomock.NewController(t)
	docs := mocks.NewMockDocumentAnalyzer(ctrl)
	faces := mocks.NewMockFaceMatcher(ctrl)
	docs.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, side models.DocumentSide, _ []byte) models.DocumentVerificationResult {
			return verifiedSide(side, 90)
		}).Times(2)
	faces.EXPECT().Match(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.FaceMatchResult{Confidence: 90, Status: models.FaceMatch})

	fileStore := files.NewInMemory()
	vault, err := integrity.New(fileStore, lock.NewInMemory())
	require.NoError(t, err)
	svc, err := New(docs, faces, vault, Stores{
		Records:    record.NewInMemory(),
		Accounts:   account.NewInMemory(),
		Schedules:  schedule.NewInMemory(),
		Tx:         tx.NewLocalRunner(),
		Compliance: compliance.New(auditmemory.NewInMemoryStore()),
	})
	require.NoError(t, err)

	req := validRequest()
	rec, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Len(t, fileStore.Keys(), 3)
	for slot, f := range rec.Files {
		data, err := fileStore.Get(ctx, f.Path)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(req.Uploads[slot].Data, data))
	}

	result, err := svc.VerifyIntegrity(ctx, rec.VerificationID)
	require.NoError(t, err)
	assert.True(t, result.OverallVerified)
	assert.Len(t, result.Files, 3)
}
