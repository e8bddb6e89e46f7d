// Package service runs the verification pipeline: validate, analyze both ID
// sides and the face concurrently, decide, store the files and commit the
// record together with its projections.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"docverify/internal/decision"
	"docverify/internal/verification/document"
	"docverify/internal/verification/intake"
	"docverify/internal/verification/integrity"
	"docverify/internal/verification/metrics"
	"docverify/internal/verification/models"
	"docverify/internal/verification/ports"
	"docverify/internal/verification/retention"
	"docverify/internal/verification/revalidation"
	"docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/audit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

// DocumentAnalyzer scores one side of the ID.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, side models.DocumentSide, image []byte) models.DocumentVerificationResult
}

// FaceMatcher compares the ID portrait with the selfie.
type FaceMatcher interface {
	Match(ctx context.Context, idImage, selfie []byte) models.FaceMatchResult
}

// FileVault stores uploads with their digests and re-verifies them.
type FileVault interface {
	SaveFiles(ctx context.Context, req models.VerificationRequest, submittedAt time.Time) (string, map[models.Slot]models.StoredFile, error)
	Discard(ctx context.Context, appID domain.ApplicationID, paths []string)
	VerifyRecord(ctx context.Context, record models.VerificationRecord) (*integrity.RecordVerification, error)
}

// Config holds pipeline settings that are not scoring calibration.
type Config struct {
	MaxFileBytes         int64
	RetentionWindow      time.Duration
	RevalidationWarnDays int
}

func DefaultConfig() Config {
	return Config{
		MaxFileBytes:         intake.DefaultMaxFileBytes,
		RetentionWindow:      retention.DefaultWindow,
		RevalidationWarnDays: revalidation.DefaultWarnDays,
	}
}

// ProcessingFailedMessage is the only detail a caller sees when a valid
// submission could not be processed.
const ProcessingFailedMessage = "verification could not be completed"

// maxIDAttempts bounds how often a colliding verification id is regenerated.
const maxIDAttempts = 3

type Service struct {
	intake     *intake.Validator
	documents  DocumentAnalyzer
	faces      FaceMatcher
	vault      FileVault
	records    ports.RecordStore
	accounts   ports.AccountStore
	schedules  ports.ScheduleStore
	tx         ports.TxRunner
	compliance ports.CompliancePublisher
	ops        ports.OpsTracker
	engine     *decision.Engine
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
	config     Config
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithDecisionEngine(e *decision.Engine) Option {
	return func(s *Service) { s.engine = e }
}

func WithOpsTracker(t ports.OpsTracker) Option {
	return func(s *Service) { s.ops = t }
}

func WithConfig(cfg Config) Option {
	return func(s *Service) { s.config = cfg }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// Stores groups the persistence dependencies committed together.
type Stores struct {
	Records    ports.RecordStore
	Accounts   ports.AccountStore
	Schedules  ports.ScheduleStore
	Tx         ports.TxRunner
	Compliance ports.CompliancePublisher
}

func New(documents DocumentAnalyzer, faces FaceMatcher, vault FileVault, stores Stores, opts ...Option) (*Service, error) {
	if documents == nil {
		return nil, fmt.Errorf("document analyzer is required")
	}
	if faces == nil {
		return nil, fmt.Errorf("face matcher is required")
	}
	if vault == nil {
		return nil, fmt.Errorf("file vault is required")
	}
	if stores.Records == nil || stores.Accounts == nil || stores.Schedules == nil {
		return nil, fmt.Errorf("record, account and schedule stores are required")
	}
	if stores.Tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if stores.Compliance == nil {
		return nil, fmt.Errorf("compliance publisher is required")
	}

	svc := &Service{
		documents:  documents,
		faces:      faces,
		vault:      vault,
		records:    stores.Records,
		accounts:   stores.Accounts,
		schedules:  stores.Schedules,
		tx:         stores.Tx,
		compliance: stores.Compliance,
		engine:     decision.NewEngine(),
		tracer:     otel.Tracer("docverify/verification"),
		logger:     slog.Default(),
		config:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.intake = intake.New(svc.config.MaxFileBytes)
	return svc, nil
}

// Submit validates req, runs the analysis and persists the resulting record.
// Validation failures carry dErrors.CodeValidation and leave no trace;
// processing failures carry dErrors.CodeInternal with a generic message.
func (s *Service) Submit(ctx context.Context, req models.VerificationRequest) (*models.VerificationRecord, error) {
	ctx, span := s.tracer.Start(ctx, "verification.submit",
		trace.WithAttributes(attribute.String("application_id", req.ApplicationID.String())))
	defer span.End()
	start := time.Now()

	if err := s.intake.Validate(req); err != nil {
		s.metrics.IncSubmission("invalid")
		s.logger.InfoContext(ctx, "verification rejected at intake",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", req.ApplicationID,
			"error", err,
		)
		return nil, err
	}

	submittedAt := requestcontext.Now(ctx)
	verificationID := domain.NewVerificationID()
	span.SetAttributes(attribute.String("verification_id", verificationID.String()))
	s.trackSubmitted(ctx, req, verificationID)

	front, back, face := s.analyze(ctx, req)
	outcome := s.engine.Evaluate(ctx, front, back, face)

	record, err := s.persist(ctx, req, verificationID, submittedAt, front, back, face, outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.metrics.IncSubmission("failed")
		s.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", verificationID,
			"application_id", req.ApplicationID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, ProcessingFailedMessage)
	}

	s.metrics.IncSubmission(string(record.OverallStatus))
	s.metrics.ObservePipelineLatency(time.Since(start))
	s.logger.InfoContext(ctx, "verification completed",
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", record.VerificationID,
		"application_id", req.ApplicationID,
		"overall_status", record.OverallStatus,
		"overall_confidence", record.OverallConfidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return record, nil
}

// analyze runs the three independent units concurrently and joins on all.
func (s *Service) analyze(ctx context.Context, req models.VerificationRequest) (front, back models.DocumentVerificationResult, face models.FaceMatchResult) {
	frontUpload, _ := req.Upload(models.SlotIDFront)
	backUpload, _ := req.Upload(models.SlotIDBack)
	selfieUpload, _ := req.Upload(models.SlotSelfieWithID)

	var g errgroup.Group
	g.Go(func() error {
		front = s.documents.Analyze(ctx, models.SideFront, frontUpload.Data)
		return nil
	})
	g.Go(func() error {
		back = s.documents.Analyze(ctx, models.SideBack, backUpload.Data)
		return nil
	})
	g.Go(func() error {
		face = s.faces.Match(ctx, frontUpload.Data, selfieUpload.Data)
		return nil
	})
	_ = g.Wait()
	return front, back, face
}

func (s *Service) persist(
	ctx context.Context,
	req models.VerificationRequest,
	verificationID domain.VerificationID,
	submittedAt time.Time,
	front, back models.DocumentVerificationResult,
	face models.FaceMatchResult,
	outcome decision.Outcome,
) (*models.VerificationRecord, error) {
	dir, stored, err := s.vault.SaveFiles(ctx, req, submittedAt)
	if err != nil {
		return nil, fmt.Errorf("save files: %w", err)
	}

	record := models.VerificationRecord{
		VerificationID:    verificationID,
		ApplicationID:     req.ApplicationID,
		AccountID:         req.AccountID,
		SubmittedAt:       submittedAt,
		AttemptDir:        dir,
		Files:             stored,
		Front:             front,
		Back:              back,
		Face:              face,
		OverallStatus:     outcome.Status,
		OverallConfidence: outcome.Confidence,
		Submitter:         req.Submitter,
	}
	for attempt := 1; ; attempt++ {
		duplicate, err := s.commit(ctx, &record, submittedAt)
		if err == nil {
			return &record, nil
		}
		if duplicate && attempt < maxIDAttempts {
			s.logger.WarnContext(ctx, "verification id collision, regenerating",
				"verification_id", record.VerificationID,
				"attempt", attempt,
			)
			record.VerificationID = domain.NewVerificationID()
			continue
		}
		s.vault.Discard(ctx, req.ApplicationID, record.Paths())
		return nil, err
	}
}

// commit writes the record, projection, deletion schedule and compliance
// event in one transaction. duplicate reports a verification id collision
// on append, which leaves nothing written.
func (s *Service) commit(ctx context.Context, record *models.VerificationRecord, submittedAt time.Time) (duplicate bool, err error) {
	schedule := retention.ScheduleFor(*record, s.config.RetentionWindow)
	record.DeletionScheduledAt = schedule.DeleteAfter

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.records.Append(ctx, *record); err != nil {
			duplicate = errors.Is(err, sentinel.ErrConflict)
			return fmt.Errorf("append record: %w", err)
		}
		if err := s.accounts.Replace(ctx, ProjectAccount(*record, submittedAt)); err != nil {
			return fmt.Errorf("project account: %w", err)
		}
		if err := s.schedules.Schedule(ctx, schedule); err != nil {
			return fmt.Errorf("schedule deletion: %w", err)
		}
		return s.compliance.Emit(ctx, audit.ComplianceEvent{
			Timestamp:      submittedAt,
			AccountID:      record.AccountID.String(),
			VerificationID: record.VerificationID.String(),
			ApplicationID:  record.ApplicationID.String(),
			Action:         audit.EventVerificationCompleted,
			Decision:       string(record.OverallStatus),
			Reason:         fmt.Sprintf("overall confidence %.3f", record.OverallConfidence),
			RequestID:      requestcontext.RequestID(ctx),
			ActorID:        requestcontext.Caller(ctx),
		})
	})
	return duplicate, err
}

// ProjectAccount derives the account projection from a resolved record.
func ProjectAccount(record models.VerificationRecord, now time.Time) models.AccountVerificationStatus {
	status := models.AccountVerificationStatus{
		AccountID:              record.AccountID,
		IdentityVerified:       record.OverallStatus == models.OverallApproved,
		OverallStatus:          record.OverallStatus,
		VerificationDate:       now,
		VerificationConfidence: record.OverallConfidence,
		VerificationID:         record.VerificationID,
		FileHashes:             make(map[models.Slot]models.FileRef, len(record.Files)),
	}
	if exp, ok := document.ParseDate(record.Front.ExtractedFields.ExpirationDate); ok {
		status.IDExpirationDate = &exp
		next := exp
		status.NextRevalidationDate = &next
	}
	for slot, f := range record.Files {
		status.FileHashes[slot] = f.Ref()
	}
	return status
}

func (s *Service) trackSubmitted(ctx context.Context, req models.VerificationRequest, id domain.VerificationID) {
	if s.ops == nil {
		return
	}
	s.ops.Track(ctx, audit.OpsEvent{
		AccountID: req.AccountID.String(),
		Subject:   id.String(),
		Action:    audit.EventVerificationSubmitted,
		RequestID: requestcontext.RequestID(ctx),
	})
}

// GetRecord returns a stored record.
func (s *Service) GetRecord(ctx context.Context, id domain.VerificationID) (*models.VerificationRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return record, nil
}

// VerifyIntegrity re-hashes the files of a stored record. The record itself
// is never modified.
func (s *Service) VerifyIntegrity(ctx context.Context, id domain.VerificationID) (*integrity.RecordVerification, error) {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := s.vault.VerifyRecord(ctx, *record)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify integrity")
	}
	return result, nil
}

// AccountStatus is the account projection with its revalidation state.
type AccountStatus struct {
	AccountID         domain.AccountID                  `json:"account_id"`
	Status            *models.AccountVerificationStatus `json:"status,omitempty"`
	RevalidationState revalidation.State                `json:"revalidation_state"`
}

// GetAccountStatus never fails for an unknown account: it reports
// pending_verification.
func (s *Service) GetAccountStatus(ctx context.Context, accountID domain.AccountID) (*AccountStatus, error) {
	status, err := s.accounts.FindByAccount(ctx, accountID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account status")
	}
	return &AccountStatus{
		AccountID:         accountID,
		Status:            status,
		RevalidationState: revalidation.Classify(status, requestcontext.Now(ctx), s.config.RevalidationWarnDays),
	}, nil
}
