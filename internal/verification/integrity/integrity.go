// Package integrity stores uploads with a SHA-256 digest and re-verifies
// stored files against that digest. Writes and re-verification of one
// application's files are serialized through the application lock.
package integrity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"docverify/internal/verification/intake"
	"docverify/internal/verification/metrics"
	"docverify/internal/verification/models"
	"docverify/internal/verification/ports"
	"docverify/internal/verification/store/files"
	"docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/audit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

// ErrMissingHashMetadata means a record cannot be verified because a
// required file or its stored hash is absent.
var ErrMissingHashMetadata = errors.New("missing hash metadata")

// FileVerification is the outcome of re-hashing one stored file.
type FileVerification struct {
	Slot        models.Slot `json:"slot"`
	Path        string      `json:"path"`
	Verified    bool        `json:"verified"`
	CurrentHash string      `json:"current_hash,omitempty"`
	StoredHash  string      `json:"stored_hash"`
	CheckedAt   time.Time   `json:"checked_at"`
	Error       string      `json:"error,omitempty"`
}

// RecordVerification aggregates the per-file checks of one record.
type RecordVerification struct {
	VerificationID  domain.VerificationID            `json:"verification_id"`
	OverallVerified bool                             `json:"overall_verified"`
	Files           map[models.Slot]FileVerification `json:"files"`
	CheckedAt       time.Time                        `json:"checked_at"`
}

type Service struct {
	files    ports.FileStore
	locker   ports.Locker
	security ports.SecurityPublisher
	ops      ports.OpsTracker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSecurityPublisher(p ports.SecurityPublisher) Option {
	return func(s *Service) { s.security = p }
}

func WithOpsTracker(t ports.OpsTracker) Option {
	return func(s *Service) { s.ops = t }
}

func New(fileStore ports.FileStore, locker ports.Locker, opts ...Option) (*Service, error) {
	if fileStore == nil {
		return nil, errors.New("file store is required")
	}
	if locker == nil {
		return nil, errors.New("locker is required")
	}
	s := &Service{
		files:  fileStore,
		locker: locker,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveFiles writes every upload of req into the attempt directory and
// records its digest. On any failure the files written so far are removed;
// other attempts sharing the directory are left alone.
func (s *Service) SaveFiles(ctx context.Context, req models.VerificationRequest, submittedAt time.Time) (string, map[models.Slot]models.StoredFile, error) {
	unlock, err := s.locker.Lock(ctx, req.ApplicationID.String())
	if err != nil {
		return "", nil, fmt.Errorf("lock application: %w", err)
	}
	defer unlock()

	dir := files.AttemptDir(req.ApplicationID, submittedAt)
	stored := make(map[models.Slot]models.StoredFile, len(req.Uploads))
	for _, slot := range models.AllSlots {
		upload, ok := req.Upload(slot)
		if !ok {
			continue
		}
		file, err := s.saveOne(ctx, dir, slot, upload, submittedAt)
		if err != nil {
			paths := make([]string, 0, len(stored))
			for _, written := range stored {
				paths = append(paths, written.Path)
			}
			s.deletePaths(ctx, paths)
			return "", nil, err
		}
		stored[slot] = file
	}
	return dir, stored, nil
}

func (s *Service) saveOne(ctx context.Context, dir string, slot models.Slot, upload models.Upload, now time.Time) (models.StoredFile, error) {
	token, err := files.NewToken()
	if err != nil {
		return models.StoredFile{}, err
	}
	path := files.FilePath(dir, slot, token, intake.Extension(upload.ContentType))
	if err := s.files.Put(ctx, path, upload.Data); err != nil {
		return models.StoredFile{}, fmt.Errorf("store %s: %w", slot, err)
	}
	return models.StoredFile{
		Slot:         slot,
		Path:         path,
		SHA256Hash:   Hash(upload.Data),
		Algorithm:    models.HashAlgorithmSHA256,
		OriginalName: upload.FileName,
		SizeBytes:    upload.Size(),
		SavedAt:      now,
	}, nil
}

// Discard removes the files of one attempt, used when a submission fails
// after its files were written. Only the given paths are touched.
func (s *Service) Discard(ctx context.Context, appID domain.ApplicationID, paths []string) {
	unlock, err := s.locker.Lock(context.WithoutCancel(ctx), appID.String())
	if err != nil {
		s.logger.ErrorContext(ctx, "discard attempt: lock failed", "application_id", appID.String(), "error", err)
		return
	}
	defer unlock()
	s.deletePaths(ctx, paths)
}

func (s *Service) deletePaths(ctx context.Context, paths []string) {
	ctx = context.WithoutCancel(ctx)
	for _, path := range paths {
		if err := s.files.Delete(ctx, path); err != nil {
			s.logger.ErrorContext(ctx, "failed to remove attempt file", "path", path, "error", err)
		}
	}
}

// VerifyFile recomputes the digest of the bytes at file.Path. A file that
// can no longer be read is reported unverified with the read error.
func (s *Service) VerifyFile(ctx context.Context, file models.StoredFile) FileVerification {
	result := FileVerification{
		Slot:       file.Slot,
		Path:       file.Path,
		StoredHash: file.SHA256Hash,
		CheckedAt:  requestcontext.Now(ctx),
	}
	data, err := s.files.Get(ctx, file.Path)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			result.Error = "file not found"
		} else {
			result.Error = err.Error()
		}
		return result
	}
	result.CurrentHash = Hash(data)
	result.Verified = result.CurrentHash == file.SHA256Hash
	return result
}

// VerifyRecord re-verifies every file of record. It never modifies the
// record; mismatches are reported and published as security findings.
func (s *Service) VerifyRecord(ctx context.Context, record models.VerificationRecord) (*RecordVerification, error) {
	for _, slot := range models.RequiredSlots {
		if _, ok := record.Files[slot]; !ok {
			return nil, dErrors.Wrap(ErrMissingHashMetadata, dErrors.CodeInvariantViolation,
				fmt.Sprintf("missing hash metadata: no stored file for %s", slot))
		}
	}
	for slot, f := range record.Files {
		if f.Path == "" || f.SHA256Hash == "" {
			return nil, dErrors.Wrap(ErrMissingHashMetadata, dErrors.CodeInvariantViolation,
				fmt.Sprintf("missing hash metadata: %s has no path or stored hash", slot))
		}
	}

	unlock, err := s.locker.Lock(ctx, record.ApplicationID.String())
	if err != nil {
		return nil, fmt.Errorf("lock application: %w", err)
	}
	defer unlock()

	out := &RecordVerification{
		VerificationID:  record.VerificationID,
		OverallVerified: true,
		Files:           make(map[models.Slot]FileVerification, len(record.Files)),
		CheckedAt:       requestcontext.Now(ctx),
	}
	for _, slot := range models.AllSlots {
		file, ok := record.Files[slot]
		if !ok {
			continue
		}
		fv := s.VerifyFile(ctx, file)
		out.Files[slot] = fv
		if !fv.Verified {
			out.OverallVerified = false
			s.reportMismatch(ctx, record, fv)
		}
	}

	s.metrics.IncIntegrityCheck(out.OverallVerified)
	if out.OverallVerified && s.ops != nil {
		s.ops.Track(ctx, audit.OpsEvent{
			Action:    audit.EventIntegrityVerified,
			AccountID: record.AccountID.String(),
			Subject:   record.VerificationID.String(),
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	s.logger.InfoContext(ctx, "integrity verified",
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", record.VerificationID,
		"overall_verified", out.OverallVerified,
	)
	return out, nil
}

func (s *Service) reportMismatch(ctx context.Context, record models.VerificationRecord, fv FileVerification) {
	s.metrics.IncIntegrityMismatch()
	reason := "hash mismatch"
	if fv.Error != "" {
		reason = fv.Error
	}
	s.logger.WarnContext(ctx, "integrity mismatch",
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", record.VerificationID,
		"slot", fv.Slot,
		"reason", reason,
	)
	if s.security == nil {
		return
	}
	s.security.Emit(ctx, audit.SecurityEvent{
		VerificationID: record.VerificationID.String(),
		ApplicationID:  record.ApplicationID.String(),
		Subject:        string(fv.Slot),
		Action:         audit.EventIntegrityMismatch,
		Reason:         reason,
		IP:             requestcontext.ClientIP(ctx),
		RequestID:      requestcontext.RequestID(ctx),
		ActorID:        requestcontext.Caller(ctx),
		Severity:       audit.SeverityCritical,
	})
}
