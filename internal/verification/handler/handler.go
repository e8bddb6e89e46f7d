// Package handler exposes the verification pipeline over HTTP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docverify/internal/verification/intake"
	"docverify/internal/verification/integrity"
	"docverify/internal/verification/models"
	"docverify/internal/verification/service"
	"docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// Service is the verification pipeline as the handler sees it.
type Service interface {
	Submit(ctx context.Context, req models.VerificationRequest) (*models.VerificationRecord, error)
	GetRecord(ctx context.Context, id domain.VerificationID) (*models.VerificationRecord, error)
	VerifyIntegrity(ctx context.Context, id domain.VerificationID) (*integrity.RecordVerification, error)
	GetAccountStatus(ctx context.Context, accountID domain.AccountID) (*service.AccountStatus, error)
}

// DefaultMaxUploadBytes bounds a whole multipart body when no limit is set.
const DefaultMaxUploadBytes int64 = 45 << 20

// multipart parts above this size spill to temporary files
const formMemoryBytes = 8 << 20

type Handler struct {
	service        Service
	logger         *slog.Logger
	forms          *formValidator
	maxUploadBytes int64
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

func New(svc Service, opts ...Option) *Handler {
	h := &Handler{
		service:        svc,
		logger:         slog.Default(),
		forms:          newFormValidator(),
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the verification routes on r. Authentication and request
// middleware are applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifications", h.handleSubmit)
	r.Get("/verifications/{verificationID}", h.handleGetVerification)
	r.Post("/verifications/{verificationID}/integrity", h.handleVerifyIntegrity)
	r.Get("/accounts/{accountID}/verification-status", h.handleAccountStatus)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := h.parseSubmission(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid verification submission",
			"request_id", requestID,
			"error", err,
		)
		writeSubmitFailure(w, err)
		return
	}

	record, err := h.service.Submit(ctx, req)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "verification submission failed",
				"request_id", requestID,
				"application_id", req.ApplicationID,
				"error", err,
			)
		}
		writeSubmitFailure(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, SubmitResponse{
		Success:        true,
		Message:        fmt.Sprintf("verification %s recorded with status %s", record.VerificationID, record.OverallStatus),
		VerificationID: record.VerificationID.String(),
	})
}

// parseSubmission reads the multipart form into a request. Slot content
// checks are left to the service so the same rules apply to every caller.
func (h *Handler) parseSubmission(w http.ResponseWriter, r *http.Request) (models.VerificationRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(formMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.VerificationRequest{}, dErrors.Wrap(err, dErrors.CodeValidation,
				fmt.Sprintf("request body exceeds %d bytes", h.maxUploadBytes))
		}
		return models.VerificationRequest{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "expected multipart/form-data body")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := submitForm{
		ApplicationID: r.FormValue("application_id"),
		AccountID:     r.FormValue("account_id"),
	}
	if err := h.forms.validate(form); err != nil {
		return models.VerificationRequest{}, err
	}
	appID, err := domain.ParseApplicationID(form.ApplicationID)
	if err != nil {
		return models.VerificationRequest{}, err
	}
	accountID, err := domain.ParseAccountID(form.AccountID)
	if err != nil {
		return models.VerificationRequest{}, err
	}

	uploads := make(map[models.Slot]models.Upload, len(models.AllSlots))
	for _, slot := range models.AllSlots {
		headers := r.MultipartForm.File[slot.String()]
		if len(headers) == 0 {
			continue
		}
		upload, err := readUpload(slot, headers[0])
		if err != nil {
			return models.VerificationRequest{}, err
		}
		uploads[slot] = upload
	}

	ctx := r.Context()
	return models.VerificationRequest{
		ApplicationID: appID,
		AccountID:     accountID,
		Uploads:       uploads,
		Submitter:     intake.Submitter(requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx), requestcontext.Now(ctx)),
	}, nil
}

func readUpload(slot models.Slot, fh *multipart.FileHeader) (models.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file "+slot.String())
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return models.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file "+slot.String())
	}
	return models.Upload{
		Slot:        slot,
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func writeSubmitFailure(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := httputil.StatusFor(code)
	message := service.ProcessingFailedMessage
	if status < http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			message = de.Message
		}
	}
	httputil.WriteJSON(w, status, SubmitResponse{
		Success: false,
		Message: message,
		Error:   string(code),
	})
}

func (h *Handler) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseVerificationID(chi.URLParam(r, "verificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.GetRecord(ctx, id)
	if err != nil {
		h.logFailure(ctx, "failed to load verification", id.String(), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSummary(record))
}

func (h *Handler) handleVerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseVerificationID(chi.URLParam(r, "verificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.VerifyIntegrity(ctx, id)
	if err != nil {
		h.logFailure(ctx, "integrity verification failed", id.String(), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAccountStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := domain.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.service.GetAccountStatus(ctx, accountID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load account status",
			"request_id", requestcontext.RequestID(ctx),
			"account_id", accountID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) logFailure(ctx context.Context, msg, verificationID string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", verificationID,
		"error", err,
	)
}

// SubmitResponse is the body of POST /verifications.
type SubmitResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	VerificationID string `json:"verification_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

type SideSummary struct {
	Status     string   `json:"status"`
	Confidence float64  `json:"confidence"`
	Issues     []string `json:"issues"`
}

type FaceSummary struct {
	Status     string   `json:"status"`
	Confidence float64  `json:"confidence"`
	Similarity float64  `json:"similarity"`
	Issues     []string `json:"issues"`
}

// VerificationSummary is the public view of a record. Stored paths and
// submitter details stay internal.
type VerificationSummary struct {
	VerificationID      string      `json:"verification_id"`
	ApplicationID       string      `json:"application_id"`
	AccountID           string      `json:"account_id"`
	SubmittedAt         time.Time   `json:"submitted_at"`
	OverallStatus       string      `json:"overall_status"`
	OverallConfidence   float64     `json:"overall_confidence"`
	DeletionScheduledAt time.Time   `json:"deletion_scheduled_at"`
	Front               SideSummary `json:"front"`
	Back                SideSummary `json:"back"`
	Face                FaceSummary `json:"face"`
}

func toSummary(r *models.VerificationRecord) VerificationSummary {
	side := func(d models.DocumentVerificationResult) SideSummary {
		return SideSummary{Status: string(d.Status), Confidence: d.Confidence, Issues: nonNil(d.Issues)}
	}
	return VerificationSummary{
		VerificationID:      r.VerificationID.String(),
		ApplicationID:       r.ApplicationID.String(),
		AccountID:           r.AccountID.String(),
		SubmittedAt:         r.SubmittedAt,
		OverallStatus:       string(r.OverallStatus),
		OverallConfidence:   r.OverallConfidence,
		DeletionScheduledAt: r.DeletionScheduledAt,
		Front:               side(r.Front),
		Back:                side(r.Back),
		Face: FaceSummary{
			Status:     string(r.Face.Status),
			Confidence: r.Face.Confidence,
			Similarity: r.Face.SimilarityScore,
			Issues:     nonNil(r.Face.Issues),
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
