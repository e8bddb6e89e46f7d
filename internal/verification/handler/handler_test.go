package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docverify/internal/verification/handler/mocks"
	"docverify/internal/verification/integrity"
	"docverify/internal/verification/models"
	"docverify/internal/verification/revalidation"
	"docverify/internal/verification/service"
	"docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks
type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, WithLogger(logger), WithMaxUploadBytes(1<<20)).Register(s.router)
}

type part struct {
	field, contentType string
	data               []byte
}

func multipartBody(s *suite.Suite, fields map[string]string, parts ...part) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.field+`.jpg"`)
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		s.Require().NoError(err)
		_, err = w.Write(p.data)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())
	return body, mw.FormDataContentType()
}

var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) submit(fields map[string]string, parts ...part) *httptest.ResponseRecorder {
	body, ct := multipartBody(&s.Suite, fields, parts...)
	req := httptest.NewRequest(http.MethodPost, "/verifications", body)
	req.Header.Set("Content-Type", ct)
	return s.do(req)
}

func (s *HandlerSuite) decodeSubmit(w *httptest.ResponseRecorder) SubmitResponse {
	var resp SubmitResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func allParts() []part {
	return []part{
		{field: "id_front", contentType: "image/jpeg", data: jpeg},
		{field: "id_back", contentType: "image/jpeg", data: jpeg},
		{field: "selfie_with_id", contentType: "image/jpeg", data: jpeg},
	}
}

func (s *HandlerSuite) TestSubmitSuccess() {
	accountID := uuid.New()
	s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req models.VerificationRequest) (*models.VerificationRecord, error) {
			s.Equal(domain.ApplicationID("APP-42"), req.ApplicationID)
			s.Equal(domain.AccountID(accountID), req.AccountID)
			s.Len(req.Uploads, 3)
			s.Equal("image/jpeg", req.Uploads[models.SlotIDFront].ContentType)
			s.Equal(jpeg, req.Uploads[models.SlotSelfieWithID].Data)
			return &models.VerificationRecord{VerificationID: "VER-AB12CD34", OverallStatus: models.OverallApproved}, nil
		})

	w := s.submit(map[string]string{"application_id": "APP-42", "account_id": accountID.String()}, allParts()...)

	s.Equal(http.StatusOK, w.Code)
	resp := s.decodeSubmit(w)
	s.True(resp.Success)
	s.Equal("VER-AB12CD34", resp.VerificationID)
	s.Contains(resp.Message, "VER-AB12CD34")
}

func (s *HandlerSuite) TestSubmitMissingAccountID() {
	w := s.submit(map[string]string{"application_id": "APP-42"}, allParts()...)

	s.Equal(http.StatusBadRequest, w.Code)
	resp := s.decodeSubmit(w)
	s.False(resp.Success)
	s.Equal("account_id is required", resp.Message)
}

func (s *HandlerSuite) TestSubmitInvalidAccountID() {
	w := s.submit(map[string]string{"application_id": "APP-42", "account_id": "nope"}, allParts()...)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(s.decodeSubmit(w).Message, "account_id")
}

func (s *HandlerSuite) TestSubmitIntakeFailureNamesSlot() {
	s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "missing_file: id_front is required"))

	w := s.submit(map[string]string{"application_id": "APP-42", "account_id": uuid.NewString()}, allParts()[1:]...)

	s.Equal(http.StatusBadRequest, w.Code)
	resp := s.decodeSubmit(w)
	s.False(resp.Success)
	s.Contains(resp.Message, "id_front")
	s.Equal(string(dErrors.CodeValidation), resp.Error)
}

func (s *HandlerSuite) TestSubmitProcessingFailureIsGeneric() {
	s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, service.ProcessingFailedMessage))

	w := s.submit(map[string]string{"application_id": "APP-42", "account_id": uuid.NewString()}, allParts()...)

	s.Equal(http.StatusInternalServerError, w.Code)
	resp := s.decodeSubmit(w)
	s.False(resp.Success)
	s.Equal(service.ProcessingFailedMessage, resp.Message)
	s.NotContains(w.Body.String(), "pq:")
}

func (s *HandlerSuite) TestSubmitBodyTooLarge() {
	big := make([]byte, 2<<20)
	w := s.submit(map[string]string{"application_id": "APP-42", "account_id": uuid.NewString()},
		part{field: "id_front", contentType: "image/jpeg", data: big})

	s.Equal(http.StatusBadRequest, w.Code)
	s.False(s.decodeSubmit(w).Success)
}

func (s *HandlerSuite) TestSubmitNotMultipart() {
	req := httptest.NewRequest(http.MethodPost, "/verifications", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestGetVerification() {
	submitted := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	s.service.EXPECT().GetRecord(gomock.Any(), domain.VerificationID("VER-AB12CD34")).Return(&models.VerificationRecord{
		VerificationID:    "VER-AB12CD34",
		ApplicationID:     "APP-42",
		SubmittedAt:       submitted,
		OverallStatus:     models.OverallManualReview,
		OverallConfidence: 70.917,
		Front:             models.DocumentVerificationResult{Status: models.DocumentManualReview, Issues: []string{"hologram not detected"}},
		Files:             map[models.Slot]models.StoredFile{models.SlotIDFront: {Path: "secret/path.jpg"}},
	}, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/verifications/VER-AB12CD34", nil))

	s.Equal(http.StatusOK, w.Code)
	var summary VerificationSummary
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &summary))
	s.Equal("manual_review", summary.OverallStatus)
	s.InDelta(70.917, summary.OverallConfidence, 1e-9)
	s.Equal([]string{"hologram not detected"}, summary.Front.Issues)
	s.Equal([]string{}, summary.Back.Issues)
	s.NotContains(w.Body.String(), "secret/path.jpg")
}

func (s *HandlerSuite) TestGetVerificationBadID() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/verifications/ver-lower", nil))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestGetVerificationNotFound() {
	s.service.EXPECT().GetRecord(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "verification not found"))

	w := s.do(httptest.NewRequest(http.MethodGet, "/verifications/VER-00000000", nil))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerSuite) TestVerifyIntegrity() {
	s.service.EXPECT().VerifyIntegrity(gomock.Any(), domain.VerificationID("VER-AB12CD34")).Return(&integrity.RecordVerification{
		VerificationID:  "VER-AB12CD34",
		OverallVerified: false,
		Files: map[models.Slot]integrity.FileVerification{
			models.SlotIDBack: {Slot: models.SlotIDBack, Verified: false},
		},
	}, nil)

	w := s.do(httptest.NewRequest(http.MethodPost, "/verifications/VER-AB12CD34/integrity", nil))

	s.Equal(http.StatusOK, w.Code)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal(false, body["overall_verified"])
}

func (s *HandlerSuite) TestVerifyIntegrityMissingMetadata() {
	s.service.EXPECT().VerifyIntegrity(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInvariantViolation, "record has no hash metadata"))

	w := s.do(httptest.NewRequest(http.MethodPost, "/verifications/VER-AB12CD34/integrity", nil))
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerSuite) TestAccountStatus() {
	accountID := domain.AccountID(uuid.New())
	s.service.EXPECT().GetAccountStatus(gomock.Any(), accountID).Return(&service.AccountStatus{
		AccountID:         accountID,
		RevalidationState: revalidation.StatePendingVerification,
	}, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/verification-status", nil))

	s.Equal(http.StatusOK, w.Code)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("pending_verification", body["revalidation_state"])
}
