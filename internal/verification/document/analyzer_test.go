package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"docverify/internal/platform/config"
	"docverify/internal/verification/checkrun"
	"docverify/internal/verification/models"
	"docverify/pkg/requestcontext"
)

type stubDetectors struct {
	quality   models.ImageQuality
	docType   models.DocumentTypeCheck
	security  models.SecurityFeatures
	fields    models.ExtractedFields
	tampering models.TamperingSignals
	fail      map[models.CheckName]error
}

func (s *stubDetectors) AssessQuality(context.Context, []byte) (models.ImageQuality, error) {
	return s.quality, s.fail[models.CheckQuality]
}

func (s *stubDetectors) DetectType(context.Context, []byte) (models.DocumentTypeCheck, error) {
	return s.docType, s.fail[models.CheckDocumentType]
}

func (s *stubDetectors) DetectSecurityFeatures(context.Context, []byte) (models.SecurityFeatures, error) {
	return s.security, s.fail[models.CheckSecurityFeatures]
}

func (s *stubDetectors) ExtractFields(context.Context, []byte, models.DocumentSide) (models.ExtractedFields, error) {
	return s.fields, s.fail[models.CheckDataValidation]
}

func (s *stubDetectors) DetectTampering(context.Context, []byte) (models.TamperingSignals, error) {
	return s.tampering, s.fail[models.CheckTampering]
}

func (s *stubDetectors) analyzers() Analyzers {
	return Analyzers{Quality: s, Type: s, Security: s, Text: s, Tampering: s}
}

func detected(c float64) models.FeatureDetection {
	return models.FeatureDetection{Detected: true, Confidence: c}
}

func genuineDocument() *stubDetectors {
	return &stubDetectors{
		quality:  models.ImageQuality{Width: 1600, Height: 1000, Sharpness: 95, Brightness: 90, Contrast: 90},
		docType:  models.DocumentTypeCheck{Type: models.DocumentIDCard, Region: "EU", Confidence: 95},
		security: models.SecurityFeatures{Hologram: detected(92), Watermark: detected(90), Microprint: detected(88)},
		fields: models.ExtractedFields{
			FullName:       "Maria Lopez",
			DateOfBirth:    "1990-04-12",
			IDNumber:       "X1234567",
			ExpirationDate: "2030-01-01",
		},
		tampering: models.TamperingSignals{CompressionArtifacts: 5, CopyMove: 3, Splicing: 4},
	}
}

var evalTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type AnalyzerSuite struct {
	suite.Suite
	ctx context.Context
	cal config.DocumentCalibration
}

func TestAnalyzerSuite(t *testing.T) {
	suite.Run(t, new(AnalyzerSuite))
}

func (s *AnalyzerSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), evalTime)
	s.cal = config.DefaultDocumentCalibration()
}

func (s *AnalyzerSuite) analyze(d *stubDetectors) models.DocumentVerificationResult {
	a := New(d.analyzers(), checkrun.New(5, time.Second), s.cal)
	return a.Analyze(s.ctx, models.SideFront, []byte("image"))
}

func (s *AnalyzerSuite) TestGenuineDocumentIsVerified() {
	res := s.analyze(genuineDocument())

	s.Equal(models.DocumentVerified, res.Status)
	s.GreaterOrEqual(res.Confidence, 85.0)
	s.Equal("Maria Lopez", res.ExtractedFields.FullName)
	for _, c := range res.Checks() {
		s.True(c.Ran(), "check %s should run", c.Name)
		s.False(c.Failed())
	}
}

func (s *AnalyzerSuite) TestCheckErrorMarksResultError() {
	d := genuineDocument()
	d.fail = map[models.CheckName]error{models.CheckTampering: errors.New("tampering model offline")}

	res := s.analyze(d)

	s.Equal(models.DocumentError, res.Status)
	s.Contains(res.Issues, "tampering: tampering model offline")
	s.True(res.Tampering.Failed())
	s.False(res.Quality.Failed(), "sibling checks still complete")
	s.Greater(res.Confidence, 0.0, "remaining scores still aggregate")
}

func (s *AnalyzerSuite) TestExpiredUnderageDocumentFailsValidation() {
	d := genuineDocument()
	d.fields.ExpirationDate = "2020-01-01"
	d.fields.DateOfBirth = "2015-01-01"

	res := s.analyze(d)

	dv, ok := res.DataValidation.Payload.(models.DataValidationCheck)
	s.Require().True(ok)
	s.False(dv.OverallValid)
	s.Contains(res.Issues, "document expired")
	s.Contains(res.Issues, "holder under minimum age")
}

func (s *AnalyzerSuite) TestUnsupportedTypeIsFlagged() {
	d := genuineDocument()
	d.docType = models.DocumentTypeCheck{Type: models.DocumentUnknown, Confidence: 80}

	res := s.analyze(d)

	s.Contains(res.Issues, "unsupported document type")
	s.Zero(res.DocumentType.Score())
}

func TestScoreQuality(t *testing.T) {
	cal := config.DefaultDocumentCalibration()

	t.Run("resolution floor adds fixed points", func(t *testing.T) {
		q := models.ImageQuality{Width: 800, Height: 600, Sharpness: 100, Brightness: 100, Contrast: 100}
		check := ScoreQuality(q, cal)
		assert.True(t, check.ResolutionOK)
		assert.InDelta(t, 100, check.OverallScore, 1e-9)
	})

	t.Run("below floor", func(t *testing.T) {
		q := models.ImageQuality{Width: 799, Height: 600, Sharpness: 100, Brightness: 100, Contrast: 100}
		check := ScoreQuality(q, cal)
		assert.False(t, check.ResolutionOK)
		assert.InDelta(t, 75, check.OverallScore, 1e-9)
	})
}

func TestValidateFields(t *testing.T) {
	cal := config.DefaultDocumentCalibration()
	base := models.ExtractedFields{
		FullName:       "Jan Kowalski",
		DateOfBirth:    "12/04/1990",
		IDNumber:       "ABC123",
		ExpirationDate: "2031-05-05",
	}

	check := ValidateFields(base, evalTime, cal)
	assert.Equal(t, 5, check.Validation.Passed())
	assert.True(t, check.OverallValid)
	assert.Equal(t, 100.0, check.Score())

	oneMissing := base
	oneMissing.IDNumber = "  "
	check = ValidateFields(oneMissing, evalTime, cal)
	assert.Equal(t, 4, check.Validation.Passed())
	assert.True(t, check.OverallValid)

	twoMissing := oneMissing
	twoMissing.FullName = "J4n"
	check = ValidateFields(twoMissing, evalTime, cal)
	assert.Equal(t, 3, check.Validation.Passed())
	assert.False(t, check.OverallValid)
}

func TestAgeAt(t *testing.T) {
	dob := time.Date(2008, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 17, AgeAt(dob, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 18, AgeAt(dob, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
}

func TestClassifyThresholds(t *testing.T) {
	cal := config.DefaultDocumentCalibration()
	cases := map[float64]models.DocumentStatus{
		100:   models.DocumentVerified,
		85:    models.DocumentVerified,
		84.99: models.DocumentManualReview,
		60:    models.DocumentManualReview,
		59.99: models.DocumentRejected,
		0:     models.DocumentRejected,
	}
	for confidence, want := range cases {
		assert.Equal(t, want, Classify(confidence, cal), "confidence %v", confidence)
	}
}

func TestAggregateIsMonotonic(t *testing.T) {
	cal := config.DefaultDocumentCalibration()
	base := models.DocumentVerificationResult{
		Quality:          models.Succeeded(models.QualityCheck{OverallScore: 60}),
		DocumentType:     models.Succeeded(models.DocumentTypeCheck{Type: models.DocumentPassport, Confidence: 60}),
		SecurityFeatures: models.Succeeded(models.SecurityFeaturesCheck{SecurityScore: 60}),
		DataValidation:   models.Succeeded(models.DataValidationCheck{OverallValid: false}),
		Tampering:        models.Succeeded(models.TamperingCheck{TamperingProbability: 40}),
	}
	baseline := Aggregate(base, cal)

	improved := []func(r *models.DocumentVerificationResult){
		func(r *models.DocumentVerificationResult) {
			r.Quality = models.Succeeded(models.QualityCheck{OverallScore: 90})
		},
		func(r *models.DocumentVerificationResult) {
			r.DocumentType = models.Succeeded(models.DocumentTypeCheck{Type: models.DocumentPassport, Confidence: 90})
		},
		func(r *models.DocumentVerificationResult) {
			r.SecurityFeatures = models.Succeeded(models.SecurityFeaturesCheck{SecurityScore: 90})
		},
		func(r *models.DocumentVerificationResult) {
			r.DataValidation = models.Succeeded(models.DataValidationCheck{OverallValid: true})
		},
		func(r *models.DocumentVerificationResult) {
			r.Tampering = models.Succeeded(models.TamperingCheck{TamperingProbability: 10})
		},
	}
	for i, improve := range improved {
		r := base
		improve(&r)
		assert.Greater(t, Aggregate(r, cal), baseline, "improving check %d", i)
	}

	failed := base
	failed.Quality = models.Failed(models.CheckQuality, errors.New("boom"))
	assert.Less(t, Aggregate(failed, cal), baseline)
}

func TestAggregateWeights(t *testing.T) {
	cal := config.DefaultDocumentCalibration()
	r := models.DocumentVerificationResult{
		Quality:          models.Succeeded(models.QualityCheck{OverallScore: 100}),
		DocumentType:     models.Succeeded(models.DocumentTypeCheck{Type: models.DocumentIDCard, Confidence: 100}),
		SecurityFeatures: models.Succeeded(models.SecurityFeaturesCheck{SecurityScore: 100}),
		DataValidation:   models.Succeeded(models.DataValidationCheck{OverallValid: true}),
		Tampering:        models.Succeeded(models.TamperingCheck{TamperingProbability: 0}),
	}
	require.InDelta(t, 20+15+25+0.25*90+15, Aggregate(r, cal), 1e-9)
}
