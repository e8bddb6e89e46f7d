package remote

import (
	"context"
	"fmt"

	"docverify/internal/verification/document"
	"docverify/internal/verification/face"
	"docverify/internal/verification/models"
	"docverify/pkg/platform/sentinel"
)

// ErrNotConfigured is returned by Unavailable for every call.
var ErrNotConfigured = fmt.Errorf("analyzer not configured: %w", sentinel.ErrUnavailable)

// Unavailable stands in for the ML service when none is configured. Every
// check it backs fails, so submissions end in manual review instead of
// being approved on missing evidence.
type Unavailable struct{}

func (Unavailable) DocumentAnalyzers() document.Analyzers {
	u := Unavailable{}
	return document.Analyzers{Quality: u, Type: u, Security: u, Text: u, Tampering: u}
}

func (Unavailable) FaceAnalyzers() face.Analyzers {
	u := Unavailable{}
	return face.Analyzers{Detector: u, Quality: u, Liveness: u, Comparer: u, Age: u}
}

func (Unavailable) AssessQuality(context.Context, []byte) (models.ImageQuality, error) {
	return models.ImageQuality{}, ErrNotConfigured
}

func (Unavailable) DetectType(context.Context, []byte) (models.DocumentTypeCheck, error) {
	return models.DocumentTypeCheck{}, ErrNotConfigured
}

func (Unavailable) DetectSecurityFeatures(context.Context, []byte) (models.SecurityFeatures, error) {
	return models.SecurityFeatures{}, ErrNotConfigured
}

func (Unavailable) ExtractFields(context.Context, []byte, models.DocumentSide) (models.ExtractedFields, error) {
	return models.ExtractedFields{}, ErrNotConfigured
}

func (Unavailable) DetectTampering(context.Context, []byte) (models.TamperingSignals, error) {
	return models.TamperingSignals{}, ErrNotConfigured
}

func (Unavailable) DetectFaces(context.Context, []byte) (models.FaceDetection, error) {
	return models.FaceDetection{}, ErrNotConfigured
}

func (Unavailable) AssessFace(context.Context, []byte) (models.FaceQuality, error) {
	return models.FaceQuality{}, ErrNotConfigured
}

func (Unavailable) CheckLiveness(context.Context, []byte) (models.LivenessSignals, error) {
	return models.LivenessSignals{}, ErrNotConfigured
}

func (Unavailable) CompareFaces(context.Context, []byte, []byte) (models.FaceComparisonCheck, error) {
	return models.FaceComparisonCheck{}, ErrNotConfigured
}

func (Unavailable) EstimateAge(context.Context, []byte) (float64, error) {
	return 0, ErrNotConfigured
}
