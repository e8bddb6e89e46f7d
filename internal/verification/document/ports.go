package document

import (
	"context"

	"docverify/internal/verification/models"
)

// QualityAnalyzer measures resolution and photographic quality.
type QualityAnalyzer interface {
	AssessQuality(ctx context.Context, image []byte) (models.ImageQuality, error)
}

// TypeDetector classifies the document and its issuing region.
type TypeDetector interface {
	DetectType(ctx context.Context, image []byte) (models.DocumentTypeCheck, error)
}

type SecurityFeatureDetector interface {
	DetectSecurityFeatures(ctx context.Context, image []byte) (models.SecurityFeatures, error)
}

// TextExtractor reads the printed fields. The back of most IDs carries a
// subset of the fields, so the side is passed through.
type TextExtractor interface {
	ExtractFields(ctx context.Context, image []byte, side models.DocumentSide) (models.ExtractedFields, error)
}

type TamperingDetector interface {
	DetectTampering(ctx context.Context, image []byte) (models.TamperingSignals, error)
}

// Analyzers bundles the detectors a document analysis needs.
type Analyzers struct {
	Quality   QualityAnalyzer
	Type      TypeDetector
	Security  SecurityFeatureDetector
	Text      TextExtractor
	Tampering TamperingDetector
}
