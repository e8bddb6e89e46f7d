package face

import (
	"context"

	"docverify/internal/verification/models"
)

type FaceDetector interface {
	DetectFaces(ctx context.Context, image []byte) (models.FaceDetection, error)
}

type FaceQualityAssessor interface {
	AssessFace(ctx context.Context, image []byte) (models.FaceQuality, error)
}

// LivenessDetector runs anti-spoofing analysis on the selfie.
type LivenessDetector interface {
	CheckLiveness(ctx context.Context, selfie []byte) (models.LivenessSignals, error)
}

// FaceComparer measures how similar the ID portrait is to the selfie.
type FaceComparer interface {
	CompareFaces(ctx context.Context, idImage, selfie []byte) (models.FaceComparisonCheck, error)
}

type AgeEstimator interface {
	EstimateAge(ctx context.Context, image []byte) (float64, error)
}

type Analyzers struct {
	Detector   FaceDetector
	Quality    FaceQualityAssessor
	Liveness   LivenessDetector
	Comparer   FaceComparer
	Age        AgeEstimator
}
