// Package face compares the portrait on the ID with the submitted selfie.
// Detection runs first as a gate; the remaining checks run concurrently.
package face

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"docverify/internal/platform/config"
	"docverify/internal/verification/checkrun"
	"docverify/internal/verification/models"
	"docverify/pkg/platform/strings"
	"docverify/pkg/requestcontext"
)

type Matcher struct {
	analyzers Analyzers
	runner    *checkrun.Runner
	cal       config.FaceCalibration
	logger    *slog.Logger
}

type Option func(*Matcher)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) { m.logger = logger }
}

func New(analyzers Analyzers, runner *checkrun.Runner, cal config.FaceCalibration, opts ...Option) *Matcher {
	m := &Matcher{
		analyzers: analyzers,
		runner:    runner,
		cal:       cal,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match compares idImage with selfie. When either image has no detectable
// face the result is FaceNoFaceDetected and no further check is invoked.
func (m *Matcher) Match(ctx context.Context, idImage, selfie []byte) models.FaceMatchResult {
	ctx, span := m.runner.Tracer().Start(ctx, "face.match")
	defer span.End()

	start := time.Now()
	result := models.FaceMatchResult{Status: models.FacePending}

	result.Detection = m.runner.Run(ctx, models.CheckFaceDetection, func(ctx context.Context) (models.CheckPayload, []string, error) {
		var check models.FaceDetectionCheck
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			check.ID, err = m.analyzers.Detector.DetectFaces(gctx, idImage)
			return err
		})
		g.Go(func() (err error) {
			check.Selfie, err = m.analyzers.Detector.DetectFaces(gctx, selfie)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
		var issues []string
		if check.ID.Count == 0 {
			issues = append(issues, "no face detected on id document")
		}
		if check.Selfie.Count == 0 {
			issues = append(issues, "no face detected on selfie")
		}
		if check.Selfie.Count > 1 {
			issues = append(issues, "multiple faces detected on selfie")
		}
		return check, issues, nil
	})

	switch {
	case result.Detection.Failed():
		m.finish(ctx, &result, models.FaceError, start)
		return result
	case !result.Detection.Payload.(models.FaceDetectionCheck).BothDetected():
		m.finish(ctx, &result, models.FaceNoFaceDetected, start)
		return result
	}

	g, gctx := errgroup.WithContext(ctx)
	m.runner.Go(gctx, g, models.CheckFaceQuality, &result.Quality, func(ctx context.Context) (models.CheckPayload, []string, error) {
		var check models.FaceQualityCheck
		var err error
		if check.ID, err = m.analyzers.Quality.AssessFace(ctx, idImage); err != nil {
			return nil, nil, err
		}
		if check.Selfie, err = m.analyzers.Quality.AssessFace(ctx, selfie); err != nil {
			return nil, nil, err
		}
		var issues []string
		if check.Selfie.Overall() < 50 {
			issues = append(issues, "selfie quality is poor")
		}
		return check, issues, nil
	})
	m.runner.Go(gctx, g, models.CheckLiveness, &result.Liveness, func(ctx context.Context) (models.CheckPayload, []string, error) {
		signals, err := m.analyzers.Liveness.CheckLiveness(ctx, selfie)
		if err != nil {
			return nil, nil, err
		}
		check := ScoreLiveness(signals, m.cal)
		var issues []string
		if !check.Passed {
			issues = append(issues, "liveness check failed")
		}
		return check, issues, nil
	})
	m.runner.Go(gctx, g, models.CheckFaceComparison, &result.Comparison, func(ctx context.Context) (models.CheckPayload, []string, error) {
		check, err := m.analyzers.Comparer.CompareFaces(ctx, idImage, selfie)
		if err != nil {
			return nil, nil, err
		}
		return check, nil, nil
	})
	m.runner.Go(gctx, g, models.CheckAgeConsistency, &result.AgeConsistency, func(ctx context.Context) (models.CheckPayload, []string, error) {
		idAge, err := m.analyzers.Age.EstimateAge(ctx, idImage)
		if err != nil {
			return nil, nil, err
		}
		selfieAge, err := m.analyzers.Age.EstimateAge(ctx, selfie)
		if err != nil {
			return nil, nil, err
		}
		check := AgeConsistency(idAge, selfieAge, m.cal)
		var issues []string
		if !check.Consistent {
			issues = append(issues, "estimated ages are inconsistent")
		}
		return check, issues, nil
	})
	_ = g.Wait()

	result.SimilarityScore = result.Comparison.Score()
	result.Confidence = Confidence(result, m.cal)

	status := Classify(result.Confidence, result.SimilarityScore, m.cal)
	for _, c := range result.Checks() {
		if c.Failed() {
			status = models.FaceError
		}
	}
	m.finish(ctx, &result, status, start)
	return result
}

func (m *Matcher) finish(ctx context.Context, result *models.FaceMatchResult, status models.FaceStatus, start time.Time) {
	var issues [][]string
	for _, c := range result.Checks() {
		issues = append(issues, c.Issues)
		if c.Failed() {
			issues = append(issues, []string{string(c.Name) + ": " + c.Err})
		}
	}
	result.Issues = strings.MergeIssues(issues...)
	result.Status = status

	m.logger.InfoContext(ctx, "face match completed",
		"request_id", requestcontext.RequestID(ctx),
		"status", result.Status,
		"similarity", result.SimilarityScore,
		"confidence", result.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
