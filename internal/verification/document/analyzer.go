// Package document scores one side of an identity document. The five checks
// run concurrently on the shared check runner and are combined into a
// weighted confidence.
package document

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

type Analyzer struct {
	analyzers Analyzers
	runner    *checkrun.Runner
	cal       config.DocumentCalibration
	logger    *slog.Logger
}

type Option func(*Analyzer)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

func New(analyzers Analyzers, runner *checkrun.Runner, cal config.DocumentCalibration, opts ...Option) *Analyzer {
	a := &Analyzer{
		analyzers: analyzers,
		runner:    runner,
		cal:       cal,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs every document check against image. It never returns an
// error: check failures are recorded on the result, which is then marked
// DocumentError.
func (a *Analyzer) Analyze(ctx context.Context, side models.DocumentSide, image []byte) models.DocumentVerificationResult {
	ctx, span := a.runner.Tracer().Start(ctx, "document.analyze")
	defer span.End()

	start := time.Now()
	now := requestcontext.Now(ctx)
	result := models.DocumentVerificationResult{Side: side, Status: models.DocumentPending}

	g, gctx := errgroup.WithContext(ctx)
	a.runner.Go(gctx, g, models.CheckQuality, &result.Quality, func(ctx context.Context) (models.CheckPayload, []string, error) {
		q, err := a.analyzers.Quality.AssessQuality(ctx, image)
		if err != nil {
			return nil, nil, err
		}
		check := ScoreQuality(q, a.cal)
		var issues []string
		if !check.ResolutionOK {
			issues = append(issues, "resolution below minimum")
		}
		return check, issues, nil
	})
	a.runner.Go(gctx, g, models.CheckDocumentType, &result.DocumentType, func(ctx context.Context) (models.CheckPayload, []string, error) {
		check, err := a.analyzers.Type.DetectType(ctx, image)
		if err != nil {
			return nil, nil, err
		}
		var issues []string
		if !check.Type.Supported() {
			issues = append(issues, "unsupported document type")
		}
		return check, issues, nil
	})
	a.runner.Go(gctx, g, models.CheckSecurityFeatures, &result.SecurityFeatures, func(ctx context.Context) (models.CheckPayload, []string, error) {
		f, err := a.analyzers.Security.DetectSecurityFeatures(ctx, image)
		if err != nil {
			return nil, nil, err
		}
		var issues []string
		if !f.Hologram.Detected {
			issues = append(issues, "hologram not detected")
		}
		return ScoreSecurity(f), issues, nil
	})
	a.runner.Go(gctx, g, models.CheckDataValidation, &result.DataValidation, func(ctx context.Context) (models.CheckPayload, []string, error) {
		fields, err := a.analyzers.Text.ExtractFields(ctx, image, side)
		if err != nil {
			return nil, nil, err
		}
		check := ValidateFields(fields, now, a.cal)
		return check, validationIssues(check.Validation), nil
	})
	a.runner.Go(gctx, g, models.CheckTampering, &result.Tampering, func(ctx context.Context) (models.CheckPayload, []string, error) {
		s, err := a.analyzers.Tampering.DetectTampering(ctx, image)
		if err != nil {
			return nil, nil, err
		}
		check := ScoreTampering(s)
		var issues []string
		if check.TamperingProbability >= 50 {
			issues = append(issues, "possible tampering detected")
		}
		return check, issues, nil
	})
	_ = g.Wait()

	a.finalize(&result)

	a.logger.InfoContext(ctx, "document analyzed",
		"request_id", requestcontext.RequestID(ctx),
		"side", side,
		"status", result.Status,
		"confidence", result.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

func (a *Analyzer) finalize(result *models.DocumentVerificationResult) {
	var issues [][]string
	failed := false
	for _, c := range result.Checks() {
		issues = append(issues, c.Issues)
		if c.Failed() {
			failed = true
			issues = append(issues, []string{string(c.Name) + ": " + c.Err})
		}
	}
	if dv, ok := result.DataValidation.Payload.(models.DataValidationCheck); ok {
		result.ExtractedFields = dv.Fields
	}

	result.Confidence = Aggregate(*result, a.cal)
	result.Issues = strings.MergeIssues(issues...)
	if failed {
		result.Status = models.DocumentError
		return
	}
	result.Status = Classify(result.Confidence, a.cal)
}
