package face

import (
	"math"

	"docverify/internal/platform/config"
	"docverify/internal/verification/models"
)

// ScoreLiveness averages the anti-spoofing signals; the selfie passes when
// the mean reaches the calibrated pass score.
func ScoreLiveness(s models.LivenessSignals, cal config.FaceCalibration) models.LivenessCheck {
	score := (s.Texture + s.MicroExpression + s.Depth) / 3
	return models.LivenessCheck{
		LivenessSignals: s,
		LivenessScore:   score,
		Passed:          score >= cal.LivenessPassScore,
	}
}

func AgeConsistency(idAge, selfieAge float64, cal config.FaceCalibration) models.AgeConsistencyCheck {
	diff := math.Abs(idAge - selfieAge)
	return models.AgeConsistencyCheck{
		IDEstimatedAge:     idAge,
		SelfieEstimatedAge: selfieAge,
		Difference:         diff,
		ToleranceYears:     cal.AgeToleranceYears,
		Consistent:         diff <= cal.AgeToleranceYears,
	}
}

// Confidence is the similarity plus the liveness and age bonuses, capped at
// 100. Bonuses only apply to checks that ran and passed.
func Confidence(r models.FaceMatchResult, cal config.FaceCalibration) float64 {
	c := r.SimilarityScore
	if l, ok := r.Liveness.Payload.(models.LivenessCheck); ok && l.Passed {
		c += cal.LivenessBonus
	}
	if a, ok := r.AgeConsistency.Payload.(models.AgeConsistencyCheck); ok && a.Consistent {
		c += cal.AgeBonus
	}
	return min(c, 100)
}

func Classify(confidence, similarity float64, cal config.FaceCalibration) models.FaceStatus {
	switch {
	case confidence >= cal.MatchConfidence && similarity >= cal.MatchSimilarity:
		return models.FaceMatch
	case confidence >= cal.LikelyMatchConfidence && similarity >= cal.LikelyMatchSimilarity:
		return models.FaceLikelyMatch
	case confidence >= cal.ReviewConfidence:
		return models.FaceManualReview
	default:
		return models.FaceNoMatch
	}
}
