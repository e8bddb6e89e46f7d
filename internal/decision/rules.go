package decision

import (
	"github.com/shopspring/decimal"

	"docverify/internal/verification/models"
)

// Face confidence counts twice as much as either document side.
const (
	documentWeight   = 1
	faceWeight       = 2
	confidencePlaces = 3
)

// Decide combines the three independent results into an overall status.
// This is pure domain logic - no I/O, no side effects.
//
// Rule priority:
//  1. Approve only when both sides are verified and the face matches
//  2. Reject when either side is rejected or the face does not match
//  3. Everything else, including errors and pending checks, goes to review
func Decide(front, back models.DocumentVerificationResult, face models.FaceMatchResult) models.OverallStatus {
	if front.Status == models.DocumentVerified &&
		back.Status == models.DocumentVerified &&
		face.Status == models.FaceMatch {
		return models.OverallApproved
	}
	if front.Status == models.DocumentRejected ||
		back.Status == models.DocumentRejected ||
		face.Status == models.FaceNoMatch {
		return models.OverallRejected
	}
	return models.OverallManualReview
}

// OverallConfidence is the weighted mean of the three confidences, rounded
// to three decimal places.
func OverallConfidence(front, back models.DocumentVerificationResult, face models.FaceMatchResult) float64 {
	sum := decimal.NewFromFloat(front.Confidence).Mul(decimal.NewFromInt(documentWeight)).
		Add(decimal.NewFromFloat(back.Confidence).Mul(decimal.NewFromInt(documentWeight))).
		Add(decimal.NewFromFloat(face.Confidence).Mul(decimal.NewFromInt(faceWeight)))
	total := decimal.NewFromInt(2*documentWeight + faceWeight)
	return sum.Div(total).Round(confidencePlaces).InexactFloat64()
}
