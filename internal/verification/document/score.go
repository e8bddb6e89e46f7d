package document

import (
	"regexp"
	"strings"
	"time"

	"docverify/internal/platform/config"
	"docverify/internal/verification/models"
)

var namePattern = regexp.MustCompile(`^[\p{L}][\p{L}'.-]*(?: [\p{L}][\p{L}'.-]*)+$`)

// DateLayouts are the date formats accepted for birth and expiration dates.
var DateLayouts = []string{"2006-01-02", "02/01/2006", "02.01.2006", "2 Jan 2006", "Jan 2, 2006"}

// ParseDate tries every accepted layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ScoreQuality combines the raw quality measurement into its summary score.
func ScoreQuality(q models.ImageQuality, cal config.DocumentCalibration) models.QualityCheck {
	resOK := q.Width >= cal.MinWidth && q.Height >= cal.MinHeight
	score := cal.SharpnessWeight*clamp(q.Sharpness) +
		cal.BrightnessWeight*clamp(q.Brightness) +
		cal.ContrastWeight*clamp(q.Contrast)
	if resOK {
		score += cal.ResolutionPoints
	}
	return models.QualityCheck{ImageQuality: q, ResolutionOK: resOK, OverallScore: clamp(score)}
}

// ScoreSecurity averages the three feature values.
func ScoreSecurity(f models.SecurityFeatures) models.SecurityFeaturesCheck {
	score := (f.Hologram.Value() + f.Watermark.Value() + f.Microprint.Value()) / 3
	return models.SecurityFeaturesCheck{SecurityFeatures: f, SecurityScore: clamp(score)}
}

// ScoreTampering averages the three heuristics into a probability.
func ScoreTampering(s models.TamperingSignals) models.TamperingCheck {
	p := (clamp(s.CompressionArtifacts) + clamp(s.CopyMove) + clamp(s.Splicing)) / 3
	return models.TamperingCheck{TamperingSignals: s, TamperingProbability: p}
}

// ValidateFields applies the five field rules as of now. The document is
// overall valid when at least RequiredValidFields rules hold.
func ValidateFields(f models.ExtractedFields, now time.Time, cal config.DocumentCalibration) models.DataValidationCheck {
	var v models.FieldValidation
	v.NameValid = namePattern.MatchString(strings.TrimSpace(f.FullName))
	v.IDNumberPresent = strings.TrimSpace(f.IDNumber) != ""

	if dob, ok := ParseDate(f.DateOfBirth); ok && dob.Before(now) {
		v.DateOfBirthOK = true
		v.AdultAge = AgeAt(dob, now) >= cal.MinimumAge
	}
	if exp, ok := ParseDate(f.ExpirationDate); ok {
		v.NotExpired = exp.After(now)
	}

	return models.DataValidationCheck{
		Fields:       f,
		Validation:   v,
		OverallValid: v.Passed() >= cal.RequiredValidFields,
	}
}

// AgeAt returns full years elapsed between dob and now.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func validationIssues(v models.FieldValidation) []string {
	var issues []string
	if !v.NameValid {
		issues = append(issues, "name format invalid")
	}
	if !v.DateOfBirthOK {
		issues = append(issues, "date of birth unreadable")
	}
	if !v.IDNumberPresent {
		issues = append(issues, "id number missing")
	}
	if !v.NotExpired {
		issues = append(issues, "document expired")
	}
	if !v.AdultAge {
		issues = append(issues, "holder under minimum age")
	}
	return issues
}

// Aggregate computes the weighted confidence of the five checks. Failed or
// unrun checks contribute zero.
func Aggregate(r models.DocumentVerificationResult, cal config.DocumentCalibration) float64 {
	validation := 0.0
	if dv, ok := r.DataValidation.Payload.(models.DataValidationCheck); ok {
		validation = cal.ValidationFailScore
		if dv.OverallValid {
			validation = cal.ValidationPassScore
		}
	}
	score := cal.QualityWeight*r.Quality.Score() +
		cal.TypeWeight*r.DocumentType.Score() +
		cal.SecurityWeight*r.SecurityFeatures.Score() +
		cal.ValidationWeight*validation +
		cal.TamperingWeight*r.Tampering.Score()
	return clamp(score)
}

// Classify maps a confidence onto a status.
func Classify(confidence float64, cal config.DocumentCalibration) models.DocumentStatus {
	switch {
	case confidence >= cal.VerifiedThreshold:
		return models.DocumentVerified
	case confidence >= cal.ReviewThreshold:
		return models.DocumentManualReview
	default:
		return models.DocumentRejected
	}
}

func clamp(v float64) float64 {
	return max(0, min(100, v))
}
