package models

type DocumentStatus string

const (
	DocumentPending      DocumentStatus = "pending"
	DocumentVerified     DocumentStatus = "verified"
	DocumentManualReview DocumentStatus = "manual_review"
	DocumentRejected     DocumentStatus = "rejected"
	DocumentError        DocumentStatus = "error"
)

// DocumentVerificationResult is the analysis of one side of the ID.
type DocumentVerificationResult struct {
	Side             DocumentSide    `json:"side"`
	Quality          CheckResult     `json:"quality"`
	DocumentType     CheckResult     `json:"document_type"`
	SecurityFeatures CheckResult     `json:"security_features"`
	DataValidation   CheckResult     `json:"data_validation"`
	Tampering        CheckResult     `json:"tampering"`
	Confidence       float64         `json:"confidence"`
	Status           DocumentStatus  `json:"status"`
	ExtractedFields  ExtractedFields `json:"extracted_fields"`
	Issues           []string        `json:"issues"`
}

// Checks returns the five checks in evaluation order.
func (r DocumentVerificationResult) Checks() []CheckResult {
	return []CheckResult{r.Quality, r.DocumentType, r.SecurityFeatures, r.DataValidation, r.Tampering}
}

type FaceStatus string

const (
	FacePending        FaceStatus = "pending"
	FaceNoFaceDetected FaceStatus = "no_face_detected"
	FaceMatch          FaceStatus = "match"
	FaceLikelyMatch    FaceStatus = "likely_match"
	FaceManualReview   FaceStatus = "manual_review"
	FaceNoMatch        FaceStatus = "no_match"
	FaceError          FaceStatus = "error"
)

// FaceMatchResult compares the ID portrait with the selfie. When detection
// finds no face, the later checks are left unrun.
type FaceMatchResult struct {
	Detection       CheckResult `json:"detection"`
	Quality         CheckResult `json:"quality"`
	Liveness        CheckResult `json:"liveness"`
	Comparison      CheckResult `json:"comparison"`
	AgeConsistency  CheckResult `json:"age_consistency"`
	SimilarityScore float64     `json:"similarity_score"`
	Confidence      float64     `json:"confidence"`
	Status          FaceStatus  `json:"status"`
	Issues          []string    `json:"issues"`
}

func (r FaceMatchResult) Checks() []CheckResult {
	return []CheckResult{r.Detection, r.Quality, r.Liveness, r.Comparison, r.AgeConsistency}
}
