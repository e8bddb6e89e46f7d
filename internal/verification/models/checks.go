package models

import (
	"encoding/json"
	"fmt"
)

// CheckName identifies one analytical check. Each name has exactly one
// payload type.
type CheckName string

const (
	CheckQuality          CheckName = "quality"
	CheckDocumentType     CheckName = "document_type"
	CheckSecurityFeatures CheckName = "security_features"
	CheckDataValidation   CheckName = "data_validation"
	CheckTampering        CheckName = "tampering"
	CheckFaceDetection    CheckName = "face_detection"
	CheckFaceQuality      CheckName = "face_quality"
	CheckLiveness         CheckName = "liveness"
	CheckFaceComparison   CheckName = "face_comparison"
	CheckAgeConsistency   CheckName = "age_consistency"
)

// CheckPayload is the typed outcome of a check.
type CheckPayload interface {
	CheckName() CheckName
	// Score is the check's 0-100 summary score.
	Score() float64
}

// CheckResult wraps one check's payload. Exactly one of Payload or Err is
// set once the check has run; both empty means the check was not invoked.
type CheckResult struct {
	Name    CheckName
	Payload CheckPayload
	Issues  []string
	Err     string
}

func Succeeded(payload CheckPayload, issues ...string) CheckResult {
	return CheckResult{Name: payload.CheckName(), Payload: payload, Issues: issues}
}

func Failed(name CheckName, err error) CheckResult {
	return CheckResult{Name: name, Err: err.Error()}
}

func (c CheckResult) Failed() bool { return c.Err != "" }

func (c CheckResult) Ran() bool { return c.Payload != nil || c.Err != "" }

// Score returns the payload score, or 0 when the check failed or did not run.
func (c CheckResult) Score() float64 {
	if c.Payload == nil {
		return 0
	}
	return c.Payload.Score()
}

type checkResultJSON struct {
	Name    CheckName       `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Issues  []string        `json:"issues,omitempty"`
	Err     string          `json:"error,omitempty"`
}

func (c CheckResult) MarshalJSON() ([]byte, error) {
	out := checkResultJSON{Name: c.Name, Issues: c.Issues, Err: c.Err}
	if c.Payload != nil {
		raw, err := json.Marshal(c.Payload)
		if err != nil {
			return nil, err
		}
		out.Payload = raw
	}
	return json.Marshal(out)
}

func (c *CheckResult) UnmarshalJSON(data []byte) error {
	var in checkResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Name, c.Issues, c.Err, c.Payload = in.Name, in.Issues, in.Err, nil
	if len(in.Payload) == 0 || string(in.Payload) == "null" {
		return nil
	}
	payload, err := newPayload(in.Name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(in.Payload, payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", in.Name, err)
	}
	c.Payload = derefPayload(payload)
	return nil
}

func newPayload(name CheckName) (any, error) {
	switch name {
	case CheckQuality:
		return &QualityCheck{}, nil
	case CheckDocumentType:
		return &DocumentTypeCheck{}, nil
	case CheckSecurityFeatures:
		return &SecurityFeaturesCheck{}, nil
	case CheckDataValidation:
		return &DataValidationCheck{}, nil
	case CheckTampering:
		return &TamperingCheck{}, nil
	case CheckFaceDetection:
		return &FaceDetectionCheck{}, nil
	case CheckFaceQuality:
		return &FaceQualityCheck{}, nil
	case CheckLiveness:
		return &LivenessCheck{}, nil
	case CheckFaceComparison:
		return &FaceComparisonCheck{}, nil
	case CheckAgeConsistency:
		return &AgeConsistencyCheck{}, nil
	default:
		return nil, fmt.Errorf("unknown check %q", name)
	}
}

func derefPayload(p any) CheckPayload {
	switch v := p.(type) {
	case *QualityCheck:
		return *v
	case *DocumentTypeCheck:
		return *v
	case *SecurityFeaturesCheck:
		return *v
	case *DataValidationCheck:
		return *v
	case *TamperingCheck:
		return *v
	case *FaceDetectionCheck:
		return *v
	case *FaceQualityCheck:
		return *v
	case *LivenessCheck:
		return *v
	case *FaceComparisonCheck:
		return *v
	case *AgeConsistencyCheck:
		return *v
	}
	return nil
}

// -----------------------------------------------------------------------------
// Document payloads
// -----------------------------------------------------------------------------

// ImageQuality is the raw measurement a quality analyzer returns.
type ImageQuality struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Sharpness  float64 `json:"sharpness"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
}

type QualityCheck struct {
	ImageQuality
	ResolutionOK bool    `json:"resolution_ok"`
	OverallScore float64 `json:"overall_score"`
}

func (QualityCheck) CheckName() CheckName { return CheckQuality }
func (q QualityCheck) Score() float64     { return q.OverallScore }

type DocumentType string

const (
	DocumentIDCard          DocumentType = "id_card"
	DocumentPassport        DocumentType = "passport"
	DocumentDriverLicense   DocumentType = "driver_license"
	DocumentResidencePermit DocumentType = "residence_permit"
	DocumentUnknown         DocumentType = "unknown"
)

func (t DocumentType) Supported() bool {
	switch t {
	case DocumentIDCard, DocumentPassport, DocumentDriverLicense, DocumentResidencePermit:
		return true
	}
	return false
}

type DocumentTypeCheck struct {
	Type       DocumentType `json:"type"`
	Region     string       `json:"region,omitempty"`
	Confidence float64      `json:"confidence"`
}

func (DocumentTypeCheck) CheckName() CheckName { return CheckDocumentType }

// Score is the detection confidence; unsupported types score 0.
func (d DocumentTypeCheck) Score() float64 {
	if !d.Type.Supported() {
		return 0
	}
	return d.Confidence
}

type FeatureDetection struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
}

// Value is the feature's contribution: its confidence when detected.
func (f FeatureDetection) Value() float64 {
	if !f.Detected {
		return 0
	}
	return f.Confidence
}

// SecurityFeatures is the raw detector output.
type SecurityFeatures struct {
	Hologram   FeatureDetection `json:"hologram"`
	Watermark  FeatureDetection `json:"watermark"`
	Microprint FeatureDetection `json:"microprint"`
}

type SecurityFeaturesCheck struct {
	SecurityFeatures
	SecurityScore float64 `json:"security_score"`
}

func (SecurityFeaturesCheck) CheckName() CheckName { return CheckSecurityFeatures }
func (s SecurityFeaturesCheck) Score() float64     { return s.SecurityScore }

// ExtractedFields is the raw text pulled from a document image.
type ExtractedFields struct {
	FullName       string `json:"full_name,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	IDNumber       string `json:"id_number,omitempty"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	Address        string `json:"address,omitempty"`
}

type FieldValidation struct {
	NameValid       bool `json:"name_valid"`
	DateOfBirthOK   bool `json:"date_of_birth_valid"`
	IDNumberPresent bool `json:"id_number_present"`
	NotExpired      bool `json:"not_expired"`
	AdultAge        bool `json:"adult_age"`
}

// Passed counts the rules that hold.
func (v FieldValidation) Passed() int {
	n := 0
	for _, ok := range []bool{v.NameValid, v.DateOfBirthOK, v.IDNumberPresent, v.NotExpired, v.AdultAge} {
		if ok {
			n++
		}
	}
	return n
}

type DataValidationCheck struct {
	Fields       ExtractedFields `json:"fields"`
	Validation   FieldValidation `json:"validation"`
	OverallValid bool            `json:"overall_valid"`
}

func (DataValidationCheck) CheckName() CheckName { return CheckDataValidation }

// Score is the share of validation rules that passed, scaled to 0-100.
func (d DataValidationCheck) Score() float64 {
	return float64(d.Validation.Passed()) * 20
}

// TamperingSignals is the raw detector output; each score is 0-100 where
// higher means more likely tampered.
type TamperingSignals struct {
	CompressionArtifacts float64 `json:"compression_artifacts"`
	CopyMove             float64 `json:"copy_move"`
	Splicing             float64 `json:"splicing"`
}

type TamperingCheck struct {
	TamperingSignals
	TamperingProbability float64 `json:"tampering_probability"`
}

func (TamperingCheck) CheckName() CheckName { return CheckTampering }

// Score is the authenticity score, 100 minus the tampering probability.
func (t TamperingCheck) Score() float64 { return 100 - t.TamperingProbability }

// -----------------------------------------------------------------------------
// Face payloads
// -----------------------------------------------------------------------------

// FaceDetection is one image's detector output.
type FaceDetection struct {
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
}

type FaceDetectionCheck struct {
	ID     FaceDetection `json:"id"`
	Selfie FaceDetection `json:"selfie"`
}

func (FaceDetectionCheck) CheckName() CheckName { return CheckFaceDetection }

func (f FaceDetectionCheck) BothDetected() bool {
	return f.ID.Count > 0 && f.Selfie.Count > 0
}

// Score is the weaker of the two detection confidences.
func (f FaceDetectionCheck) Score() float64 {
	if !f.BothDetected() {
		return 0
	}
	return min(f.ID.Confidence, f.Selfie.Confidence)
}

type FaceQuality struct {
	Resolution float64 `json:"resolution"`
	Sharpness  float64 `json:"sharpness"`
	Lighting   float64 `json:"lighting"`
	PoseAngle  float64 `json:"pose_angle"`
	Occlusion  float64 `json:"occlusion"`
}

// Overall is the mean of the five sub-scores.
func (q FaceQuality) Overall() float64 {
	return (q.Resolution + q.Sharpness + q.Lighting + q.PoseAngle + q.Occlusion) / 5
}

type FaceQualityCheck struct {
	ID     FaceQuality `json:"id"`
	Selfie FaceQuality `json:"selfie"`
}

func (FaceQualityCheck) CheckName() CheckName { return CheckFaceQuality }
func (f FaceQualityCheck) Score() float64 {
	return (f.ID.Overall() + f.Selfie.Overall()) / 2
}

// LivenessSignals is the raw detector output for the selfie.
type LivenessSignals struct {
	Texture         float64 `json:"texture"`
	MicroExpression float64 `json:"micro_expression"`
	Depth           float64 `json:"depth"`
}

type LivenessCheck struct {
	LivenessSignals
	LivenessScore float64 `json:"liveness_score"`
	Passed        bool    `json:"passed"`
}

func (LivenessCheck) CheckName() CheckName { return CheckLiveness }
func (l LivenessCheck) Score() float64     { return l.LivenessScore }

type FaceComparisonCheck struct {
	Similarity  float64 `json:"similarity"`
	EyeDistance float64 `json:"eye_distance"`
	Nose        float64 `json:"nose"`
	Mouth       float64 `json:"mouth"`
	Contour     float64 `json:"contour"`
}

func (FaceComparisonCheck) CheckName() CheckName { return CheckFaceComparison }
func (f FaceComparisonCheck) Score() float64     { return f.Similarity }

type AgeConsistencyCheck struct {
	IDEstimatedAge     float64 `json:"id_estimated_age"`
	SelfieEstimatedAge float64 `json:"selfie_estimated_age"`
	Difference         float64 `json:"difference"`
	ToleranceYears     float64 `json:"tolerance_years"`
	Consistent         bool    `json:"consistent"`
}

func (AgeConsistencyCheck) CheckName() CheckName { return CheckAgeConsistency }

func (a AgeConsistencyCheck) Score() float64 {
	if a.Consistent {
		return 100
	}
	return 0
}
