package models

import (
	"time"

	"docverify/pkg/domain"
)

// Upload is one file as received, before validation.
type Upload struct {
	Slot        Slot
	FileName    string
	ContentType string
	Data        []byte
}

func (u Upload) Size() int64 { return int64(len(u.Data)) }

// SubmitterMetadata describes the end user who submitted the documents.
type SubmitterMetadata struct {
	IP             string    `json:"ip"`
	UserAgent      string    `json:"user_agent"`
	Browser        string    `json:"browser,omitempty"`
	BrowserVersion string    `json:"browser_version,omitempty"`
	OS             string    `json:"os,omitempty"`
	Mobile         bool      `json:"mobile"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// VerificationRequest is consumed once by the pipeline and never mutated.
type VerificationRequest struct {
	ApplicationID domain.ApplicationID
	AccountID     domain.AccountID
	Uploads       map[Slot]Upload
	Submitter     SubmitterMetadata
}

// Upload returns the upload for slot. An empty payload counts as absent.
func (r VerificationRequest) Upload(slot Slot) (Upload, bool) {
	u, ok := r.Uploads[slot]
	if !ok || len(u.Data) == 0 {
		return Upload{}, false
	}
	return u, true
}
