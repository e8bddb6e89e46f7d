package models

import (
	"time"

	"docverify/pkg/domain"
)

type OverallStatus string

const (
	OverallApproved     OverallStatus = "approved"
	OverallManualReview OverallStatus = "manual_review"
	OverallRejected     OverallStatus = "rejected"
)

// VerificationRecord is the append-only outcome of one submission.
type VerificationRecord struct {
	VerificationID      domain.VerificationID      `json:"verification_id"`
	ApplicationID       domain.ApplicationID       `json:"application_id"`
	AccountID           domain.AccountID           `json:"account_id"`
	SubmittedAt         time.Time                  `json:"submitted_at"`
	AttemptDir          string                     `json:"attempt_dir"`
	Files               map[Slot]StoredFile        `json:"files"`
	Front               DocumentVerificationResult `json:"front"`
	Back                DocumentVerificationResult `json:"back"`
	Face                FaceMatchResult            `json:"face"`
	OverallStatus       OverallStatus              `json:"overall_status"`
	OverallConfidence   float64                    `json:"overall_confidence"`
	DeletionScheduledAt time.Time                  `json:"deletion_scheduled_at"`
	Submitter           SubmitterMetadata          `json:"submitter"`
}

// Paths lists the stored file locations, in slot order.
func (r VerificationRecord) Paths() []string {
	paths := make([]string, 0, len(r.Files))
	for _, slot := range AllSlots {
		if f, ok := r.Files[slot]; ok {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// AccountVerificationStatus is the per-account projection of the latest
// resolved record. It is replaced wholesale, never patched.
type AccountVerificationStatus struct {
	AccountID              domain.AccountID      `json:"account_id"`
	IdentityVerified       bool                  `json:"identity_verified"`
	OverallStatus          OverallStatus         `json:"overall_status"`
	VerificationDate       time.Time             `json:"verification_date"`
	IDExpirationDate       *time.Time            `json:"id_expiration_date,omitempty"`
	NextRevalidationDate   *time.Time            `json:"next_revalidation_date,omitempty"`
	VerificationConfidence float64               `json:"verification_confidence"`
	VerificationID         domain.VerificationID `json:"verification_id"`
	FileHashes             map[Slot]FileRef      `json:"file_hashes"`
}

// DeletionSchedule records when a record's raw uploads must be purged.
type DeletionSchedule struct {
	VerificationID domain.VerificationID `json:"verification_id"`
	ApplicationID  domain.ApplicationID  `json:"application_id"`
	AccountID      domain.AccountID      `json:"account_id"`
	AttemptDir     string                `json:"attempt_dir"`
	Paths          []string              `json:"paths"`
	DeleteAfter    time.Time             `json:"delete_after"`
	PurgedAt       *time.Time            `json:"purged_at,omitempty"`
}

func (d DeletionSchedule) Due(now time.Time) bool {
	return d.PurgedAt == nil && !now.Before(d.DeleteAfter)
}
