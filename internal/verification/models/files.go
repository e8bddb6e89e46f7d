package models

import "time"

const HashAlgorithmSHA256 = "sha256"

// StoredFile is a persisted upload. Re-hashing the bytes at Path reproduces
// SHA256Hash; the record that owns it never changes it.
type StoredFile struct {
	Slot         Slot      `json:"slot"`
	Path         string    `json:"path"`
	SHA256Hash   string    `json:"sha256_hash"`
	Algorithm    string    `json:"algorithm"`
	OriginalName string    `json:"original_name"`
	SizeBytes    int64     `json:"size_bytes"`
	SavedAt      time.Time `json:"saved_at"`
}

// Ref returns the projection-facing subset of the file.
func (f StoredFile) Ref() FileRef {
	return FileRef{Path: f.Path, SHA256Hash: f.SHA256Hash, Algorithm: f.Algorithm}
}

// FileRef is the hash reference copied into the account projection.
type FileRef struct {
	Path       string `json:"path"`
	SHA256Hash string `json:"sha256_hash"`
	Algorithm  string `json:"algorithm"`
}
