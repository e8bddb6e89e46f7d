// Package files stores uploaded images. Every attempt gets its own directory
// named after the application and submission time; files inside carry the
// slot name and a random token so original names never reach storage.
package files

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"time"

	"docverify/internal/verification/models"
	"docverify/pkg/domain"
)

const attemptTimeLayout = "20060102_150405"

// AttemptDir returns the directory key for one submission.
func AttemptDir(appID domain.ApplicationID, submittedAt time.Time) string {
	return fmt.Sprintf("%s_%s", appID, submittedAt.UTC().Format(attemptTimeLayout))
}

// FilePath returns the key for a slot's file inside dir.
func FilePath(dir string, slot models.Slot, token, ext string) string {
	return path.Join(dir, fmt.Sprintf("%s_%s.%s", slot, token, ext))
}

// NewToken returns 16 random hex characters.
func NewToken() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate file token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
