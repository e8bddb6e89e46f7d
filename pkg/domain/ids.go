package domain

import (
	"crypto/rand"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "docverify/pkg/domain-errors"
)

// AccountID identifies the account that owns verification attempts.
type AccountID uuid.UUID

// ParseAccountID parses a non-nil UUID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account_id")
	return AccountID(u), err
}

func (id AccountID) String() string { return uuid.UUID(id).String() }

func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AccountID) UnmarshalText(data []byte) error {
	u, err := uuid.ParseBytes(data)
	if err != nil {
		return err
	}
	*id = AccountID(u)
	return nil
}

// IsNil reports whether the id is the zero UUID.
func (id AccountID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ApplicationID identifies the application a verification attempt belongs to.
// It becomes part of a storage directory name, so the alphabet is restricted.
type ApplicationID string

const maxApplicationIDLength = 64

var applicationIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ParseApplicationID validates an application identifier from external input.
func ParseApplicationID(s string) (ApplicationID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "application_id is required")
	}
	if len(s) > maxApplicationIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "application_id must be at most 64 characters")
	}
	if !applicationIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "application_id contains invalid characters")
	}
	return ApplicationID(s), nil
}

func (id ApplicationID) String() string { return string(id) }

// VerificationID is "VER-" followed by 8 uppercase alphanumerics.
type VerificationID string

const (
	verificationIDPrefix   = "VER-"
	verificationIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	verificationIDLength   = 8
)

var verificationIDPattern = regexp.MustCompile(`^VER-[A-Z0-9]{8}$`)

// NewVerificationID draws a fresh identifier from crypto/rand.
func NewVerificationID() VerificationID {
	// crypto/rand.Reader never returns an error on supported platforms.
	id, _ := verificationIDFrom(rand.Reader)
	return id
}

// verificationIDFrom maps random bytes onto the alphabet, skipping bytes at
// or above the largest multiple of its length so every symbol is equally
// likely.
func verificationIDFrom(r io.Reader) (VerificationID, error) {
	limit := 256 - 256%len(verificationIDAlphabet)
	out := make([]byte, 0, verificationIDLength)
	buf := make([]byte, verificationIDLength)
	for len(out) < verificationIDLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, verificationIDAlphabet[int(b)%len(verificationIDAlphabet)])
			if len(out) == verificationIDLength {
				break
			}
		}
	}
	return VerificationID(verificationIDPrefix + string(out)), nil
}

// ParseVerificationID validates the VER-XXXXXXXX format.
func ParseVerificationID(s string) (VerificationID, error) {
	if !verificationIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid verification_id")
	}
	return VerificationID(s), nil
}

func (id VerificationID) String() string { return string(id) }

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}
