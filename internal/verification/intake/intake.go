// Package intake validates uploads before anything is stored or analyzed.
package intake

import (
	"bytes"
	"fmt"
	"slices"

	"docverify/internal/verification/models"
	dErrors "docverify/pkg/domain-errors"
)

// DefaultMaxFileBytes is the per-file size ceiling (10 MB).
const DefaultMaxFileBytes int64 = 10 * 1024 * 1024

// Code is the stable machine-readable reason an upload was rejected.
type Code string

const (
	CodeMissingFile       Code = "missing_file"
	CodeFileTooLarge      Code = "file_too_large"
	CodeUnsupportedType   Code = "unsupported_type"
	CodeSignatureMismatch Code = "signature_mismatch"
)

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
	mimePDF  = "application/pdf"
)

var magicNumbers = map[string][]byte{
	mimeJPEG: {0xFF, 0xD8, 0xFF},
	mimePNG:  {0x89, 0x50, 0x4E, 0x47},
	mimePDF:  {0x25, 0x50, 0x44, 0x46},
}

var (
	photoTypes    = []string{mimeJPEG, mimePNG}
	documentTypes = []string{mimeJPEG, mimePNG, mimePDF}
)

// Error describes the first failing slot. It is wrapped in a
// dErrors.CodeValidation error; use errors.As to recover it.
type Error struct {
	Code   Code
	Slot   models.Slot
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Code, e.Slot, e.Detail)
}

type Validator struct {
	maxFileBytes int64
}

// New returns a validator with the given per-file ceiling; zero or negative
// selects DefaultMaxFileBytes.
func New(maxFileBytes int64) *Validator {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &Validator{maxFileBytes: maxFileBytes}
}

// Validate checks every slot in order and returns the first failure.
func (v *Validator) Validate(req models.VerificationRequest) error {
	for _, slot := range models.AllSlots {
		upload, ok := req.Upload(slot)
		if !ok {
			if slot.IsRequired() {
				return v.fail(CodeMissingFile, slot, "is required")
			}
			continue
		}
		if err := v.validateUpload(slot, upload); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateUpload(slot models.Slot, upload models.Upload) error {
	if upload.Size() > v.maxFileBytes {
		return v.fail(CodeFileTooLarge, slot, fmt.Sprintf("exceeds %d bytes", v.maxFileBytes))
	}
	if !slices.Contains(allowedTypes(slot), upload.ContentType) {
		return v.fail(CodeUnsupportedType, slot, fmt.Sprintf("has unsupported type %q", upload.ContentType))
	}
	if !bytes.HasPrefix(upload.Data, magicNumbers[upload.ContentType]) {
		return v.fail(CodeSignatureMismatch, slot, fmt.Sprintf("content does not match %s", upload.ContentType))
	}
	return nil
}

func (v *Validator) fail(code Code, slot models.Slot, detail string) error {
	cause := &Error{Code: code, Slot: slot, Detail: detail}
	return dErrors.Wrap(cause, dErrors.CodeValidation, cause.Error())
}

func allowedTypes(slot models.Slot) []string {
	if slot == models.SlotAdditionalDoc {
		return documentTypes
	}
	return photoTypes
}

// Extension returns the file extension stored files get for a validated type.
func Extension(contentType string) string {
	switch contentType {
	case mimePNG:
		return "png"
	case mimePDF:
		return "pdf"
	default:
		return "jpg"
	}
}
