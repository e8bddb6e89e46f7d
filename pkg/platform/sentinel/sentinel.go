package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, lockers and remote
// clients return these (optionally wrapped) so services can translate them
// into domain errors.
//
// For validation errors (bad input, missing files), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrLockHeld    = errors.New("lock held")
)
