package service

import "errors"

// Sentinel error kinds. Services wrap these with fmt.Errorf("%w: …") so
// handlers can map them to status codes with errors.Is while keeping the
// human-readable message intact.
var (
	// ErrConflict — e.g. opening a session while one is already open for the
	// facility, or starting a reconciliation pass that is already running.
	ErrConflict = errors.New("conflict")

	// ErrNotFound — the referenced session / facility does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState — operating on a closed session outside the backfill path.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation — non-positive amount, unknown method or kind.
	ErrValidation = errors.New("validation error")
)
