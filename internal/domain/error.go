package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrLockNotAcquired    = errors.New("could not acquire ticket lock")

	// Capture / scanning
	ErrCaptureDenied      = errors.New("camera access denied")
	ErrCaptureUnavailable = errors.New("camera unavailable")
	ErrNoFrame            = errors.New("no frame available yet")
	ErrNoPayload          = errors.New("no qr payload in frame")
	ErrScanInProgress     = errors.New("scan already in progress")
	ErrSessionNotFound    = errors.New("scan session not found")
	ErrTooManySessions    = errors.New("too many active scan sessions")
)
