package storage

import "errors"

// Common client storage errors
var (
	// ErrDraftNotFound indicates that no staged draft exists (or it expired)
	ErrDraftNotFound = errors.New("draft not found")

	// ErrProfileNotFound indicates that no local user profile was saved yet
	ErrProfileNotFound = errors.New("profile not found")

	// ErrDocumentNotFound indicates that no persisted document state exists for the key
	ErrDocumentNotFound = errors.New("document not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
