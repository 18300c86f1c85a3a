package storage

import "errors"

// Common storage errors
var (
	// ErrSnapshotNotFound indicates that room has no saved snapshot
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidRoomID indicates that room id is empty
	ErrInvalidRoomID = errors.New("invalid room id")
)
