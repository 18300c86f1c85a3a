package storage

import (
	"context"
	"time"
)

// RoomSnapshot - сохраненное состояние реплики комнаты.
type RoomSnapshot struct {
	UpdatedAt time.Time
	RoomID    string
	// State - полное состояние документа в формате обновления crdt
	State []byte
}

// SnapshotStorage defines interface for room snapshot persistence
type SnapshotStorage interface {
	// SaveSnapshot creates or replaces the snapshot of a room
	SaveSnapshot(ctx context.Context, snapshot *RoomSnapshot) error

	// GetSnapshot retrieves the snapshot of a room
	// Returns ErrSnapshotNotFound if the room was never saved
	GetSnapshot(ctx context.Context, roomID string) (*RoomSnapshot, error)

	// DeleteSnapshot removes the snapshot of a room
	// Returns ErrSnapshotNotFound if the room was never saved
	DeleteSnapshot(ctx context.Context, roomID string) error

	// Close releases the underlying connection
	Close() error
}
