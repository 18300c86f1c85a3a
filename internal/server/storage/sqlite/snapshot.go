package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/editgrid/internal/server/storage"
)

// SaveSnapshot creates or replaces the snapshot of a room
func (s *Storage) SaveSnapshot(ctx context.Context, snapshot *storage.RoomSnapshot) error {
	if snapshot.RoomID == "" {
		return storage.ErrInvalidRoomID
	}

	query := `
		INSERT INTO room_snapshots (room_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		snapshot.RoomID,
		snapshot.State,
		snapshot.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// GetSnapshot retrieves the snapshot of a room
func (s *Storage) GetSnapshot(ctx context.Context, roomID string) (*storage.RoomSnapshot, error) {
	query := `SELECT room_id, state, updated_at FROM room_snapshots WHERE room_id = ?`

	var (
		snapshot  storage.RoomSnapshot
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, roomID).Scan(&snapshot.RoomID, &snapshot.State, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	snapshot.UpdatedAt = time.Unix(updatedAt, 0)
	return &snapshot, nil
}

// DeleteSnapshot removes the snapshot of a room
func (s *Storage) DeleteSnapshot(ctx context.Context, roomID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM room_snapshots WHERE room_id = ?`, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return storage.ErrSnapshotNotFound
	}

	return nil
}
