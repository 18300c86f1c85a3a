// Package postgres хранит снимки комнат в PostgreSQL. Используется вместо
// SQLite, когда несколько экземпляров ретранслятора делят одну базу.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/iudanet/editgrid/internal/server/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage represents PostgreSQL snapshot storage implementation
type Storage struct {
	pool *pgxpool.Pool
}

var _ storage.SnapshotStorage = (*Storage)(nil)

// New подключается к базе по databaseURL и применяет миграции.
func New(ctx context.Context, databaseURL string) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the connection pool
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// runMigrations выполняет миграции из embedded FS через database/sql поверх пула
func (s *Storage) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	return nil
}

// SaveSnapshot creates or replaces the snapshot of a room
func (s *Storage) SaveSnapshot(ctx context.Context, snapshot *storage.RoomSnapshot) error {
	if snapshot.RoomID == "" {
		return storage.ErrInvalidRoomID
	}

	query := `
		INSERT INTO room_snapshots (room_id, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id) DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.pool.Exec(ctx, query, snapshot.RoomID, snapshot.State, snapshot.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the snapshot of a room
func (s *Storage) GetSnapshot(ctx context.Context, roomID string) (*storage.RoomSnapshot, error) {
	query := `SELECT room_id, state, updated_at FROM room_snapshots WHERE room_id = $1`

	var snapshot storage.RoomSnapshot
	err := s.pool.QueryRow(ctx, query, roomID).Scan(&snapshot.RoomID, &snapshot.State, &snapshot.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}

// DeleteSnapshot removes the snapshot of a room
func (s *Storage) DeleteSnapshot(ctx context.Context, roomID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM room_snapshots WHERE room_id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrSnapshotNotFound
	}
	return nil
}
