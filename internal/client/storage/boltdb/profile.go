package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/editgrid/internal/client/storage"
	"github.com/iudanet/editgrid/internal/models"
)

const keyProfile = "profile"

// SaveProfile stores the local user's name and color
func (s *Storage) SaveProfile(ctx context.Context, profile models.UserState) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	// Выделение ячейки эфемерно и не сохраняется
	profile.SelectedCell = nil
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		if err := bucket.Put([]byte(keyProfile), data); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}

		return nil
	})
}

// GetProfile retrieves the saved profile
func (s *Storage) GetProfile(ctx context.Context) (*models.UserState, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var profile *models.UserState

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		data := bucket.Get([]byte(keyProfile))
		if data == nil {
			return storage.ErrProfileNotFound
		}

		profile = &models.UserState{}
		if err := json.Unmarshal(data, profile); err != nil {
			return fmt.Errorf("failed to unmarshal profile: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}
