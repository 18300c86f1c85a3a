package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/editgrid/internal/client/storage"
	"github.com/iudanet/editgrid/internal/models"
)

const keyDraft = "pending-import-draft"

// draftRecord - черновик вместе со временем сохранения.
type draftRecord struct {
	Result  models.ImportResult `json:"result"`
	SavedAt int64               `json:"saved_at"` // Unix milliseconds
}

// SaveDraft stages an import result, replacing any previous draft
func (s *Storage) SaveDraft(ctx context.Context, result models.ImportResult) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(draftRecord{Result: result, SavedAt: s.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDrafts)
		if bucket == nil {
			return fmt.Errorf("drafts bucket not found")
		}
		return bucket.Put([]byte(keyDraft), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	return nil
}

// GetDraft returns the staged draft. A draft older than storage.DraftTTL is
// deleted and reported as storage.ErrDraftNotFound.
func (s *Storage) GetDraft(ctx context.Context) (*models.ImportResult, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var (
		result  *models.ImportResult
		expired bool
	)

	// Update с ошибкой откатывается: удаление просроченного черновика
	// должно завершиться nil
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDrafts)
		if bucket == nil {
			return storage.ErrDraftNotFound
		}

		data := bucket.Get([]byte(keyDraft))
		if data == nil {
			return storage.ErrDraftNotFound
		}

		var record draftRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("failed to unmarshal draft: %w", err)
		}

		// Просроченный черновик удаляем и считаем отсутствующим
		if s.now().Sub(time.UnixMilli(record.SavedAt)) > storage.DraftTTL {
			if err := bucket.Delete([]byte(keyDraft)); err != nil {
				return fmt.Errorf("failed to purge expired draft: %w", err)
			}
			expired = true
			return nil
		}

		result = &record.Result
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, storage.ErrDraftNotFound
	}

	return result, nil
}

// DeleteDraft removes the staged draft
func (s *Storage) DeleteDraft(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDrafts)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(keyDraft))
	})
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	return nil
}
