package boltdb

import (
	"bytes"
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/editgrid/internal/client/storage"
)

// localDocumentKey - ключ bbolt для документа локального режима
// (пустой ключ bbolt не принимает).
const localDocumentKey = "local"

func documentKey(key string) []byte {
	if key == "" {
		return []byte(localDocumentKey)
	}
	return []byte(key)
}

// SaveDocument stores the full encoded state under key
func (s *Storage) SaveDocument(ctx context.Context, key string, state []byte) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		if bucket == nil {
			return fmt.Errorf("documents bucket not found")
		}
		return bucket.Put(documentKey(key), state)
	})
	if err != nil {
		return fmt.Errorf("failed to save document %q: %w", key, err)
	}

	return nil
}

// LoadDocument retrieves the encoded state
func (s *Storage) LoadDocument(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var state []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		if bucket == nil {
			return storage.ErrDocumentNotFound
		}

		data := bucket.Get(documentKey(key))
		if data == nil {
			return storage.ErrDocumentNotFound
		}

		// Значение действительно только внутри транзакции
		state = bytes.Clone(data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

// DeleteDocument removes the stored state for key
func (s *Storage) DeleteDocument(ctx context.Context, key string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		if bucket == nil {
			return nil
		}
		return bucket.Delete(documentKey(key))
	})
}
