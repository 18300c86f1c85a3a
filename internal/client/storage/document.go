package storage

import "context"

// DocumentStorage defines interface for persisting encoded document state
// between runs of the client. The state is an update frame produced by
// crdt.Document.EncodeStateAsUpdate.
type DocumentStorage interface {
	// SaveDocument stores the full encoded state under key
	SaveDocument(ctx context.Context, key string, state []byte) error

	// LoadDocument retrieves the encoded state
	// Returns ErrDocumentNotFound if nothing is stored under key
	LoadDocument(ctx context.Context, key string) ([]byte, error)

	// DeleteDocument removes the stored state for key
	DeleteDocument(ctx context.Context, key string) error
}
