package storage

import (
	"context"
	"time"

	"github.com/iudanet/editgrid/internal/models"
)

//go:generate moq -out draftstorage_mock.go . DraftStorage

// DraftTTL - время жизни сохраненного черновика импорта.
const DraftTTL = 24 * time.Hour

// DraftStorage defines interface for the staged import draft.
// There is at most one draft, stored under a fixed key.
type DraftStorage interface {
	// SaveDraft stages an import result, replacing any previous draft
	SaveDraft(ctx context.Context, result models.ImportResult) error

	// GetDraft returns the staged draft
	// Returns ErrDraftNotFound if there is none or it is older than DraftTTL;
	// an expired draft is purged
	GetDraft(ctx context.Context) (*models.ImportResult, error)

	// DeleteDraft removes the staged draft; deleting a missing draft is not an error
	DeleteDraft(ctx context.Context) error
}
