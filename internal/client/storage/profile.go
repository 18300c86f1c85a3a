package storage

import (
	"context"

	"github.com/iudanet/editgrid/internal/models"
)

// ProfileStorage defines interface for the local user's presence identity,
// so the generated name and color survive restarts
type ProfileStorage interface {
	// SaveProfile stores the local user's name and color
	SaveProfile(ctx context.Context, profile models.UserState) error

	// GetProfile retrieves the saved profile
	// Returns ErrProfileNotFound if no profile was saved yet
	GetProfile(ctx context.Context) (*models.UserState, error)
}
