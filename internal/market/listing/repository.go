package listing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/models"
)

// Repository defines what the listing app needs from storage
type Repository interface {
	CreateListing(ctx context.Context, listing *models.Listing) error
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)

	// GetActiveListingByPlayer returns errs.ErrNotFound when the player has
	// no ACTIVE listing.
	GetActiveListingByPlayer(ctx context.Context, playerID uuid.UUID) (*models.Listing, error)

	UpdateListingState(ctx context.Context, id uuid.UUID, state models.ListingState, resolvedAt time.Time) error

	// ListExpiredActiveListings returns ACTIVE listings whose expiry is at or
	// before asOf, oldest expiry first.
	ListExpiredActiveListings(ctx context.Context, asOf time.Time, limit int32) ([]models.Listing, error)
}
