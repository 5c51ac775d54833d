package bid

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/models"
)

// Repository defines what the bid ledger needs from storage
type Repository interface {
	CreateBid(ctx context.Context, bid *models.Bid) error
	GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error)

	// GetActiveBidByListingAndTeam returns errs.ErrNotFound when the team has
	// no ACTIVE bid on the listing.
	GetActiveBidByListingAndTeam(ctx context.Context, listingID, teamID uuid.UUID) (*models.Bid, error)

	// ListActiveBidsByListing returns ACTIVE bids ordered highest amount
	// first, earliest placed first on ties. The head of the slice is the
	// current winner under the tie-break rule.
	ListActiveBidsByListing(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error)

	// ListActiveBidsByTeam returns the team's ACTIVE bids across listings.
	ListActiveBidsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Bid, error)

	CountActiveBidsByTeam(ctx context.Context, teamID uuid.UUID) (int, error)
	UpdateBidState(ctx context.Context, id uuid.UUID, state models.BidState, resolvedAt time.Time) error
	UpdateBidReservation(ctx context.Context, id, reservationID uuid.UUID) error
}
