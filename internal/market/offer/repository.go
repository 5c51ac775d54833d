package offer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/models"
)

// Repository defines what the offer ledger needs from storage
type Repository interface {
	CreateOffer(ctx context.Context, offer *models.Offer) error
	GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error)

	// GetPendingOfferByListingAndTeam returns errs.ErrNotFound when the team
	// has no PENDING offer on the listing.
	GetPendingOfferByListingAndTeam(ctx context.Context, listingID, teamID uuid.UUID) (*models.Offer, error)

	// ListPendingOffersByListing returns PENDING offers, earliest first.
	ListPendingOffersByListing(ctx context.Context, listingID uuid.UUID) ([]models.Offer, error)

	// ListPendingOffersByTeam returns the team's PENDING offers across listings.
	ListPendingOffersByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Offer, error)

	CountPendingOffersByTeam(ctx context.Context, teamID uuid.UUID) (int, error)
	UpdateOfferState(ctx context.Context, id uuid.UUID, state models.OfferState, resolvedAt time.Time) error
	UpdateOfferReservation(ctx context.Context, id, reservationID uuid.UUID) error
}
