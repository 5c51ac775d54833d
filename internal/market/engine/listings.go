package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/market/events"
	"github.com/mcdev12/transfermarket/internal/models"
	"github.com/rs/zerolog/log"
)

// CreateAuctionListing lists an unowned player for auction. Creation
// serializes per player so two concurrent creates cannot both pass the
// single-active-listing check.
func (a *App) CreateAuctionListing(ctx context.Context, playerID uuid.UUID) (*models.Listing, error) {
	a.playerLocks.Lock(playerID)
	defer a.playerLocks.Unlock(playerID)

	player, err := a.registry.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return a.listings.CreateAuction(ctx, player)
}

// CreateDirectSaleListing lists an owned player for sale by its owner.
func (a *App) CreateDirectSaleListing(ctx context.Context, playerID, sellerID uuid.UUID, asking int64) (*models.Listing, error) {
	a.playerLocks.Lock(playerID)
	defer a.playerLocks.Unlock(playerID)

	player, err := a.registry.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return a.listings.CreateDirectSale(ctx, player, sellerID, asking)
}

// CancelListing withdraws a direct-sale listing. Only the seller may cancel,
// and only while no offer has been accepted. Every pending offer expires and
// its escrow is released.
func (a *App) CancelListing(ctx context.Context, listingID, teamID uuid.UUID) error {
	a.listingLocks.Lock(listingID)
	defer a.listingLocks.Unlock(listingID)

	l, err := a.listings.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if l.Kind != models.ListingKindDirectSale {
		return errs.Validation("listing", "only direct-sale listings can be cancelled by their seller")
	}
	if !l.SoldBy(teamID) {
		return errs.Validation("team", "only the seller may cancel a listing")
	}
	if l.Terminal() {
		return fmt.Errorf("listing %s is %s: %w", listingID, l.State, errs.ErrStateConflict)
	}

	closed, err := a.expirePendingOffers(ctx, l, uuid.Nil)
	if err != nil {
		return err
	}
	if err := a.listings.Transition(ctx, listingID, models.ListingStateCancelled); err != nil {
		return err
	}

	payload, err := marshalPayload(events.ListingCancelledPayload{
		ListingID:    l.ID.String(),
		PlayerID:     l.PlayerID.String(),
		SellerID:     teamID.String(),
		OffersClosed: len(closed),
		CancelledAt:  a.clock.Now(),
	})
	if err != nil {
		return err
	}
	if err := a.outbox.InsertListingCancelled(ctx, l.ID, payload); err != nil {
		log.Error().Err(err).Str("listing_id", listingID.String()).Msg("failed to emit ListingCancelled event")
	}
	a.emitOfferExpired(ctx, l, closed)

	log.Info().
		Str("listing_id", listingID.String()).
		Str("seller_id", teamID.String()).
		Int("offers_closed", len(closed)).
		Msg("cancelled listing")
	return nil
}

// TeamCommitments is a read model of a team's open market positions,
// rebuilt from the ledgers of record on every call.
type TeamCommitments struct {
	Bids   []models.Bid   `json:"bids"`
	Offers []models.Offer `json:"offers"`
}

func (a *App) ListTeamCommitments(ctx context.Context, teamID uuid.UUID) (*TeamCommitments, error) {
	bids, err := a.bids.ListActiveByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	offers, err := a.offers.ListPendingByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return &TeamCommitments{Bids: bids, Offers: offers}, nil
}
