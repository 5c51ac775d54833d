package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/market/events"
	"github.com/mcdev12/transfermarket/internal/models"
	"github.com/rs/zerolog/log"
)

// ExpiredListings returns ACTIVE listings whose window has closed, oldest
// expiry first. The settlement scheduler feeds these to SettleListing.
func (a *App) ExpiredListings(ctx context.Context, asOf time.Time, limit int32) ([]models.Listing, error) {
	return a.listings.ListExpiredActiveListings(ctx, asOf, limit)
}

// SettleListing resolves a listing whose window has closed. Settling a
// terminal or not-yet-expired listing is a no-op, so the scheduler can retry
// freely; each step inside the cascade is itself retry-safe, so a crash
// partway leaves a state the next run finishes from.
func (a *App) SettleListing(ctx context.Context, listingID uuid.UUID) error {
	a.listingLocks.Lock(listingID)
	defer a.listingLocks.Unlock(listingID)

	l, err := a.listings.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if l.Terminal() {
		return nil
	}
	if a.clock.Now().Before(l.ExpiresAt) {
		return nil
	}

	switch l.Kind {
	case models.ListingKindAuction:
		return a.settleAuction(ctx, l)
	case models.ListingKindDirectSale:
		return a.settleDirectSale(ctx, l)
	default:
		return fmt.Errorf("unknown listing kind %q", l.Kind)
	}
}

// settleAuction awards the player to the highest active bid, or closes and
// relists when no bids arrived. Ties on amount go to the earliest bid, which
// is the order the bid ledger returns.
func (a *App) settleAuction(ctx context.Context, l *models.Listing) error {
	bids, err := a.bids.ListActiveBids(ctx, l.ID)
	if err != nil {
		return err
	}
	if len(bids) == 0 {
		return a.closeUnsold(ctx, l, true, 0)
	}

	winner := bids[0]
	if err := a.wallet.Settle(ctx, winner.ReservationID, l.SellerID); err != nil {
		return err
	}
	buyer := winner.TeamID
	if err := a.registry.TransferOwnership(ctx, l.PlayerID, &buyer); err != nil {
		return err
	}
	if err := a.bids.Transition(ctx, winner.ID, models.BidStateWon); err != nil {
		return err
	}
	for _, b := range bids[1:] {
		if err := a.bids.Transition(ctx, b.ID, models.BidStateLost); err != nil {
			return err
		}
		if err := a.wallet.Release(ctx, b.ReservationID); err != nil {
			return err
		}
	}
	if err := a.listings.Transition(ctx, l.ID, models.ListingStateSettled); err != nil {
		return err
	}

	a.emitListingSettled(ctx, l, buyer.String(), winner.Amount)

	log.Info().
		Str("listing_id", l.ID.String()).
		Str("winner_id", buyer.String()).
		Int64("amount", winner.Amount).
		Int("losing_bids", len(bids)-1).
		Msg("settled auction")
	return nil
}

// settleDirectSale resolves a direct-sale listing whose window closed with no
// accepted offer. Every still-pending offer expires with its escrow released,
// then the configured policy decides the player's fate.
func (a *App) settleDirectSale(ctx context.Context, l *models.Listing) error {
	closed, err := a.expirePendingOffers(ctx, l, uuid.Nil)
	if err != nil {
		return err
	}
	a.emitOfferExpired(ctx, l, closed)

	switch a.config.ExpiredSalePolicy {
	case ExpiredSaleMarketBuyout:
		return a.marketBuyout(ctx, l, len(closed))
	case ExpiredSaleDelist:
		return a.closeUnsold(ctx, l, false, len(closed))
	default:
		return fmt.Errorf("unknown expired-sale policy %q", a.config.ExpiredSalePolicy)
	}
}

// marketBuyout has a synthetic market buyer take the player at the asking
// price: the seller is credited, ownership returns to the unowned pool, and
// the player goes straight back up as a fresh auction.
func (a *App) marketBuyout(ctx context.Context, l *models.Listing, offersClosed int) error {
	if l.SellerID != nil {
		if err := a.wallet.Credit(ctx, *l.SellerID, l.AskingPrice, l.ID); err != nil {
			return err
		}
	}
	if err := a.registry.TransferOwnership(ctx, l.PlayerID, nil); err != nil {
		return err
	}
	if err := a.listings.Transition(ctx, l.ID, models.ListingStateSettled); err != nil {
		return err
	}

	a.emitListingSettled(ctx, l, "", l.AskingPrice)

	player, err := a.registry.GetPlayer(ctx, l.PlayerID)
	if err != nil {
		return err
	}
	relisted, err := a.listings.CreateAuction(ctx, player)
	if err != nil {
		return err
	}

	log.Info().
		Str("listing_id", l.ID.String()).
		Str("relisted_as", relisted.ID.String()).
		Int64("asking", l.AskingPrice).
		Int("offers_closed", offersClosed).
		Msg("market bought out expired sale")
	return nil
}

// closeUnsold moves a listing to EXPIRED_UNSOLD. Free-agent auctions relist
// immediately so the player never strands outside the market; direct sales
// under the delist policy simply leave the player with its seller.
func (a *App) closeUnsold(ctx context.Context, l *models.Listing, relist bool, offersClosed int) error {
	if err := a.listings.Transition(ctx, l.ID, models.ListingStateExpiredUnsold); err != nil {
		return err
	}

	payload := events.ListingExpiredPayload{
		ListingID:    l.ID.String(),
		PlayerID:     l.PlayerID.String(),
		Kind:         string(l.Kind),
		OffersClosed: offersClosed,
	}

	if relist {
		player, err := a.registry.GetPlayer(ctx, l.PlayerID)
		if err != nil {
			return err
		}
		fresh, err := a.listings.CreateAuction(ctx, player)
		if err != nil {
			return err
		}
		payload.RelistedAs = fresh.ID.String()
	}

	data, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	if err := a.outbox.InsertListingExpired(ctx, l.ID, data); err != nil {
		log.Error().Err(err).Str("listing_id", l.ID.String()).Msg("failed to emit ListingExpired event")
	}

	log.Info().
		Str("listing_id", l.ID.String()).
		Str("kind", string(l.Kind)).
		Str("relisted_as", payload.RelistedAs).
		Msg("closed unsold listing")
	return nil
}
