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

// PlaceOffer places a PENDING offer on a direct-sale listing. Preconditions
// mirror PlaceBid; the floor is the listing's asking price, inclusive.
func (a *App) PlaceOffer(ctx context.Context, listingID, teamID uuid.UUID, amount int64) (*models.Offer, error) {
	a.listingLocks.Lock(listingID)
	defer a.listingLocks.Unlock(listingID)
	a.teamLocks.Lock(teamID)
	defer a.teamLocks.Unlock(teamID)

	l, err := a.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return a.placeOfferLocked(ctx, l, teamID, amount, nil)
}

func (a *App) placeOfferLocked(ctx context.Context, l *models.Listing, teamID uuid.UUID, amount int64, supersedes *models.Offer) (*models.Offer, error) {
	if l.Terminal() {
		return nil, fmt.Errorf("listing %s is %s: %w", l.ID, l.State, errs.ErrStateConflict)
	}
	if l.Kind != models.ListingKindDirectSale {
		return nil, errs.Validation("listing", "offers attach to direct-sale listings only")
	}
	if l.SoldBy(teamID) {
		return nil, errs.Validation("team", "seller may not offer on its own listing")
	}

	existingOffer, err := a.offers.PendingOfferForTeam(ctx, l.ID, teamID)
	if err != nil {
		return nil, err
	}
	if existingOffer != nil && (supersedes == nil || existingOffer.ID != supersedes.ID) {
		return nil, errs.Validation("team", "team already has a pending offer on this player")
	}
	existingBid, err := a.bids.ActiveBidForTeam(ctx, l.ID, teamID)
	if err != nil {
		return nil, err
	}
	if existingBid != nil {
		return nil, errs.Validation("team", "team already has an active bid on this player")
	}

	slots, err := a.roster.AvailableSlots(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if supersedes != nil && supersedes.State == models.OfferStatePending {
		slots++
	}
	if slots <= 0 {
		return nil, fmt.Errorf("team %s has no available roster slot: %w", teamID, errs.ErrRosterFull)
	}

	if amount < l.AskingPrice {
		return nil, errs.Validation("amount", "must meet asking price %d", l.AskingPrice)
	}

	reservationID, err := a.wallet.Reserve(ctx, teamID, amount, l.ID)
	if err != nil {
		return nil, err
	}

	o, err := a.offers.CreateOffer(ctx, l.ID, teamID, amount, reservationID)
	if err != nil {
		if relErr := a.wallet.Release(ctx, reservationID); relErr != nil {
			log.Error().Err(relErr).Str("reservation_id", reservationID.String()).Msg("failed to release reservation after offer insert failure")
		}
		return nil, err
	}

	payload := events.OfferMadePayload{
		OfferID:   o.ID.String(),
		ListingID: l.ID.String(),
		TeamID:    teamID.String(),
		Amount:    amount,
		MadeAt:    o.CreatedAt,
	}
	if supersedes != nil {
		payload.Supersedes = supersedes.ID.String()
	}
	data, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	if err := a.outbox.InsertOfferMade(ctx, l.ID, data); err != nil {
		log.Error().Err(err).Str("offer_id", o.ID.String()).Msg("failed to emit OfferMade event")
	}

	log.Info().
		Str("listing_id", l.ID.String()).
		Str("offer_id", o.ID.String()).
		Str("team_id", teamID.String()).
		Int64("amount", amount).
		Msg("placed offer")
	return o, nil
}

// EditOffer replaces a team's pending offer with a new amount as a single
// atomic unit, mirroring EditBid.
func (a *App) EditOffer(ctx context.Context, offerID, teamID uuid.UUID, newAmount int64) (*models.Offer, error) {
	o, err := a.offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	a.listingLocks.Lock(o.ListingID)
	defer a.listingLocks.Unlock(o.ListingID)
	// As in EditBid, the team lock keeps the freed escrow out of reach of
	// concurrent placements by the same team until the edit resolves.
	a.teamLocks.Lock(teamID)
	defer a.teamLocks.Unlock(teamID)

	o, err = a.offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o.TeamID != teamID {
		return nil, errs.Validation("team", "only the offerer may edit an offer")
	}
	if o.Terminal() {
		return nil, fmt.Errorf("offer %s is %s: %w", offerID, o.State, errs.ErrStateConflict)
	}
	l, err := a.listings.GetListing(ctx, o.ListingID)
	if err != nil {
		return nil, err
	}
	if l.Terminal() {
		return nil, fmt.Errorf("listing %s is %s: %w", l.ID, l.State, errs.ErrStateConflict)
	}

	if err := a.wallet.Release(ctx, o.ReservationID); err != nil {
		return nil, err
	}

	newOffer, err := a.placeOfferLocked(ctx, l, teamID, newAmount, o)
	if err != nil {
		restoredID, restoreErr := a.wallet.Reserve(ctx, teamID, o.Amount, l.ID)
		if restoreErr != nil {
			return nil, fmt.Errorf("edit failed and could not restore reservation for offer %s: %v: %w", offerID, restoreErr, err)
		}
		if rebindErr := a.offers.RebindReservation(ctx, offerID, restoredID); rebindErr != nil {
			return nil, fmt.Errorf("edit failed and could not rebind reservation for offer %s: %v: %w", offerID, rebindErr, err)
		}
		return nil, err
	}

	if err := a.offers.Transition(ctx, offerID, models.OfferStateWithdrawn); err != nil {
		return nil, err
	}

	log.Info().
		Str("old_offer_id", offerID.String()).
		Str("new_offer_id", newOffer.ID.String()).
		Int64("old_amount", o.Amount).
		Int64("new_amount", newAmount).
		Msg("edited offer")
	return newOffer, nil
}

// WithdrawOffer withdraws a team's pending offer and releases its escrow.
func (a *App) WithdrawOffer(ctx context.Context, offerID, teamID uuid.UUID) error {
	o, err := a.offers.GetOffer(ctx, offerID)
	if err != nil {
		return err
	}

	a.listingLocks.Lock(o.ListingID)
	defer a.listingLocks.Unlock(o.ListingID)

	o, err = a.offers.GetOffer(ctx, offerID)
	if err != nil {
		return err
	}
	if o.TeamID != teamID {
		return errs.Validation("team", "only the offerer may withdraw an offer")
	}
	if o.Terminal() {
		return fmt.Errorf("offer %s is %s: %w", offerID, o.State, errs.ErrStateConflict)
	}
	l, err := a.listings.GetListing(ctx, o.ListingID)
	if err != nil {
		return err
	}
	if l.Terminal() {
		return fmt.Errorf("listing %s is %s: %w", l.ID, l.State, errs.ErrStateConflict)
	}

	if err := a.offers.Transition(ctx, offerID, models.OfferStateWithdrawn); err != nil {
		return err
	}
	if err := a.wallet.Release(ctx, o.ReservationID); err != nil {
		return err
	}

	log.Info().
		Str("offer_id", offerID.String()).
		Str("team_id", teamID.String()).
		Msg("withdrew offer")
	return nil
}

// AcceptOffer lets the seller accept a pending offer. The cascade is atomic
// with respect to the listing: escrow settles buyer→seller, ownership
// transfers, the listing settles, and every other pending offer expires with
// its escrow released. Each step is retry-safe, so a failure partway leaves a
// state the same call can finish from.
func (a *App) AcceptOffer(ctx context.Context, offerID, teamID uuid.UUID) error {
	o, err := a.offers.GetOffer(ctx, offerID)
	if err != nil {
		return err
	}

	a.listingLocks.Lock(o.ListingID)
	defer a.listingLocks.Unlock(o.ListingID)

	o, err = a.offers.GetOffer(ctx, offerID)
	if err != nil {
		return err
	}
	l, err := a.listings.GetListing(ctx, o.ListingID)
	if err != nil {
		return err
	}
	if !l.SoldBy(teamID) {
		return errs.Validation("team", "only the seller may accept an offer")
	}
	if l.Terminal() {
		return fmt.Errorf("listing %s is %s: %w", l.ID, l.State, errs.ErrStateConflict)
	}
	if o.Terminal() {
		return fmt.Errorf("offer %s is %s: %w", offerID, o.State, errs.ErrStateConflict)
	}

	if err := a.wallet.Settle(ctx, o.ReservationID, l.SellerID); err != nil {
		return err
	}
	buyer := o.TeamID
	if err := a.registry.TransferOwnership(ctx, l.PlayerID, &buyer); err != nil {
		return err
	}
	if err := a.offers.Transition(ctx, offerID, models.OfferStateAccepted); err != nil {
		return err
	}

	superseded, err := a.expirePendingOffers(ctx, l, offerID)
	if err != nil {
		return err
	}

	if err := a.listings.Transition(ctx, l.ID, models.ListingStateSettled); err != nil {
		return err
	}

	acceptedPayload, err := marshalPayload(events.OfferAcceptedPayload{
		OfferID:    o.ID.String(),
		ListingID:  l.ID.String(),
		PlayerID:   l.PlayerID.String(),
		BuyerID:    buyer.String(),
		SellerID:   teamID.String(),
		Amount:     o.Amount,
		AcceptedAt: a.clock.Now(),
	})
	if err != nil {
		return err
	}
	if err := a.outbox.InsertOfferAccepted(ctx, l.ID, acceptedPayload); err != nil {
		log.Error().Err(err).Str("offer_id", offerID.String()).Msg("failed to emit OfferAccepted event")
	}
	a.emitOfferExpired(ctx, l, superseded)
	a.emitListingSettled(ctx, l, buyer.String(), o.Amount)

	log.Info().
		Str("listing_id", l.ID.String()).
		Str("offer_id", offerID.String()).
		Str("buyer_id", buyer.String()).
		Int64("amount", o.Amount).
		Msg("accepted offer")
	return nil
}

// RejectOffer lets the seller decline a pending offer. The listing stays
// ACTIVE for other offers.
func (a *App) RejectOffer(ctx context.Context, offerID, teamID uuid.UUID) error {
	o, err := a.offers.GetOffer(ctx, offerID)
	if err != nil {
		return err
	}

	a.listingLocks.Lock(o.ListingID)
	defer a.listingLocks.Unlock(o.ListingID)

	o, err = a.offers.GetOffer(ctx, offerID)
	if err != nil {
		return err
	}
	l, err := a.listings.GetListing(ctx, o.ListingID)
	if err != nil {
		return err
	}
	if !l.SoldBy(teamID) {
		return errs.Validation("team", "only the seller may reject an offer")
	}
	if o.Terminal() {
		return fmt.Errorf("offer %s is %s: %w", offerID, o.State, errs.ErrStateConflict)
	}

	if err := a.offers.Transition(ctx, offerID, models.OfferStateRejected); err != nil {
		return err
	}
	if err := a.wallet.Release(ctx, o.ReservationID); err != nil {
		return err
	}

	payload, err := marshalPayload(events.OfferRejectedPayload{
		OfferID:    o.ID.String(),
		ListingID:  l.ID.String(),
		TeamID:     o.TeamID.String(),
		RejectedAt: a.clock.Now(),
	})
	if err != nil {
		return err
	}
	if err := a.outbox.InsertOfferRejected(ctx, l.ID, payload); err != nil {
		log.Error().Err(err).Str("offer_id", offerID.String()).Msg("failed to emit OfferRejected event")
	}

	log.Info().
		Str("listing_id", l.ID.String()).
		Str("offer_id", offerID.String()).
		Msg("rejected offer")
	return nil
}

// expirePendingOffers transitions every pending offer on the listing except
// keep to EXPIRED and releases its escrow. Returns the offers it closed.
func (a *App) expirePendingOffers(ctx context.Context, l *models.Listing, keep uuid.UUID) ([]models.Offer, error) {
	pending, err := a.offers.ListPendingOffers(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	var closed []models.Offer
	for _, p := range pending {
		if p.ID == keep {
			continue
		}
		if err := a.offers.Transition(ctx, p.ID, models.OfferStateExpired); err != nil {
			return nil, err
		}
		if err := a.wallet.Release(ctx, p.ReservationID); err != nil {
			return nil, err
		}
		closed = append(closed, p)
	}
	return closed, nil
}

func (a *App) emitOfferExpired(ctx context.Context, l *models.Listing, offers []models.Offer) {
	for _, o := range offers {
		payload, err := marshalPayload(events.OfferExpiredPayload{
			OfferID:   o.ID.String(),
			ListingID: l.ID.String(),
			TeamID:    o.TeamID.String(),
			Amount:    o.Amount,
		})
		if err != nil {
			log.Error().Err(err).Str("offer_id", o.ID.String()).Msg("failed to marshal OfferExpired payload")
			continue
		}
		if err := a.outbox.InsertOfferExpired(ctx, l.ID, payload); err != nil {
			log.Error().Err(err).Str("offer_id", o.ID.String()).Msg("failed to emit OfferExpired event")
		}
	}
}

func (a *App) emitListingSettled(ctx context.Context, l *models.Listing, winnerID string, amount int64) {
	payload, err := marshalPayload(events.ListingSettledPayload{
		ListingID: l.ID.String(),
		PlayerID:  l.PlayerID.String(),
		Kind:      string(l.Kind),
		WinnerID:  winnerID,
		Amount:    amount,
		SettledAt: a.clock.Now(),
	})
	if err != nil {
		log.Error().Err(err).Str("listing_id", l.ID.String()).Msg("failed to marshal ListingSettled payload")
		return
	}
	if err := a.outbox.InsertListingSettled(ctx, l.ID, payload); err != nil {
		log.Error().Err(err).Str("listing_id", l.ID.String()).Msg("failed to emit ListingSettled event")
	}
}
