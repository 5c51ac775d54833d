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

// PlaceBid places an ACTIVE bid on an auction listing. Preconditions are
// checked in order; the first failure aborts with no side effect. The team
// lock pins the roster check to the insert it gates: without it, concurrent
// placements by one team on different listings would all see the same free
// slot.
func (a *App) PlaceBid(ctx context.Context, listingID, teamID uuid.UUID, amount int64) (*models.Bid, error) {
	a.listingLocks.Lock(listingID)
	defer a.listingLocks.Unlock(listingID)
	a.teamLocks.Lock(teamID)
	defer a.teamLocks.Unlock(teamID)

	l, err := a.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return a.placeBidLocked(ctx, l, teamID, amount, nil)
}

// placeBidLocked runs the bid precondition chain and inserts the bid. When
// supersedes is set the call is the place half of an edit: the superseded
// bid is excluded from the highest-bid floor and from the roster count, and
// its reservation has already been released.
func (a *App) placeBidLocked(ctx context.Context, l *models.Listing, teamID uuid.UUID, amount int64, supersedes *models.Bid) (*models.Bid, error) {
	if l.Terminal() {
		return nil, fmt.Errorf("listing %s is %s: %w", l.ID, l.State, errs.ErrStateConflict)
	}
	if l.Kind != models.ListingKindAuction {
		return nil, errs.Validation("listing", "bids attach to auction listings only")
	}
	if l.SoldBy(teamID) {
		return nil, errs.Validation("team", "seller may not bid on its own listing")
	}

	existingBid, err := a.bids.ActiveBidForTeam(ctx, l.ID, teamID)
	if err != nil {
		return nil, err
	}
	if existingBid != nil && (supersedes == nil || existingBid.ID != supersedes.ID) {
		return nil, errs.Validation("team", "team already has an active bid on this player")
	}
	existingOffer, err := a.offers.PendingOfferForTeam(ctx, l.ID, teamID)
	if err != nil {
		return nil, err
	}
	if existingOffer != nil {
		return nil, errs.Validation("team", "team already has a pending offer on this player")
	}

	slots, err := a.roster.AvailableSlots(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if supersedes != nil && supersedes.State == models.BidStateActive {
		// The bid being replaced still occupies a commitment slot.
		slots++
	}
	if slots <= 0 {
		return nil, fmt.Errorf("team %s has no available roster slot: %w", teamID, errs.ErrRosterFull)
	}

	if err := a.checkBidFloor(ctx, l, amount, supersedes); err != nil {
		return nil, err
	}

	reservationID, err := a.wallet.Reserve(ctx, teamID, amount, l.ID)
	if err != nil {
		return nil, err
	}

	b, err := a.bids.CreateBid(ctx, l.ID, teamID, amount, reservationID)
	if err != nil {
		// Compensate: the reservation must not outlive the failed insert.
		if relErr := a.wallet.Release(ctx, reservationID); relErr != nil {
			log.Error().Err(relErr).Str("reservation_id", reservationID.String()).Msg("failed to release reservation after bid insert failure")
		}
		return nil, err
	}

	payload := events.BidPlacedPayload{
		BidID:     b.ID.String(),
		ListingID: l.ID.String(),
		TeamID:    teamID.String(),
		Amount:    amount,
		PlacedAt:  b.CreatedAt,
	}
	if supersedes != nil {
		payload.Supersedes = supersedes.ID.String()
	}
	data, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	if err := a.outbox.InsertBidPlaced(ctx, l.ID, data); err != nil {
		log.Error().Err(err).Str("bid_id", b.ID.String()).Msg("failed to emit BidPlaced event")
	}

	log.Info().
		Str("listing_id", l.ID.String()).
		Str("bid_id", b.ID.String()).
		Str("team_id", teamID.String()).
		Int64("amount", amount).
		Msg("placed bid")
	return b, nil
}

// checkBidFloor enforces: amount strictly greater than the current highest
// ACTIVE bid, or strictly greater than the listing's base value when no bids
// exist. An edit ignores the bid it replaces.
func (a *App) checkBidFloor(ctx context.Context, l *models.Listing, amount int64, exclude *models.Bid) error {
	bids, err := a.bids.ListActiveBids(ctx, l.ID)
	if err != nil {
		return err
	}
	var highest *models.Bid
	for i := range bids {
		if exclude != nil && bids[i].ID == exclude.ID {
			continue
		}
		highest = &bids[i]
		break // list is ordered: first non-excluded entry is the highest
	}
	if highest != nil {
		if amount <= highest.Amount {
			return errs.Validation("amount", "must exceed current highest bid %d", highest.Amount)
		}
		return nil
	}
	if amount <= l.BaseValue {
		return errs.Validation("amount", "must exceed base value %d", l.BaseValue)
	}
	return nil
}

// EditBid replaces a team's active bid with a new amount as a single atomic
// unit: the superseded bid is withdrawn and the new one placed inside one
// critical section, so no window exists where the team holds no reservation
// without an active bid, and the full precondition chain re-runs.
func (a *App) EditBid(ctx context.Context, bidID, teamID uuid.UUID, newAmount int64) (*models.Bid, error) {
	b, err := a.bids.GetBid(ctx, bidID)
	if err != nil {
		return nil, err
	}

	a.listingLocks.Lock(b.ListingID)
	defer a.listingLocks.Unlock(b.ListingID)
	// The team lock spans the release-reserve window below: a concurrent
	// placement by the same team cannot take the freed funds mid-edit.
	a.teamLocks.Lock(teamID)
	defer a.teamLocks.Unlock(teamID)

	// Re-read under the listing lock.
	b, err = a.bids.GetBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if b.TeamID != teamID {
		return nil, errs.Validation("team", "only the bidder may edit a bid")
	}
	if b.Terminal() {
		return nil, fmt.Errorf("bid %s is %s: %w", bidID, b.State, errs.ErrStateConflict)
	}
	l, err := a.listings.GetListing(ctx, b.ListingID)
	if err != nil {
		return nil, err
	}
	if l.Terminal() {
		return nil, fmt.Errorf("listing %s is %s: %w", l.ID, l.State, errs.ErrStateConflict)
	}

	// Release the old hold so the new reservation is judged against the
	// team's true available balance, then place. On any failure the old
	// reservation is restored from the funds just freed, so the edit is
	// all-or-nothing.
	if err := a.wallet.Release(ctx, b.ReservationID); err != nil {
		return nil, err
	}

	newBid, err := a.placeBidLocked(ctx, l, teamID, newAmount, b)
	if err != nil {
		restoredID, restoreErr := a.wallet.Reserve(ctx, teamID, b.Amount, l.ID)
		if restoreErr != nil {
			return nil, fmt.Errorf("edit failed and could not restore reservation for bid %s: %v: %w", bidID, restoreErr, err)
		}
		if rebindErr := a.bids.RebindReservation(ctx, bidID, restoredID); rebindErr != nil {
			return nil, fmt.Errorf("edit failed and could not rebind reservation for bid %s: %v: %w", bidID, rebindErr, err)
		}
		return nil, err
	}

	if err := a.bids.Transition(ctx, bidID, models.BidStateWithdrawn); err != nil {
		return nil, err
	}

	log.Info().
		Str("old_bid_id", bidID.String()).
		Str("new_bid_id", newBid.ID.String()).
		Int64("old_amount", b.Amount).
		Int64("new_amount", newAmount).
		Msg("edited bid")
	return newBid, nil
}

// WithdrawBid withdraws a team's active bid and releases its escrow.
func (a *App) WithdrawBid(ctx context.Context, bidID, teamID uuid.UUID) error {
	b, err := a.bids.GetBid(ctx, bidID)
	if err != nil {
		return err
	}

	a.listingLocks.Lock(b.ListingID)
	defer a.listingLocks.Unlock(b.ListingID)

	b, err = a.bids.GetBid(ctx, bidID)
	if err != nil {
		return err
	}
	if b.TeamID != teamID {
		return errs.Validation("team", "only the bidder may withdraw a bid")
	}
	if b.Terminal() {
		return fmt.Errorf("bid %s is %s: %w", bidID, b.State, errs.ErrStateConflict)
	}
	l, err := a.listings.GetListing(ctx, b.ListingID)
	if err != nil {
		return err
	}
	if l.Terminal() {
		return fmt.Errorf("listing %s is %s: %w", l.ID, l.State, errs.ErrStateConflict)
	}

	if err := a.bids.Transition(ctx, bidID, models.BidStateWithdrawn); err != nil {
		return err
	}
	if err := a.wallet.Release(ctx, b.ReservationID); err != nil {
		return err
	}

	log.Info().
		Str("bid_id", bidID.String()).
		Str("team_id", teamID.String()).
		Msg("withdrew bid")
	return nil
}
