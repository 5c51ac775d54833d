package bid

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/models"
)

// App is the bid ledger: active and historical bids against auction listings.
// Cross-ledger rules (roster gate, wallet escrow, listing locks) live in the
// engine; this app owns the bid records and their state machine.
type App struct {
	repo  Repository
	clock clockwork.Clock
}

func NewApp(repo Repository, clock clockwork.Clock) *App {
	return &App{repo: repo, clock: clock}
}

// CreateBid inserts an ACTIVE bid tied to an escrow reservation.
func (a *App) CreateBid(ctx context.Context, listingID, teamID uuid.UUID, amount int64, reservationID uuid.UUID) (*models.Bid, error) {
	b := &models.Bid{
		ID:            uuid.New(),
		ListingID:     listingID,
		TeamID:        teamID,
		Amount:        amount,
		ReservationID: reservationID,
		State:         models.BidStateActive,
		CreatedAt:     a.clock.Now(),
	}
	if err := a.repo.CreateBid(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create bid: %w", err)
	}
	return b, nil
}

func (a *App) GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	b, err := a.repo.GetBid(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}
	return b, nil
}

// ActiveBidForTeam returns the team's ACTIVE bid on a listing, or nil.
func (a *App) ActiveBidForTeam(ctx context.Context, listingID, teamID uuid.UUID) (*models.Bid, error) {
	b, err := a.repo.GetActiveBidByListingAndTeam(ctx, listingID, teamID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active bid: %w", err)
	}
	return b, nil
}

// HighestActiveBid returns the winning bid under the tie-break rule (highest
// amount, earliest placed), or nil when the listing has no active bids.
func (a *App) HighestActiveBid(ctx context.Context, listingID uuid.UUID) (*models.Bid, error) {
	bids, err := a.repo.ListActiveBidsByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bids: %w", err)
	}
	if len(bids) == 0 {
		return nil, nil
	}
	return &bids[0], nil
}

func (a *App) ListActiveBids(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error) {
	bids, err := a.repo.ListActiveBidsByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bids: %w", err)
	}
	return bids, nil
}

func (a *App) ListActiveByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Bid, error) {
	bids, err := a.repo.ListActiveBidsByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bids by team: %w", err)
	}
	return bids, nil
}

func (a *App) CountActiveByTeam(ctx context.Context, teamID uuid.UUID) (int, error) {
	n, err := a.repo.CountActiveBidsByTeam(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bids: %w", err)
	}
	return n, nil
}

// Transition moves a bid from ACTIVE to a terminal state. Repeating the same
// terminal transition is a no-op; conflicting terminal moves are surfaced.
func (a *App) Transition(ctx context.Context, id uuid.UUID, state models.BidState) error {
	b, err := a.repo.GetBid(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get bid: %w", err)
	}
	if b.State == state {
		return nil
	}
	if b.Terminal() {
		return fmt.Errorf("bid %s already %s: %w", id, b.State, errs.ErrStateConflict)
	}
	if err := a.repo.UpdateBidState(ctx, id, state, a.clock.Now()); err != nil {
		return fmt.Errorf("failed to update bid state: %w", err)
	}
	return nil
}

// RebindReservation points a bid at a replacement escrow reservation. Used
// only by the engine's edit rollback, where the original hold was already
// released and re-reserved under a new id.
func (a *App) RebindReservation(ctx context.Context, id, reservationID uuid.UUID) error {
	if err := a.repo.UpdateBidReservation(ctx, id, reservationID); err != nil {
		return fmt.Errorf("failed to rebind bid reservation: %w", err)
	}
	return nil
}
