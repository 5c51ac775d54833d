package offer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/models"
)

// App is the offer ledger: active and historical offers against direct-sale
// listings, symmetric to the bid ledger but seller-resolved rather than
// clock-resolved.
type App struct {
	repo  Repository
	clock clockwork.Clock
}

func NewApp(repo Repository, clock clockwork.Clock) *App {
	return &App{repo: repo, clock: clock}
}

// CreateOffer inserts a PENDING offer tied to an escrow reservation.
func (a *App) CreateOffer(ctx context.Context, listingID, teamID uuid.UUID, amount int64, reservationID uuid.UUID) (*models.Offer, error) {
	o := &models.Offer{
		ID:            uuid.New(),
		ListingID:     listingID,
		TeamID:        teamID,
		Amount:        amount,
		ReservationID: reservationID,
		State:         models.OfferStatePending,
		CreatedAt:     a.clock.Now(),
	}
	if err := a.repo.CreateOffer(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	return o, nil
}

func (a *App) GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	o, err := a.repo.GetOffer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return o, nil
}

// PendingOfferForTeam returns the team's PENDING offer on a listing, or nil.
func (a *App) PendingOfferForTeam(ctx context.Context, listingID, teamID uuid.UUID) (*models.Offer, error) {
	o, err := a.repo.GetPendingOfferByListingAndTeam(ctx, listingID, teamID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending offer: %w", err)
	}
	return o, nil
}

func (a *App) ListPendingOffers(ctx context.Context, listingID uuid.UUID) ([]models.Offer, error) {
	offers, err := a.repo.ListPendingOffersByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending offers: %w", err)
	}
	return offers, nil
}

func (a *App) ListPendingByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Offer, error) {
	offers, err := a.repo.ListPendingOffersByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending offers by team: %w", err)
	}
	return offers, nil
}

func (a *App) CountPendingByTeam(ctx context.Context, teamID uuid.UUID) (int, error) {
	n, err := a.repo.CountPendingOffersByTeam(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending offers: %w", err)
	}
	return n, nil
}

// Transition moves an offer from PENDING to a terminal state. Repeating the
// same terminal transition is a no-op; conflicting moves are surfaced.
func (a *App) Transition(ctx context.Context, id uuid.UUID, state models.OfferState) error {
	o, err := a.repo.GetOffer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get offer: %w", err)
	}
	if o.State == state {
		return nil
	}
	if o.Terminal() {
		return fmt.Errorf("offer %s already %s: %w", id, o.State, errs.ErrStateConflict)
	}
	if err := a.repo.UpdateOfferState(ctx, id, state, a.clock.Now()); err != nil {
		return fmt.Errorf("failed to update offer state: %w", err)
	}
	return nil
}

// RebindReservation points an offer at a replacement escrow reservation.
// Used only by the engine's edit rollback.
func (a *App) RebindReservation(ctx context.Context, id, reservationID uuid.UUID) error {
	if err := a.repo.UpdateOfferReservation(ctx, id, reservationID); err != nil {
		return fmt.Errorf("failed to rebind offer reservation: %w", err)
	}
	return nil
}
