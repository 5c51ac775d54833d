package wallet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/transfermarket/internal/keymutex"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/market/events"
	"github.com/mcdev12/transfermarket/internal/models"
	"github.com/rs/zerolog/log"
)

// OutboxApp defines what the wallet needs from the outbox app
type OutboxApp interface {
	InsertFundsReleased(ctx context.Context, listingID uuid.UUID, payload []byte) error
}

// App is the wallet ledger: team budgets plus escrow reservations.
// Available balance = balance − sum(active reservations). All mutations for a
// given team serialize on a per-team lock, independent of any listing lock.
type App struct {
	repo   Repository
	outbox OutboxApp
	clock  clockwork.Clock
	locks  *keymutex.Map
}

func NewApp(repo Repository, outbox OutboxApp, clock clockwork.Clock) *App {
	return &App{
		repo:   repo,
		outbox: outbox,
		clock:  clock,
		locks:  keymutex.New(),
	}
}

// Reserve places an escrow hold of amount against the team's wallet for a
// commitment on listingID. Fails with errs.ErrInsufficientFunds when amount
// exceeds the currently available (not total) balance.
func (a *App) Reserve(ctx context.Context, teamID uuid.UUID, amount int64, listingID uuid.UUID) (uuid.UUID, error) {
	if amount <= 0 {
		return uuid.Nil, errs.Validation("amount", "must be positive, got %d", amount)
	}

	a.locks.Lock(teamID)
	defer a.locks.Unlock(teamID)

	available, err := a.availableLocked(ctx, teamID)
	if err != nil {
		return uuid.Nil, err
	}
	if amount > available {
		return uuid.Nil, fmt.Errorf("reserve %d for team %s (available %d): %w", amount, teamID, available, errs.ErrInsufficientFunds)
	}

	res := &models.Reservation{
		ID:        uuid.New(),
		TeamID:    teamID,
		Amount:    amount,
		ListingID: listingID,
		State:     models.ReservationStateActive,
		CreatedAt: a.clock.Now(),
	}
	if err := a.repo.CreateReservation(ctx, res); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	if err := a.journal(ctx, teamID, amount, models.TransactionTypeReserve, res.ID, 0); err != nil {
		return uuid.Nil, err
	}

	log.Debug().
		Str("team_id", teamID.String()).
		Str("reservation_id", res.ID.String()).
		Int64("amount", amount).
		Msg("reserved funds")
	return res.ID, nil
}

// Release returns an escrow hold to the team's available balance. It is
// idempotent: releasing an already-released or settled reservation is a
// no-op, not an error, to tolerate retries from the settlement engine.
func (a *App) Release(ctx context.Context, reservationID uuid.UUID) error {
	res, err := a.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("failed to get reservation: %w", err)
	}

	teamID := res.TeamID
	a.locks.Lock(teamID)
	defer a.locks.Unlock(teamID)

	// Re-read under the team lock; a concurrent settle may have won the race.
	res, err = a.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("failed to get reservation: %w", err)
	}
	if res.State != models.ReservationStateActive {
		return nil
	}

	if err := a.repo.UpdateReservationState(ctx, reservationID, models.ReservationStateReleased, a.clock.Now()); err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	if err := a.journal(ctx, res.TeamID, res.Amount, models.TransactionTypeRelease, res.ID, 0); err != nil {
		return err
	}

	payload, err := json.Marshal(events.FundsReleasedPayload{
		TeamID:    res.TeamID.String(),
		Amount:    res.Amount,
		ListingID: res.ListingID.String(),
		At:        a.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal FundsReleased payload: %w", err)
	}
	if err := a.outbox.InsertFundsReleased(ctx, res.ListingID, payload); err != nil {
		log.Error().Err(err).Str("reservation_id", reservationID.String()).Msg("failed to emit FundsReleased event")
	}

	log.Debug().
		Str("team_id", res.TeamID.String()).
		Str("reservation_id", res.ID.String()).
		Int64("amount", res.Amount).
		Msg("released funds")
	return nil
}

// Settle converts an escrow hold into an actual spend: the buyer's balance
// drops by the reserved amount and, when seller is a real team, the seller is
// credited. Settling an already-settled reservation re-runs only the seller
// credit, exactly-once, so a retry after a failure between the debit and the
// credit finishes the transfer instead of dropping the proceeds. Settling a
// released reservation is a state conflict.
func (a *App) Settle(ctx context.Context, reservationID uuid.UUID, seller *uuid.UUID) error {
	res, err := a.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("failed to get reservation: %w", err)
	}

	buyerID := res.TeamID
	a.locks.Lock(buyerID)
	res, err = a.repo.GetReservation(ctx, reservationID)
	if err != nil {
		a.locks.Unlock(buyerID)
		return fmt.Errorf("failed to get reservation: %w", err)
	}

	switch res.State {
	case models.ReservationStateSettled:
		a.locks.Unlock(buyerID)
		return a.creditSellerOnce(ctx, res, seller)
	case models.ReservationStateReleased:
		a.locks.Unlock(buyerID)
		return fmt.Errorf("reservation %s already released: %w", reservationID, errs.ErrStateConflict)
	}

	if err := a.repo.UpdateReservationState(ctx, reservationID, models.ReservationStateSettled, a.clock.Now()); err != nil {
		a.locks.Unlock(buyerID)
		return fmt.Errorf("failed to settle reservation: %w", err)
	}
	if err := a.journal(ctx, buyerID, -res.Amount, models.TransactionTypeSettleDebit, res.ID, -res.Amount); err != nil {
		a.locks.Unlock(buyerID)
		return err
	}
	a.locks.Unlock(buyerID)

	if err := a.creditSellerOnce(ctx, res, seller); err != nil {
		return err
	}

	log.Info().
		Str("buyer_id", res.TeamID.String()).
		Str("reservation_id", res.ID.String()).
		Int64("amount", res.Amount).
		Msg("settled escrow")
	return nil
}

// creditSellerOnce credits the seller the reserved amount, keyed to the
// reservation in the journal so the credit lands at most once no matter how
// often the settle is retried.
func (a *App) creditSellerOnce(ctx context.Context, res *models.Reservation, seller *uuid.UUID) error {
	if seller == nil {
		return nil
	}

	a.locks.Lock(*seller)
	defer a.locks.Unlock(*seller)

	credited, err := a.repo.HasTransaction(ctx, *seller, models.TransactionTypeSettleCredit, res.ID)
	if err != nil {
		return fmt.Errorf("failed to check seller credit: %w", err)
	}
	if credited {
		return nil
	}
	return a.journal(ctx, *seller, res.Amount, models.TransactionTypeSettleCredit, res.ID, res.Amount)
}

// Credit adds amount to a team's balance outside the escrow flow. Used for
// seller proceeds, including the synthetic market buyer at settlement.
func (a *App) Credit(ctx context.Context, teamID uuid.UUID, amount int64, refID uuid.UUID) error {
	if amount <= 0 {
		return errs.Validation("amount", "must be positive, got %d", amount)
	}

	a.locks.Lock(teamID)
	defer a.locks.Unlock(teamID)

	return a.journal(ctx, teamID, amount, models.TransactionTypeSettleCredit, refID, amount)
}

// Balance returns the team's ledger balance, ignoring reservations.
func (a *App) Balance(ctx context.Context, teamID uuid.UUID) (int64, error) {
	return a.repo.GetBalance(ctx, teamID)
}

// Available returns the balance a team can still commit:
// balance − sum(active reservations).
func (a *App) Available(ctx context.Context, teamID uuid.UUID) (int64, error) {
	a.locks.Lock(teamID)
	defer a.locks.Unlock(teamID)
	return a.availableLocked(ctx, teamID)
}

func (a *App) availableLocked(ctx context.Context, teamID uuid.UUID) (int64, error) {
	balance, err := a.repo.GetBalance(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	reserved, err := a.repo.SumActiveReservations(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum reservations: %w", err)
	}
	return balance - reserved, nil
}

func (a *App) journal(ctx context.Context, teamID uuid.UUID, amount int64, txnType models.TransactionType, refID uuid.UUID, delta int64) error {
	txn := &models.WalletTransaction{
		ID:          uuid.New(),
		TeamID:      teamID,
		Amount:      amount,
		Type:        txnType,
		ReferenceID: refID,
		CreatedAt:   a.clock.Now(),
	}
	if err := a.repo.ApplyTransaction(ctx, txn, delta); err != nil {
		return fmt.Errorf("failed to apply %s transaction: %w", txnType, err)
	}
	return nil
}
