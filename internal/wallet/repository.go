package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/models"
)

// Repository defines what the wallet app needs from storage. Implementations
// live in internal/store; the app never sees a concrete store.
type Repository interface {
	GetBalance(ctx context.Context, teamID uuid.UUID) (int64, error)

	// ApplyTransaction journals txn and shifts the team balance by delta in a
	// single atomic step. delta is zero for reserve/release audit entries;
	// the store fills BalanceAfter.
	ApplyTransaction(ctx context.Context, txn *models.WalletTransaction, delta int64) error

	// HasTransaction reports whether a journal entry of txnType referencing
	// refID exists for the team. Settle uses it to keep the seller credit
	// exactly-once across retries.
	HasTransaction(ctx context.Context, teamID uuid.UUID, txnType models.TransactionType, refID uuid.UUID) (bool, error)

	CreateReservation(ctx context.Context, res *models.Reservation) error
	GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	UpdateReservationState(ctx context.Context, id uuid.UUID, state models.ReservationState, resolvedAt time.Time) error
	SumActiveReservations(ctx context.Context, teamID uuid.UUID) (int64, error)
}
