package models

import (
	"time"

	"github.com/google/uuid"
)

// ReservationState represents the lifecycle state of an escrow reservation
type ReservationState string

const (
	ReservationStateActive   ReservationState = "ACTIVE"
	ReservationStateReleased ReservationState = "RELEASED"
	ReservationStateSettled  ReservationState = "SETTLED"
)

// Reservation is a hold against a team's wallet tied 1:1 to an ACTIVE bid or
// PENDING offer. It is released on any terminal transition other than
// WON/ACCEPTED, at which point it converts into an actual spend.
type Reservation struct {
	ID         uuid.UUID        `json:"id"`
	TeamID     uuid.UUID        `json:"team_id"`
	Amount     int64            `json:"amount"`
	ListingID  uuid.UUID        `json:"listing_id"` // the listing the commitment targets
	State      ReservationState `json:"state"`
	CreatedAt  time.Time        `json:"created_at"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

// TransactionType represents the type of wallet transaction
type TransactionType string

const (
	TransactionTypeReserve      TransactionType = "RESERVE"
	TransactionTypeRelease      TransactionType = "RELEASE"
	TransactionTypeSettleDebit  TransactionType = "SETTLE_DEBIT"
	TransactionTypeSettleCredit TransactionType = "SETTLE_CREDIT"
)

// WalletTransaction is a journal entry for a wallet mutation
type WalletTransaction struct {
	ID           uuid.UUID       `json:"id"`
	TeamID       uuid.UUID       `json:"team_id"`
	Amount       int64           `json:"amount"` // positive credit, negative debit
	Type         TransactionType `json:"type"`
	ReferenceID  uuid.UUID       `json:"reference_id"` // reservation or listing id
	BalanceAfter int64           `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}
