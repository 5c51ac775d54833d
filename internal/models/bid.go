package models

import (
	"time"

	"github.com/google/uuid"
)

// BidState represents the lifecycle state of a bid
type BidState string

const (
	BidStateActive    BidState = "ACTIVE"
	BidStateWon       BidState = "WON"
	BidStateLost      BidState = "LOST"
	BidStateWithdrawn BidState = "WITHDRAWN"
)

// Bid is a monetary commitment against an AUCTION listing.
// At most one ACTIVE bid exists per (listing, team) pair.
type Bid struct {
	ID            uuid.UUID  `json:"id"`
	ListingID     uuid.UUID  `json:"listing_id"`
	TeamID        uuid.UUID  `json:"team_id"`
	Amount        int64      `json:"amount"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	State         BidState   `json:"state"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

func (b *Bid) Terminal() bool {
	return b.State != BidStateActive
}
