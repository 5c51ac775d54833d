package models

import (
	"time"

	"github.com/google/uuid"
)

// OfferState represents the lifecycle state of an offer
type OfferState string

const (
	OfferStatePending   OfferState = "PENDING"
	OfferStateAccepted  OfferState = "ACCEPTED"
	OfferStateRejected  OfferState = "REJECTED"
	OfferStateWithdrawn OfferState = "WITHDRAWN"
	OfferStateExpired   OfferState = "EXPIRED"
)

// Offer is a monetary commitment against a DIRECT_SALE listing, resolved by
// seller decision rather than a clock. At most one PENDING offer exists per
// (listing, team) pair.
type Offer struct {
	ID            uuid.UUID  `json:"id"`
	ListingID     uuid.UUID  `json:"listing_id"`
	TeamID        uuid.UUID  `json:"team_id"`
	Amount        int64      `json:"amount"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	State         OfferState `json:"state"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

func (o *Offer) Terminal() bool {
	return o.State != OfferStatePending
}
