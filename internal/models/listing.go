package models

import (
	"time"

	"github.com/google/uuid"
)

// ListingKind represents how a listed player can be acquired
type ListingKind string

const (
	ListingKindAuction    ListingKind = "AUCTION"     // unowned player, clock-resolved
	ListingKindDirectSale ListingKind = "DIRECT_SALE" // owned player, seller-resolved
)

// ListingState represents the lifecycle state of a listing
type ListingState string

const (
	ListingStateActive        ListingState = "ACTIVE"
	ListingStateSettled       ListingState = "SETTLED"
	ListingStateExpiredUnsold ListingState = "EXPIRED_UNSOLD"
	ListingStateCancelled     ListingState = "CANCELLED"
)

// Listing represents a player currently eligible for transfer.
// A player has at most one ACTIVE listing at a time.
type Listing struct {
	ID          uuid.UUID    `json:"id"`
	PlayerID    uuid.UUID    `json:"player_id"`
	Kind        ListingKind  `json:"kind"`
	SellerID    *uuid.UUID   `json:"seller_id,omitempty"` // nil = market (free agent)
	AskingPrice int64        `json:"asking_price"`        // DIRECT_SALE only
	BaseValue   int64        `json:"base_value"`          // auction floor, snapshot at listing time
	State       ListingState `json:"state"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
}

// Terminal reports whether the listing can no longer be mutated.
func (l *Listing) Terminal() bool {
	return l.State != ListingStateActive
}

// SoldBy reports whether team is the seller of this listing.
func (l *Listing) SoldBy(team uuid.UUID) bool {
	return l.SellerID != nil && *l.SellerID == team
}
