package events

import (
	"time"
)

// Event payload types published by the transfer market engine. Consumed by
// notification and dashboard-refresh collaborators; delivery is their job.

// Event type names, used as outbox event types and publish subjects.
const (
	TypeListingCreated   = "listing.created"
	TypeListingSettled   = "listing.settled"
	TypeListingExpired   = "listing.expired"
	TypeListingCancelled = "listing.cancelled"
	TypeBidPlaced        = "bid.placed"
	TypeOfferMade        = "offer.made"
	TypeOfferAccepted    = "offer.accepted"
	TypeOfferRejected    = "offer.rejected"
	TypeOfferExpired     = "offer.expired"
	TypeFundsReleased    = "funds.released"
)

// ListingCreatedPayload is the payload for a listing.created event
type ListingCreatedPayload struct {
	ListingID string    `json:"listing_id"`
	PlayerID  string    `json:"player_id"`
	Kind      string    `json:"kind"`
	SellerID  string    `json:"seller_id,omitempty"` // empty for free agents
	Asking    int64     `json:"asking,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ListingSettledPayload is the payload for a listing.settled event
type ListingSettledPayload struct {
	ListingID string    `json:"listing_id"`
	PlayerID  string    `json:"player_id"`
	Kind      string    `json:"kind"`
	WinnerID  string    `json:"winner_id,omitempty"` // empty when the market bought the player back
	Amount    int64     `json:"amount"`
	SettledAt time.Time `json:"settled_at"`
}

// ListingExpiredPayload is the payload for a listing.expired event,
// emitted when a listing closes without a sale.
type ListingExpiredPayload struct {
	ListingID    string `json:"listing_id"`
	PlayerID     string `json:"player_id"`
	Kind         string `json:"kind"`
	RelistedAs   string `json:"relisted_as,omitempty"` // fresh auction listing id, if any
	OffersClosed int    `json:"offers_closed"`
}

// ListingCancelledPayload is the payload for a listing.cancelled event
type ListingCancelledPayload struct {
	ListingID    string    `json:"listing_id"`
	PlayerID     string    `json:"player_id"`
	SellerID     string    `json:"seller_id"`
	OffersClosed int       `json:"offers_closed"`
	CancelledAt  time.Time `json:"cancelled_at"`
}

// BidPlacedPayload is the payload for a bid.placed event
type BidPlacedPayload struct {
	BidID      string    `json:"bid_id"`
	ListingID  string    `json:"listing_id"`
	TeamID     string    `json:"team_id"`
	Amount     int64     `json:"amount"`
	Supersedes string    `json:"supersedes,omitempty"` // previous bid id on an edit
	PlacedAt   time.Time `json:"placed_at"`
}

// OfferMadePayload is the payload for an offer.made event
type OfferMadePayload struct {
	OfferID    string    `json:"offer_id"`
	ListingID  string    `json:"listing_id"`
	TeamID     string    `json:"team_id"`
	Amount     int64     `json:"amount"`
	Supersedes string    `json:"supersedes,omitempty"`
	MadeAt     time.Time `json:"made_at"`
}

// OfferAcceptedPayload is the payload for an offer.accepted event
type OfferAcceptedPayload struct {
	OfferID    string    `json:"offer_id"`
	ListingID  string    `json:"listing_id"`
	PlayerID   string    `json:"player_id"`
	BuyerID    string    `json:"buyer_id"`
	SellerID   string    `json:"seller_id"`
	Amount     int64     `json:"amount"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// OfferRejectedPayload is the payload for an offer.rejected event
type OfferRejectedPayload struct {
	OfferID    string    `json:"offer_id"`
	ListingID  string    `json:"listing_id"`
	TeamID     string    `json:"team_id"`
	RejectedAt time.Time `json:"rejected_at"`
}

// OfferExpiredPayload is the payload for an offer.expired event, emitted for
// every pending offer superseded by an acceptance, cancellation or expiry.
type OfferExpiredPayload struct {
	OfferID   string `json:"offer_id"`
	ListingID string `json:"listing_id"`
	TeamID    string `json:"team_id"`
	Amount    int64  `json:"amount"`
}

// FundsReleasedPayload is the payload for a funds.released event
type FundsReleasedPayload struct {
	TeamID    string    `json:"team_id"`
	Amount    int64     `json:"amount"`
	ListingID string    `json:"listing_id"`
	At        time.Time `json:"at"`
}
