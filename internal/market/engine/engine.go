package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/transfermarket/internal/keymutex"
	"github.com/mcdev12/transfermarket/internal/models"
)

// ExpiredSalePolicy decides what happens to a DIRECT_SALE listing that
// expires without an accepted offer.
type ExpiredSalePolicy string

const (
	// ExpiredSaleMarketBuyout has a synthetic market buyer acquire the player
	// at the asking price; ownership returns to the unowned pool and the
	// player is re-listed as a fresh auction.
	ExpiredSaleMarketBuyout ExpiredSalePolicy = "market_buyout"
	// ExpiredSaleDelist closes the listing with no forced sale; the seller
	// keeps the player.
	ExpiredSaleDelist ExpiredSalePolicy = "delist"
)

type Config struct {
	ExpiredSalePolicy ExpiredSalePolicy
}

// ListingApp defines what the engine needs from the listing registry
type ListingApp interface {
	CreateAuction(ctx context.Context, player *models.Player) (*models.Listing, error)
	CreateDirectSale(ctx context.Context, player *models.Player, sellerID uuid.UUID, asking int64) (*models.Listing, error)
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Transition(ctx context.Context, id uuid.UUID, state models.ListingState) error
	ListExpiredActiveListings(ctx context.Context, asOf time.Time, limit int32) ([]models.Listing, error)
}

// BidApp defines what the engine needs from the bid ledger
type BidApp interface {
	CreateBid(ctx context.Context, listingID, teamID uuid.UUID, amount int64, reservationID uuid.UUID) (*models.Bid, error)
	GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	ActiveBidForTeam(ctx context.Context, listingID, teamID uuid.UUID) (*models.Bid, error)
	HighestActiveBid(ctx context.Context, listingID uuid.UUID) (*models.Bid, error)
	ListActiveBids(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error)
	ListActiveByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Bid, error)
	CountActiveByTeam(ctx context.Context, teamID uuid.UUID) (int, error)
	Transition(ctx context.Context, id uuid.UUID, state models.BidState) error
	RebindReservation(ctx context.Context, id, reservationID uuid.UUID) error
}

// OfferApp defines what the engine needs from the offer ledger
type OfferApp interface {
	CreateOffer(ctx context.Context, listingID, teamID uuid.UUID, amount int64, reservationID uuid.UUID) (*models.Offer, error)
	GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	PendingOfferForTeam(ctx context.Context, listingID, teamID uuid.UUID) (*models.Offer, error)
	ListPendingOffers(ctx context.Context, listingID uuid.UUID) ([]models.Offer, error)
	ListPendingByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Offer, error)
	CountPendingByTeam(ctx context.Context, teamID uuid.UUID) (int, error)
	Transition(ctx context.Context, id uuid.UUID, state models.OfferState) error
	RebindReservation(ctx context.Context, id, reservationID uuid.UUID) error
}

// WalletApp defines what the engine needs from the wallet ledger
type WalletApp interface {
	Reserve(ctx context.Context, teamID uuid.UUID, amount int64, listingID uuid.UUID) (uuid.UUID, error)
	Release(ctx context.Context, reservationID uuid.UUID) error
	Settle(ctx context.Context, reservationID uuid.UUID, seller *uuid.UUID) error
	Credit(ctx context.Context, teamID uuid.UUID, amount int64, refID uuid.UUID) error
}

// RosterApp defines what the engine needs from the roster gate
type RosterApp interface {
	AvailableSlots(ctx context.Context, teamID uuid.UUID) (int, error)
	CanCommit(ctx context.Context, teamID uuid.UUID) (bool, error)
}

// RegistryApp defines what the engine needs from the player registry
type RegistryApp interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	TransferOwnership(ctx context.Context, playerID uuid.UUID, ownerID *uuid.UUID) error
}

// OutboxApp defines what the engine needs from the outbox app
type OutboxApp interface {
	InsertListingSettled(ctx context.Context, listingID uuid.UUID, payload []byte) error
	InsertListingExpired(ctx context.Context, listingID uuid.UUID, payload []byte) error
	InsertListingCancelled(ctx context.Context, listingID uuid.UUID, payload []byte) error
	InsertBidPlaced(ctx context.Context, listingID uuid.UUID, payload []byte) error
	InsertOfferMade(ctx context.Context, listingID uuid.UUID, payload []byte) error
	InsertOfferAccepted(ctx context.Context, listingID uuid.UUID, payload []byte) error
	InsertOfferRejected(ctx context.Context, listingID uuid.UUID, payload []byte) error
	InsertOfferExpired(ctx context.Context, listingID uuid.UUID, payload []byte) error
}

// App coordinates the listing, bid, offer and wallet ledgers. Every mutation
// against a listing runs inside that listing's critical section, so request
// handlers and the settlement engine serialize per listing without a global
// lock. Commitment placements additionally hold the acting team's lock, so
// the roster check and the insert it gates are one critical section even
// when the team acts on many listings at once. Wallet mutations serialize
// per team inside the wallet app, independent of both. Lock order is always
// listing, then team.
type App struct {
	listings ListingApp
	bids     BidApp
	offers   OfferApp
	wallet   WalletApp
	roster   RosterApp
	registry RegistryApp
	outbox   OutboxApp
	clock    clockwork.Clock
	config   Config

	listingLocks *keymutex.Map
	playerLocks  *keymutex.Map // serializes listing creation per player
	teamLocks    *keymutex.Map // serializes roster check + commitment insert per team
}

func NewApp(
	listings ListingApp,
	bids BidApp,
	offers OfferApp,
	wallet WalletApp,
	roster RosterApp,
	registry RegistryApp,
	outbox OutboxApp,
	clock clockwork.Clock,
	config Config,
) *App {
	if config.ExpiredSalePolicy == "" {
		config.ExpiredSalePolicy = ExpiredSaleMarketBuyout
	}
	return &App{
		listings:     listings,
		bids:         bids,
		offers:       offers,
		wallet:       wallet,
		roster:       roster,
		registry:     registry,
		outbox:       outbox,
		clock:        clock,
		config:       config,
		listingLocks: keymutex.New(),
		playerLocks:  keymutex.New(),
		teamLocks:    keymutex.New(),
	}
}

// Commitments counts a team's open acquisitions (ACTIVE bids plus PENDING
// offers) for the roster gate.
type Commitments struct {
	Bids   BidApp
	Offers OfferApp
}

func (c Commitments) CountOpenCommitments(ctx context.Context, teamID uuid.UUID) (int, error) {
	bids, err := c.Bids.CountActiveByTeam(ctx, teamID)
	if err != nil {
		return 0, err
	}
	offers, err := c.Offers.CountPendingByTeam(ctx, teamID)
	if err != nil {
		return 0, err
	}
	return bids + offers, nil
}

func marshalPayload(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return data, nil
}
