package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/transfermarket/internal/market/bid"
	"github.com/mcdev12/transfermarket/internal/market/listing"
	"github.com/mcdev12/transfermarket/internal/market/offer"
	"github.com/mcdev12/transfermarket/internal/market/outbox"
	"github.com/mcdev12/transfermarket/internal/models"
	"github.com/mcdev12/transfermarket/internal/registry"
	"github.com/mcdev12/transfermarket/internal/roster"
	"github.com/mcdev12/transfermarket/internal/store/memory"
	"github.com/mcdev12/transfermarket/internal/wallet"
)

const (
	testWindow     = time.Hour
	testRosterSize = 5
)

// harness wires the full engine over in-memory stores.
type harness struct {
	engine       *App
	clock        *clockwork.FakeClock
	walletApp    *wallet.App
	registryApp  *registry.App
	walletStore  *memory.WalletStore
	playerStore  *memory.PlayerStore
	listingStore *memory.ListingStore
	outboxStore  *memory.OutboxStore
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()

	walletStore := memory.NewWalletStore()
	playerStore := memory.NewPlayerStore()
	listingStore := memory.NewListingStore()
	bidStore := memory.NewBidStore()
	offerStore := memory.NewOfferStore()
	outboxStore := memory.NewOutboxStore()

	outboxApp := outbox.NewApp(outboxStore, clock.Now)
	walletApp := wallet.NewApp(walletStore, outboxApp, clock)
	registryApp := registry.NewApp(playerStore)
	listingApp := listing.NewApp(listingStore, outboxApp, clock, listing.Config{Window: testWindow})
	bidApp := bid.NewApp(bidStore, clock)
	offerApp := offer.NewApp(offerStore, clock)
	rosterApp := roster.NewApp(playerStore, Commitments{Bids: bidApp, Offers: offerApp}, roster.Config{
		MaxRosterSize: testRosterSize,
	})

	eng := NewApp(listingApp, bidApp, offerApp, walletApp, rosterApp, registryApp, outboxApp, clock, cfg)

	return &harness{
		engine:       eng,
		clock:        clock,
		walletApp:    walletApp,
		registryApp:  registryApp,
		walletStore:  walletStore,
		playerStore:  playerStore,
		listingStore: listingStore,
		outboxStore:  outboxStore,
	}
}

func (h *harness) addTeam(t *testing.T, balance int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	h.walletStore.SetBalance(id, balance)
	return id
}

func (h *harness) addFreeAgent(t *testing.T, baseValue int64) *models.Player {
	t.Helper()
	p := &models.Player{
		ID:        uuid.New(),
		FullName:  "Free Agent",
		Position:  models.PositionForward,
		BaseValue: baseValue,
		CreatedAt: h.clock.Now(),
	}
	if err := h.playerStore.CreatePlayer(context.Background(), p); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	return p
}

func (h *harness) addOwnedPlayer(t *testing.T, owner uuid.UUID, baseValue int64) *models.Player {
	t.Helper()
	p := h.addFreeAgent(t, baseValue)
	if err := h.playerStore.UpdatePlayerOwner(context.Background(), p.ID, &owner); err != nil {
		t.Fatalf("UpdatePlayerOwner: %v", err)
	}
	p.OwnerID = &owner
	return p
}

func (h *harness) auction(t *testing.T, playerID uuid.UUID) *models.Listing {
	t.Helper()
	l, err := h.engine.CreateAuctionListing(context.Background(), playerID)
	if err != nil {
		t.Fatalf("CreateAuctionListing: %v", err)
	}
	return l
}

func (h *harness) directSale(t *testing.T, playerID, sellerID uuid.UUID, asking int64) *models.Listing {
	t.Helper()
	l, err := h.engine.CreateDirectSaleListing(context.Background(), playerID, sellerID, asking)
	if err != nil {
		t.Fatalf("CreateDirectSaleListing: %v", err)
	}
	return l
}

func (h *harness) available(t *testing.T, teamID uuid.UUID) int64 {
	t.Helper()
	available, err := h.walletApp.Available(context.Background(), teamID)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	return available
}

func (h *harness) balance(t *testing.T, teamID uuid.UUID) int64 {
	t.Helper()
	balance, err := h.walletApp.Balance(context.Background(), teamID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	return balance
}

func (h *harness) owner(t *testing.T, playerID uuid.UUID) *uuid.UUID {
	t.Helper()
	p, err := h.playerStore.GetPlayer(context.Background(), playerID)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	return p.OwnerID
}

func (h *harness) countEvents(eventType string) int {
	n := 0
	for _, e := range h.outboxStore.Events() {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

func TestListTeamCommitments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	team := h.addTeam(t, 1000)
	seller := h.addTeam(t, 0)

	auction := h.auction(t, h.addFreeAgent(t, 100).ID)
	sale := h.directSale(t, h.addOwnedPlayer(t, seller, 100).ID, seller, 80)

	if _, err := h.engine.PlaceBid(ctx, auction.ID, team, 150); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if _, err := h.engine.PlaceOffer(ctx, sale.ID, team, 90); err != nil {
		t.Fatalf("PlaceOffer: %v", err)
	}

	commitments, err := h.engine.ListTeamCommitments(ctx, team)
	if err != nil {
		t.Fatalf("ListTeamCommitments: %v", err)
	}
	if len(commitments.Bids) != 1 || len(commitments.Offers) != 1 {
		t.Errorf("commitments = %d bids, %d offers, want 1 and 1", len(commitments.Bids), len(commitments.Offers))
	}
}

func TestCancelListing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	seller := h.addTeam(t, 0)
	buyer := h.addTeam(t, 500)
	player := h.addOwnedPlayer(t, seller, 100)
	sale := h.directSale(t, player.ID, seller, 80)

	if _, err := h.engine.PlaceOffer(ctx, sale.ID, buyer, 90); err != nil {
		t.Fatalf("PlaceOffer: %v", err)
	}

	t.Run("only seller may cancel", func(t *testing.T) {
		if err := h.engine.CancelListing(ctx, sale.ID, buyer); err == nil {
			t.Fatal("CancelListing by non-seller succeeded, want error")
		}
	})

	if err := h.engine.CancelListing(ctx, sale.ID, seller); err != nil {
		t.Fatalf("CancelListing: %v", err)
	}

	if got := h.available(t, buyer); got != 500 {
		t.Errorf("buyer available after cancel = %d, want 500 (escrow released)", got)
	}
	if owner := h.owner(t, player.ID); owner == nil || *owner != seller {
		t.Errorf("owner after cancel = %v, want seller", owner)
	}
	if n := h.countEvents("listing.cancelled"); n != 1 {
		t.Errorf("listing.cancelled events = %d, want 1", n)
	}
	if n := h.countEvents("offer.expired"); n != 1 {
		t.Errorf("offer.expired events = %d, want 1", n)
	}

	// Cancelled listings take no further mutations.
	if _, err := h.engine.PlaceOffer(ctx, sale.ID, buyer, 90); err == nil {
		t.Fatal("PlaceOffer on cancelled listing succeeded, want error")
	}
}
