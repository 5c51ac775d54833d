package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/models"
)

func TestPlaceOfferMeetsAskingPrice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	seller := h.addTeam(t, 0)
	buyer := h.addTeam(t, 1000)
	sale := h.directSale(t, h.addOwnedPlayer(t, seller, 100).ID, seller, 80)

	if _, err := h.engine.PlaceOffer(ctx, sale.ID, buyer, 79); !errs.IsValidation(err) {
		t.Fatalf("PlaceOffer below asking = %v, want validation error", err)
	}

	// Exactly the asking price is acceptable, unlike the strict bid floor.
	o, err := h.engine.PlaceOffer(ctx, sale.ID, buyer, 80)
	if err != nil {
		t.Fatalf("PlaceOffer at asking: %v", err)
	}
	if o.State != models.OfferStatePending {
		t.Errorf("offer state = %s, want PENDING", o.State)
	}
	if got := h.available(t, buyer); got != 920 {
		t.Errorf("available = %d, want 920", got)
	}
}

func TestAcceptOfferCascade(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	seller := h.addTeam(t, 100)
	winner := h.addTeam(t, 1000)
	loser := h.addTeam(t, 1000)
	player := h.addOwnedPlayer(t, seller, 100)
	sale := h.directSale(t, player.ID, seller, 80)

	won, err := h.engine.PlaceOffer(ctx, sale.ID, winner, 95)
	if err != nil {
		t.Fatalf("PlaceOffer(winner): %v", err)
	}
	lost, err := h.engine.PlaceOffer(ctx, sale.ID, loser, 85)
	if err != nil {
		t.Fatalf("PlaceOffer(loser): %v", err)
	}

	if err := h.engine.AcceptOffer(ctx, won.ID, winner); !errs.IsValidation(err) {
		t.Fatalf("AcceptOffer by non-seller = %v, want validation error", err)
	}

	if err := h.engine.AcceptOffer(ctx, won.ID, seller); err != nil {
		t.Fatalf("AcceptOffer: %v", err)
	}

	// Money moved buyer -> seller.
	if got := h.balance(t, winner); got != 905 {
		t.Errorf("winner balance = %d, want 905", got)
	}
	if got := h.balance(t, seller); got != 195 {
		t.Errorf("seller balance = %d, want 195", got)
	}

	// Ownership transferred.
	if owner := h.owner(t, player.ID); owner == nil || *owner != winner {
		t.Errorf("owner = %v, want winner %s", owner, winner)
	}

	// Loser's escrow released, offer expired.
	if got := h.available(t, loser); got != 1000 {
		t.Errorf("loser available = %d, want 1000", got)
	}
	lostOffer, err := h.engine.offers.GetOffer(ctx, lost.ID)
	if err != nil {
		t.Fatalf("GetOffer: %v", err)
	}
	if lostOffer.State != models.OfferStateExpired {
		t.Errorf("superseded offer state = %s, want EXPIRED", lostOffer.State)
	}

	for _, want := range []struct {
		eventType string
		n         int
	}{
		{"offer.accepted", 1},
		{"offer.expired", 1},
		{"listing.settled", 1},
	} {
		if n := h.countEvents(want.eventType); n != want.n {
			t.Errorf("%s events = %d, want %d", want.eventType, n, want.n)
		}
	}

	// The cascade is terminal: accepting again conflicts.
	if err := h.engine.AcceptOffer(ctx, won.ID, seller); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("second AcceptOffer = %v, want ErrStateConflict", err)
	}
}

func TestRejectOfferKeepsListingOpen(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	seller := h.addTeam(t, 0)
	buyer := h.addTeam(t, 1000)
	sale := h.directSale(t, h.addOwnedPlayer(t, seller, 100).ID, seller, 80)

	o, err := h.engine.PlaceOffer(ctx, sale.ID, buyer, 90)
	if err != nil {
		t.Fatalf("PlaceOffer: %v", err)
	}
	if err := h.engine.RejectOffer(ctx, o.ID, seller); err != nil {
		t.Fatalf("RejectOffer: %v", err)
	}

	if got := h.available(t, buyer); got != 1000 {
		t.Errorf("available after reject = %d, want 1000", got)
	}

	// Listing stays ACTIVE; the buyer may offer again.
	if _, err := h.engine.PlaceOffer(ctx, sale.ID, buyer, 85); err != nil {
		t.Fatalf("PlaceOffer after reject: %v", err)
	}
	if n := h.countEvents("offer.rejected"); n != 1 {
		t.Errorf("offer.rejected events = %d, want 1", n)
	}
}

func TestEditOfferFailureRestoresOriginal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	seller := h.addTeam(t, 0)
	buyer := h.addTeam(t, 100)
	sale := h.directSale(t, h.addOwnedPlayer(t, seller, 100).ID, seller, 80)

	o, err := h.engine.PlaceOffer(ctx, sale.ID, buyer, 90)
	if err != nil {
		t.Fatalf("PlaceOffer: %v", err)
	}

	if _, err := h.engine.EditOffer(ctx, o.ID, buyer, 200); !errors.Is(err, errs.ErrInsufficientFunds) {
		t.Fatalf("EditOffer = %v, want ErrInsufficientFunds", err)
	}

	cur, err := h.engine.offers.GetOffer(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetOffer: %v", err)
	}
	if cur.State != models.OfferStatePending {
		t.Errorf("offer state after failed edit = %s, want PENDING", cur.State)
	}
	if got := h.available(t, buyer); got != 10 {
		t.Errorf("available after failed edit = %d, want 10 (90 still held)", got)
	}
}

func TestWithdrawOffer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	seller := h.addTeam(t, 0)
	buyer := h.addTeam(t, 1000)
	sale := h.directSale(t, h.addOwnedPlayer(t, seller, 100).ID, seller, 80)

	o, err := h.engine.PlaceOffer(ctx, sale.ID, buyer, 90)
	if err != nil {
		t.Fatalf("PlaceOffer: %v", err)
	}
	if err := h.engine.WithdrawOffer(ctx, o.ID, buyer); err != nil {
		t.Fatalf("WithdrawOffer: %v", err)
	}
	if got := h.available(t, buyer); got != 1000 {
		t.Errorf("available after withdraw = %d, want 1000", got)
	}

	// Withdrawn offers cannot be accepted.
	if err := h.engine.AcceptOffer(ctx, o.ID, seller); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("AcceptOffer on withdrawn = %v, want ErrStateConflict", err)
	}
}
