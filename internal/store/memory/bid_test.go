package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/models"
)

func TestListActiveBidsByListingOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewBidStore()
	listingID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mkBid := func(amount int64, placedAt time.Time, state models.BidState) *models.Bid {
		return &models.Bid{
			ID:            uuid.New(),
			ListingID:     listingID,
			TeamID:        uuid.New(),
			Amount:        amount,
			ReservationID: uuid.New(),
			State:         state,
			CreatedAt:     placedAt,
		}
	}

	early := mkBid(200, base, models.BidStateActive)
	late := mkBid(200, base.Add(time.Minute), models.BidStateActive)
	low := mkBid(150, base.Add(2*time.Minute), models.BidStateActive)
	withdrawn := mkBid(500, base, models.BidStateWithdrawn)

	for _, b := range []*models.Bid{low, late, early, withdrawn} {
		if err := store.CreateBid(ctx, b); err != nil {
			t.Fatalf("CreateBid: %v", err)
		}
	}

	bids, err := store.ListActiveBidsByListing(ctx, listingID)
	if err != nil {
		t.Fatalf("ListActiveBidsByListing: %v", err)
	}

	// Highest amount first; equal amounts ordered by placement time; only
	// ACTIVE bids appear. The head is the settlement winner.
	want := []uuid.UUID{early.ID, late.ID, low.ID}
	if len(bids) != len(want) {
		t.Fatalf("len(bids) = %d, want %d", len(bids), len(want))
	}
	for i, id := range want {
		if bids[i].ID != id {
			t.Errorf("bids[%d] = %s, want %s", i, bids[i].ID, id)
		}
	}
}

func TestGetActiveBidByListingAndTeamIgnoresResolved(t *testing.T) {
	ctx := context.Background()
	store := NewBidStore()
	listingID := uuid.New()
	teamID := uuid.New()

	resolved := &models.Bid{
		ID: uuid.New(), ListingID: listingID, TeamID: teamID,
		Amount: 100, ReservationID: uuid.New(), State: models.BidStateLost,
		CreatedAt: time.Now(),
	}
	if err := store.CreateBid(ctx, resolved); err != nil {
		t.Fatalf("CreateBid: %v", err)
	}

	if _, err := store.GetActiveBidByListingAndTeam(ctx, listingID, teamID); err == nil {
		t.Fatal("GetActiveBidByListingAndTeam found a resolved bid, want not-found")
	}
}
