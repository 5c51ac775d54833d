package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/models"
)

// BidStore holds bids.
type BidStore struct {
	mu   sync.RWMutex
	bids map[uuid.UUID]*models.Bid
}

func NewBidStore() *BidStore {
	return &BidStore{bids: make(map[uuid.UUID]*models.Bid)}
}

func (s *BidStore) CreateBid(ctx context.Context, bid *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bids[bid.ID]; exists {
		return fmt.Errorf("bid %s already exists", bid.ID)
	}
	clone := cloneBid(bid)
	s.bids[bid.ID] = clone
	return nil
}

func (s *BidStore) GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bids[id]
	if !ok {
		return nil, fmt.Errorf("bid %s: %w", id, errs.ErrNotFound)
	}
	return cloneBid(b), nil
}

func (s *BidStore) GetActiveBidByListingAndTeam(ctx context.Context, listingID, teamID uuid.UUID) (*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bids {
		if b.ListingID == listingID && b.TeamID == teamID && b.State == models.BidStateActive {
			return cloneBid(b), nil
		}
	}
	return nil, fmt.Errorf("no active bid for team %s on listing %s: %w", teamID, listingID, errs.ErrNotFound)
}

func (s *BidStore) ListActiveBidsByListing(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Bid
	for _, b := range s.bids {
		if b.ListingID == listingID && b.State == models.BidStateActive {
			out = append(out, *cloneBid(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *BidStore) ListActiveBidsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Bid
	for _, b := range s.bids {
		if b.TeamID == teamID && b.State == models.BidStateActive {
			out = append(out, *cloneBid(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *BidStore) CountActiveBidsByTeam(ctx context.Context, teamID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.bids {
		if b.TeamID == teamID && b.State == models.BidStateActive {
			n++
		}
	}
	return n, nil
}

func (s *BidStore) UpdateBidState(ctx context.Context, id uuid.UUID, state models.BidState, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[id]
	if !ok {
		return fmt.Errorf("bid %s: %w", id, errs.ErrNotFound)
	}
	b.State = state
	b.ResolvedAt = &resolvedAt
	return nil
}

func (s *BidStore) UpdateBidReservation(ctx context.Context, id, reservationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[id]
	if !ok {
		return fmt.Errorf("bid %s: %w", id, errs.ErrNotFound)
	}
	b.ReservationID = reservationID
	return nil
}

func cloneBid(b *models.Bid) *models.Bid {
	clone := *b
	if b.ResolvedAt != nil {
		resolved := *b.ResolvedAt
		clone.ResolvedAt = &resolved
	}
	return &clone
}
