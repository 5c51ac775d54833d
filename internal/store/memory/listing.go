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

// ListingStore holds listings.
type ListingStore struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]*models.Listing
}

func NewListingStore() *ListingStore {
	return &ListingStore{listings: make(map[uuid.UUID]*models.Listing)}
}

func (s *ListingStore) CreateListing(ctx context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.listings[listing.ID]; exists {
		return fmt.Errorf("listing %s already exists", listing.ID)
	}
	clone := cloneListing(listing)
	s.listings[listing.ID] = clone
	return nil
}

func (s *ListingStore) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, errs.ErrNotFound)
	}
	return cloneListing(l), nil
}

func (s *ListingStore) GetActiveListingByPlayer(ctx context.Context, playerID uuid.UUID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.listings {
		if l.PlayerID == playerID && l.State == models.ListingStateActive {
			return cloneListing(l), nil
		}
	}
	return nil, fmt.Errorf("no active listing for player %s: %w", playerID, errs.ErrNotFound)
}

func (s *ListingStore) UpdateListingState(ctx context.Context, id uuid.UUID, state models.ListingState, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return fmt.Errorf("listing %s: %w", id, errs.ErrNotFound)
	}
	l.State = state
	l.ResolvedAt = &resolvedAt
	return nil
}

func (s *ListingStore) ListExpiredActiveListings(ctx context.Context, asOf time.Time, limit int32) ([]models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Listing
	for _, l := range s.listings {
		if l.State == models.ListingStateActive && !l.ExpiresAt.After(asOf) {
			out = append(out, *cloneListing(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	if limit > 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func cloneListing(l *models.Listing) *models.Listing {
	clone := *l
	if l.SellerID != nil {
		seller := *l.SellerID
		clone.SellerID = &seller
	}
	if l.ResolvedAt != nil {
		resolved := *l.ResolvedAt
		clone.ResolvedAt = &resolved
	}
	return &clone
}
