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

// OfferStore holds offers.
type OfferStore struct {
	mu     sync.RWMutex
	offers map[uuid.UUID]*models.Offer
}

func NewOfferStore() *OfferStore {
	return &OfferStore{offers: make(map[uuid.UUID]*models.Offer)}
}

func (s *OfferStore) CreateOffer(ctx context.Context, offer *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.offers[offer.ID]; exists {
		return fmt.Errorf("offer %s already exists", offer.ID)
	}
	clone := cloneOffer(offer)
	s.offers[offer.ID] = clone
	return nil
}

func (s *OfferStore) GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offers[id]
	if !ok {
		return nil, fmt.Errorf("offer %s: %w", id, errs.ErrNotFound)
	}
	return cloneOffer(o), nil
}

func (s *OfferStore) GetPendingOfferByListingAndTeam(ctx context.Context, listingID, teamID uuid.UUID) (*models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.offers {
		if o.ListingID == listingID && o.TeamID == teamID && o.State == models.OfferStatePending {
			return cloneOffer(o), nil
		}
	}
	return nil, fmt.Errorf("no pending offer for team %s on listing %s: %w", teamID, listingID, errs.ErrNotFound)
}

func (s *OfferStore) ListPendingOffersByListing(ctx context.Context, listingID uuid.UUID) ([]models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Offer
	for _, o := range s.offers {
		if o.ListingID == listingID && o.State == models.OfferStatePending {
			out = append(out, *cloneOffer(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *OfferStore) ListPendingOffersByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Offer
	for _, o := range s.offers {
		if o.TeamID == teamID && o.State == models.OfferStatePending {
			out = append(out, *cloneOffer(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *OfferStore) CountPendingOffersByTeam(ctx context.Context, teamID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, o := range s.offers {
		if o.TeamID == teamID && o.State == models.OfferStatePending {
			n++
		}
	}
	return n, nil
}

func (s *OfferStore) UpdateOfferState(ctx context.Context, id uuid.UUID, state models.OfferState, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok {
		return fmt.Errorf("offer %s: %w", id, errs.ErrNotFound)
	}
	o.State = state
	o.ResolvedAt = &resolvedAt
	return nil
}

func (s *OfferStore) UpdateOfferReservation(ctx context.Context, id, reservationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok {
		return fmt.Errorf("offer %s: %w", id, errs.ErrNotFound)
	}
	o.ReservationID = reservationID
	return nil
}

func cloneOffer(o *models.Offer) *models.Offer {
	clone := *o
	if o.ResolvedAt != nil {
		resolved := *o.ResolvedAt
		clone.ResolvedAt = &resolved
	}
	return &clone
}
