package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/models"
)

// PlayerStore holds the player registry. It backs both the registry app and
// the roster gate's ownership counts.
type PlayerStore struct {
	mu      sync.RWMutex
	players map[uuid.UUID]*models.Player
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[uuid.UUID]*models.Player)}
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.players[player.ID]; exists {
		return fmt.Errorf("player %s already exists", player.ID)
	}
	clone := clonePlayer(player)
	s.players[player.ID] = clone
	return nil
}

func (s *PlayerStore) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", id, errs.ErrNotFound)
	}
	return clonePlayer(p), nil
}

func (s *PlayerStore) UpdatePlayerOwner(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return fmt.Errorf("player %s: %w", id, errs.ErrNotFound)
	}
	if ownerID == nil {
		p.OwnerID = nil
	} else {
		owner := *ownerID
		p.OwnerID = &owner
	}
	return nil
}

func (s *PlayerStore) ListPlayersByOwner(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Player
	for _, p := range s.players {
		if p.OwnerID != nil && *p.OwnerID == teamID {
			out = append(out, *clonePlayer(p))
		}
	}
	return out, nil
}

func (s *PlayerStore) ListUnownedPlayers(ctx context.Context) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Player
	for _, p := range s.players {
		if p.OwnerID == nil {
			out = append(out, *clonePlayer(p))
		}
	}
	return out, nil
}

func (s *PlayerStore) CountOwnedPlayers(ctx context.Context, teamID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.players {
		if p.OwnerID != nil && *p.OwnerID == teamID {
			n++
		}
	}
	return n, nil
}

func (s *PlayerStore) CountOwnedByPosition(ctx context.Context, teamID uuid.UUID) (map[models.Position]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Position]int)
	for _, p := range s.players {
		if p.OwnerID != nil && *p.OwnerID == teamID {
			counts[p.Position]++
		}
	}
	return counts, nil
}

func clonePlayer(p *models.Player) *models.Player {
	clone := *p
	if p.OwnerID != nil {
		owner := *p.OwnerID
		clone.OwnerID = &owner
	}
	return &clone
}
