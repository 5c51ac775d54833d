// Package memory provides in-memory store implementations backed by maps.
// They satisfy the same repository interfaces as the postgres stores and are
// used in tests and single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/models"
)

// WalletStore holds team balances, escrow reservations and the transaction
// journal.
type WalletStore struct {
	mu           sync.RWMutex
	balances     map[uuid.UUID]int64
	reservations map[uuid.UUID]*models.Reservation
	journal      []models.WalletTransaction
}

func NewWalletStore() *WalletStore {
	return &WalletStore{
		balances:     make(map[uuid.UUID]int64),
		reservations: make(map[uuid.UUID]*models.Reservation),
	}
}

// SetBalance initializes or overwrites a team's balance. Seed-time only;
// runtime mutations go through ApplyTransaction.
func (s *WalletStore) SetBalance(teamID uuid.UUID, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[teamID] = balance
}

func (s *WalletStore) GetBalance(ctx context.Context, teamID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, ok := s.balances[teamID]
	if !ok {
		return 0, fmt.Errorf("no wallet for team %s: %w", teamID, errs.ErrNotFound)
	}
	return balance, nil
}

func (s *WalletStore) ApplyTransaction(ctx context.Context, txn *models.WalletTransaction, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[txn.TeamID]
	if !ok {
		return fmt.Errorf("no wallet for team %s: %w", txn.TeamID, errs.ErrNotFound)
	}
	balance += delta
	s.balances[txn.TeamID] = balance

	entry := *txn
	entry.BalanceAfter = balance
	s.journal = append(s.journal, entry)
	return nil
}

func (s *WalletStore) HasTransaction(ctx context.Context, teamID uuid.UUID, txnType models.TransactionType, refID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.journal {
		if entry.TeamID == teamID && entry.Type == txnType && entry.ReferenceID == refID {
			return true, nil
		}
	}
	return false, nil
}

func (s *WalletStore) CreateReservation(ctx context.Context, res *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reservations[res.ID]; exists {
		return fmt.Errorf("reservation %s already exists", res.ID)
	}
	clone := *res
	s.reservations[res.ID] = &clone
	return nil
}

func (s *WalletStore) GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %s: %w", id, errs.ErrNotFound)
	}
	clone := *res
	return &clone, nil
}

func (s *WalletStore) UpdateReservationState(ctx context.Context, id uuid.UUID, state models.ReservationState, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s: %w", id, errs.ErrNotFound)
	}
	res.State = state
	res.ResolvedAt = &resolvedAt
	return nil
}

func (s *WalletStore) SumActiveReservations(ctx context.Context, teamID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum int64
	for _, res := range s.reservations {
		if res.TeamID == teamID && res.State == models.ReservationStateActive {
			sum += res.Amount
		}
	}
	return sum, nil
}

// Journal returns a copy of the transaction journal, oldest first.
func (s *WalletStore) Journal() []models.WalletTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WalletTransaction, len(s.journal))
	copy(out, s.journal)
	return out
}
