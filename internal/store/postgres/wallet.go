// Package postgres provides store implementations over database/sql with the
// lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/models"
	"github.com/mcdev12/transfermarket/internal/sqlutil"
)

// WalletStore implements the wallet repository over Postgres.
type WalletStore struct {
	db *sql.DB
}

func NewWalletStore(db *sql.DB) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) GetBalance(ctx context.Context, teamID uuid.UUID) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM wallets WHERE team_id = $1`, teamID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("no wallet for team %s: %w", teamID, errs.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *WalletStore) ApplyTransaction(ctx context.Context, txn *models.WalletTransaction, delta int64) error {
	return sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		var balanceAfter int64
		err := tx.QueryRowContext(ctx,
			`UPDATE wallets SET balance = balance + $2 WHERE team_id = $1 RETURNING balance`,
			txn.TeamID, delta,
		).Scan(&balanceAfter)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no wallet for team %s: %w", txn.TeamID, errs.ErrNotFound)
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO wallet_transactions (id, team_id, amount, type, reference_id, balance_after, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			txn.ID, txn.TeamID, txn.Amount, txn.Type, txn.ReferenceID, balanceAfter, txn.CreatedAt,
		)
		return err
	})
}

func (s *WalletStore) HasTransaction(ctx context.Context, teamID uuid.UUID, txnType models.TransactionType, refID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM wallet_transactions
			WHERE team_id = $1 AND type = $2 AND reference_id = $3
		 )`,
		teamID, txnType, refID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *WalletStore) CreateReservation(ctx context.Context, res *models.Reservation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reservations (id, team_id, amount, listing_id, state, created_at, resolved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.TeamID, res.Amount, res.ListingID, res.State, res.CreatedAt, sqlutil.ToSqlTime(res.ResolvedAt),
	)
	return err
}

func (s *WalletStore) GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var res models.Reservation
	var resolvedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, team_id, amount, listing_id, state, created_at, resolved_at
		 FROM reservations WHERE id = $1`, id,
	).Scan(&res.ID, &res.TeamID, &res.Amount, &res.ListingID, &res.State, &res.CreatedAt, &resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reservation %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	res.ResolvedAt = sqlutil.FromSqlTime(resolvedAt)
	return &res, nil
}

func (s *WalletStore) UpdateReservationState(ctx context.Context, id uuid.UUID, state models.ReservationState, resolvedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE reservations SET state = $2, resolved_at = $3 WHERE id = $1`,
		id, state, resolvedAt,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("reservation %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (s *WalletStore) SumActiveReservations(ctx context.Context, teamID uuid.UUID) (int64, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM reservations WHERE team_id = $1 AND state = 'ACTIVE'`,
		teamID,
	).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum, nil
}
