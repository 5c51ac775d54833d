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

// BidStore implements the bid repository over Postgres.
type BidStore struct {
	db *sql.DB
}

func NewBidStore(db *sql.DB) *BidStore {
	return &BidStore{db: db}
}

const bidColumns = `id, listing_id, team_id, amount, reservation_id, state, created_at, resolved_at`

func (s *BidStore) CreateBid(ctx context.Context, bid *models.Bid) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bids (`+bidColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		bid.ID, bid.ListingID, bid.TeamID, bid.Amount, bid.ReservationID,
		bid.State, bid.CreatedAt, sqlutil.ToSqlTime(bid.ResolvedAt),
	)
	return err
}

func (s *BidStore) GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE id = $1`, id)
	b, err := scanBid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bid %s: %w", id, errs.ErrNotFound)
	}
	return b, err
}

func (s *BidStore) GetActiveBidByListingAndTeam(ctx context.Context, listingID, teamID uuid.UUID) (*models.Bid, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids
		 WHERE listing_id = $1 AND team_id = $2 AND state = 'ACTIVE'`, listingID, teamID)
	b, err := scanBid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no active bid for team %s on listing %s: %w", teamID, listingID, errs.ErrNotFound)
	}
	return b, err
}

func (s *BidStore) ListActiveBidsByListing(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids
		 WHERE listing_id = $1 AND state = 'ACTIVE'
		 ORDER BY amount DESC, created_at ASC`, listingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBids(rows)
}

func (s *BidStore) ListActiveBidsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Bid, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids
		 WHERE team_id = $1 AND state = 'ACTIVE'
		 ORDER BY created_at ASC`, teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBids(rows)
}

func (s *BidStore) CountActiveBidsByTeam(ctx context.Context, teamID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bids WHERE team_id = $1 AND state = 'ACTIVE'`, teamID,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *BidStore) UpdateBidState(ctx context.Context, id uuid.UUID, state models.BidState, resolvedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE bids SET state = $2, resolved_at = $3 WHERE id = $1`,
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
		return fmt.Errorf("bid %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (s *BidStore) UpdateBidReservation(ctx context.Context, id, reservationID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE bids SET reservation_id = $2 WHERE id = $1`,
		id, reservationID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("bid %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func scanBid(row *sql.Row) (*models.Bid, error) {
	var b models.Bid
	var resolvedAt sql.NullTime
	err := row.Scan(&b.ID, &b.ListingID, &b.TeamID, &b.Amount, &b.ReservationID,
		&b.State, &b.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	b.ResolvedAt = sqlutil.FromSqlTime(resolvedAt)
	return &b, nil
}

func scanBids(rows *sql.Rows) ([]models.Bid, error) {
	var out []models.Bid
	for rows.Next() {
		var b models.Bid
		var resolvedAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.ListingID, &b.TeamID, &b.Amount, &b.ReservationID,
			&b.State, &b.CreatedAt, &resolvedAt); err != nil {
			return nil, err
		}
		b.ResolvedAt = sqlutil.FromSqlTime(resolvedAt)
		out = append(out, b)
	}
	return out, rows.Err()
}
