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

// ListingStore implements the listing repository over Postgres.
type ListingStore struct {
	db *sql.DB
}

func NewListingStore(db *sql.DB) *ListingStore {
	return &ListingStore{db: db}
}

const listingColumns = `id, player_id, kind, seller_id, asking_price, base_value, state, created_at, expires_at, resolved_at`

func (s *ListingStore) CreateListing(ctx context.Context, listing *models.Listing) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		listing.ID, listing.PlayerID, listing.Kind, sqlutil.ToNullUUID(listing.SellerID),
		listing.AskingPrice, listing.BaseValue, listing.State,
		listing.CreatedAt, listing.ExpiresAt, sqlutil.ToSqlTime(listing.ResolvedAt),
	)
	return err
}

func (s *ListingStore) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, errs.ErrNotFound)
	}
	return l, err
}

func (s *ListingStore) GetActiveListingByPlayer(ctx context.Context, playerID uuid.UUID) (*models.Listing, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE player_id = $1 AND state = 'ACTIVE'`, playerID)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no active listing for player %s: %w", playerID, errs.ErrNotFound)
	}
	return l, err
}

func (s *ListingStore) UpdateListingState(ctx context.Context, id uuid.UUID, state models.ListingState, resolvedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE listings SET state = $2, resolved_at = $3 WHERE id = $1`,
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
		return fmt.Errorf("listing %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (s *ListingStore) ListExpiredActiveListings(ctx context.Context, asOf time.Time, limit int32) ([]models.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE state = 'ACTIVE' AND expires_at <= $1
		 ORDER BY expires_at ASC
		 LIMIT $2`, asOf, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		var l models.Listing
		var seller uuid.NullUUID
		var resolvedAt sql.NullTime
		if err := rows.Scan(&l.ID, &l.PlayerID, &l.Kind, &seller, &l.AskingPrice, &l.BaseValue,
			&l.State, &l.CreatedAt, &l.ExpiresAt, &resolvedAt); err != nil {
			return nil, err
		}
		l.SellerID = sqlutil.FromNullUUID(seller)
		l.ResolvedAt = sqlutil.FromSqlTime(resolvedAt)
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanListing(row *sql.Row) (*models.Listing, error) {
	var l models.Listing
	var seller uuid.NullUUID
	var resolvedAt sql.NullTime
	err := row.Scan(&l.ID, &l.PlayerID, &l.Kind, &seller, &l.AskingPrice, &l.BaseValue,
		&l.State, &l.CreatedAt, &l.ExpiresAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	l.SellerID = sqlutil.FromNullUUID(seller)
	l.ResolvedAt = sqlutil.FromSqlTime(resolvedAt)
	return &l, nil
}
