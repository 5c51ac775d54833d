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

// OfferStore implements the offer repository over Postgres.
type OfferStore struct {
	db *sql.DB
}

func NewOfferStore(db *sql.DB) *OfferStore {
	return &OfferStore{db: db}
}

const offerColumns = `id, listing_id, team_id, amount, reservation_id, state, created_at, resolved_at`

func (s *OfferStore) CreateOffer(ctx context.Context, offer *models.Offer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO offers (`+offerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		offer.ID, offer.ListingID, offer.TeamID, offer.Amount, offer.ReservationID,
		offer.State, offer.CreatedAt, sqlutil.ToSqlTime(offer.ResolvedAt),
	)
	return err
}

func (s *OfferStore) GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	o, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("offer %s: %w", id, errs.ErrNotFound)
	}
	return o, err
}

func (s *OfferStore) GetPendingOfferByListingAndTeam(ctx context.Context, listingID, teamID uuid.UUID) (*models.Offer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE listing_id = $1 AND team_id = $2 AND state = 'PENDING'`, listingID, teamID)
	o, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no pending offer for team %s on listing %s: %w", teamID, listingID, errs.ErrNotFound)
	}
	return o, err
}

func (s *OfferStore) ListPendingOffersByListing(ctx context.Context, listingID uuid.UUID) ([]models.Offer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE listing_id = $1 AND state = 'PENDING'
		 ORDER BY created_at ASC`, listingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

func (s *OfferStore) ListPendingOffersByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Offer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE team_id = $1 AND state = 'PENDING'
		 ORDER BY created_at ASC`, teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

func (s *OfferStore) CountPendingOffersByTeam(ctx context.Context, teamID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM offers WHERE team_id = $1 AND state = 'PENDING'`, teamID,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *OfferStore) UpdateOfferState(ctx context.Context, id uuid.UUID, state models.OfferState, resolvedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE offers SET state = $2, resolved_at = $3 WHERE id = $1`,
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
		return fmt.Errorf("offer %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (s *OfferStore) UpdateOfferReservation(ctx context.Context, id, reservationID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE offers SET reservation_id = $2 WHERE id = $1`,
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
		return fmt.Errorf("offer %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func scanOffer(row *sql.Row) (*models.Offer, error) {
	var o models.Offer
	var resolvedAt sql.NullTime
	err := row.Scan(&o.ID, &o.ListingID, &o.TeamID, &o.Amount, &o.ReservationID,
		&o.State, &o.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	o.ResolvedAt = sqlutil.FromSqlTime(resolvedAt)
	return &o, nil
}

func scanOffers(rows *sql.Rows) ([]models.Offer, error) {
	var out []models.Offer
	for rows.Next() {
		var o models.Offer
		var resolvedAt sql.NullTime
		if err := rows.Scan(&o.ID, &o.ListingID, &o.TeamID, &o.Amount, &o.ReservationID,
			&o.State, &o.CreatedAt, &resolvedAt); err != nil {
			return nil, err
		}
		o.ResolvedAt = sqlutil.FromSqlTime(resolvedAt)
		out = append(out, o)
	}
	return out, rows.Err()
}
