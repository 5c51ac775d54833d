package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/models"
	"github.com/mcdev12/transfermarket/internal/sqlutil"
)

// PlayerStore implements the registry and roster repositories over Postgres.
type PlayerStore struct {
	db *sql.DB
}

func NewPlayerStore(db *sql.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, full_name, position, base_value, points, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		player.ID, player.FullName, player.Position, player.BaseValue, player.Points,
		sqlutil.ToNullUUID(player.OwnerID), player.CreatedAt,
	)
	return err
}

func (s *PlayerStore) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var p models.Player
	var owner uuid.NullUUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, position, base_value, points, owner_id, created_at
		 FROM players WHERE id = $1`, id,
	).Scan(&p.ID, &p.FullName, &p.Position, &p.BaseValue, &p.Points, &owner, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	p.OwnerID = sqlutil.FromNullUUID(owner)
	return &p, nil
}

func (s *PlayerStore) UpdatePlayerOwner(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE players SET owner_id = $2 WHERE id = $1`,
		id, sqlutil.ToNullUUID(ownerID),
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("player %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (s *PlayerStore) ListPlayersByOwner(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, full_name, position, base_value, points, owner_id, created_at
		 FROM players WHERE owner_id = $1 ORDER BY full_name`, teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayers(rows)
}

func (s *PlayerStore) ListUnownedPlayers(ctx context.Context) ([]models.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, full_name, position, base_value, points, owner_id, created_at
		 FROM players WHERE owner_id IS NULL ORDER BY full_name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayers(rows)
}

func (s *PlayerStore) CountOwnedPlayers(ctx context.Context, teamID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM players WHERE owner_id = $1`, teamID,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PlayerStore) CountOwnedByPosition(ctx context.Context, teamID uuid.UUID) (map[models.Position]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, COUNT(*) FROM players WHERE owner_id = $1 GROUP BY position`, teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Position]int)
	for rows.Next() {
		var pos models.Position
		var n int
		if err := rows.Scan(&pos, &n); err != nil {
			return nil, err
		}
		counts[pos] = n
	}
	return counts, rows.Err()
}

func scanPlayers(rows *sql.Rows) ([]models.Player, error) {
	var out []models.Player
	for rows.Next() {
		var p models.Player
		var owner uuid.NullUUID
		if err := rows.Scan(&p.ID, &p.FullName, &p.Position, &p.BaseValue, &p.Points, &owner, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.OwnerID = sqlutil.FromNullUUID(owner)
		out = append(out, p)
	}
	return out, rows.Err()
}
