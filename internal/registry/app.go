package registry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/models"
	"github.com/rs/zerolog/log"
)

// App is the player registry: the single source of truth for ownership, base
// value and position. Ownership is mutated only through TransferOwnership,
// which the engine calls from its transfer primitive — never from
// client-facing validation code.
type App struct {
	repo Repository
}

func NewApp(repo Repository) *App {
	return &App{repo: repo}
}

func (a *App) CreatePlayer(ctx context.Context, player *models.Player) error {
	if player.FullName == "" {
		return errs.Validation("full_name", "is required")
	}
	if player.BaseValue <= 0 {
		return errs.Validation("base_value", "must be positive, got %d", player.BaseValue)
	}
	switch player.Position {
	case models.PositionGoalkeeper, models.PositionDefender, models.PositionMidfielder, models.PositionForward:
	default:
		return errs.Validation("position", "unknown position %q", player.Position)
	}
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	if err := a.repo.CreatePlayer(ctx, player); err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (a *App) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	player, err := a.repo.GetPlayer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

// TransferOwnership moves a player to a new owner (nil = unowned pool).
// Setting the owner a player already has is a no-op so settlement retries
// stay safe.
func (a *App) TransferOwnership(ctx context.Context, playerID uuid.UUID, ownerID *uuid.UUID) error {
	player, err := a.repo.GetPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}
	if ownersEqual(player.OwnerID, ownerID) {
		return nil
	}

	if err := a.repo.UpdatePlayerOwner(ctx, playerID, ownerID); err != nil {
		return fmt.Errorf("failed to update player owner: %w", err)
	}

	evt := log.Info().Str("player_id", playerID.String())
	if ownerID != nil {
		evt = evt.Str("owner_id", ownerID.String())
	} else {
		evt = evt.Str("owner_id", "unowned")
	}
	evt.Msg("transferred player ownership")
	return nil
}

func (a *App) ListPlayersByOwner(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	players, err := a.repo.ListPlayersByOwner(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players by owner: %w", err)
	}
	return players, nil
}

func (a *App) ListUnownedPlayers(ctx context.Context) ([]models.Player, error) {
	players, err := a.repo.ListUnownedPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unowned players: %w", err)
	}
	return players, nil
}

func ownersEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
