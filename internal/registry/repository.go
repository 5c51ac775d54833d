package registry

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/models"
)

// Repository defines what the registry app needs from storage
type Repository interface {
	CreatePlayer(ctx context.Context, player *models.Player) error
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	UpdatePlayerOwner(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) error
	ListPlayersByOwner(ctx context.Context, teamID uuid.UUID) ([]models.Player, error)
	ListUnownedPlayers(ctx context.Context) ([]models.Player, error)
}
