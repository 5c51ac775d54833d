package roster

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/models"
)

// Repository defines what the roster gate needs from storage
type Repository interface {
	CountOwnedPlayers(ctx context.Context, teamID uuid.UUID) (int, error)
	CountOwnedByPosition(ctx context.Context, teamID uuid.UUID) (map[models.Position]int, error)
}

// CommitmentCounter reports how many acquisitions a team is speculatively
// committed to: its ACTIVE bids plus PENDING offers. The engine implements
// this over the bid and offer ledgers.
type CommitmentCounter interface {
	CountOpenCommitments(ctx context.Context, teamID uuid.UUID) (int, error)
}
