package roster

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/models"
)

type Config struct {
	MaxRosterSize      int
	PositionalMinimums map[models.Position]int
}

// App is the roster gate: it answers how many more players a team can commit
// to acquiring. Slots are recomputed on every call, never cached, because
// concurrent placements by the same team change the commitment count.
type App struct {
	repo        Repository
	commitments CommitmentCounter
	config      Config
}

func NewApp(repo Repository, commitments CommitmentCounter, config Config) *App {
	return &App{
		repo:        repo,
		commitments: commitments,
		config:      config,
	}
}

func (a *App) SquadSize(ctx context.Context, teamID uuid.UUID) (int, error) {
	size, err := a.repo.CountOwnedPlayers(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to count owned players: %w", err)
	}
	return size, nil
}

// AvailableSlots = max roster size − owned players − open commitments
// (ACTIVE bids and PENDING offers). A team cannot commit to more players
// than it has room for, even speculatively.
func (a *App) AvailableSlots(ctx context.Context, teamID uuid.UUID) (int, error) {
	owned, err := a.repo.CountOwnedPlayers(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to count owned players: %w", err)
	}
	committed, err := a.commitments.CountOpenCommitments(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to count open commitments: %w", err)
	}
	return a.config.MaxRosterSize - owned - committed, nil
}

func (a *App) CanCommit(ctx context.Context, teamID uuid.UUID) (bool, error) {
	slots, err := a.AvailableSlots(ctx, teamID)
	if err != nil {
		return false, err
	}
	return slots > 0, nil
}

// PositionalMinimumsSatisfied reports whether the team's squad still covers
// the configured per-position minimums. Sell-side validation outside the
// engine consumes this.
func (a *App) PositionalMinimumsSatisfied(ctx context.Context, teamID uuid.UUID) (bool, error) {
	counts, err := a.repo.CountOwnedByPosition(ctx, teamID)
	if err != nil {
		return false, fmt.Errorf("failed to count players by position: %w", err)
	}
	for pos, min := range a.config.PositionalMinimums {
		if counts[pos] < min {
			return false, nil
		}
	}
	return true, nil
}
