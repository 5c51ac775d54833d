package roster

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/models"
)

type fakeRepo struct {
	owned      int
	byPosition map[models.Position]int
}

func (f *fakeRepo) CountOwnedPlayers(ctx context.Context, teamID uuid.UUID) (int, error) {
	return f.owned, nil
}

func (f *fakeRepo) CountOwnedByPosition(ctx context.Context, teamID uuid.UUID) (map[models.Position]int, error) {
	return f.byPosition, nil
}

type fakeCommitments struct {
	open int
}

func (f *fakeCommitments) CountOpenCommitments(ctx context.Context, teamID uuid.UUID) (int, error) {
	return f.open, nil
}

func TestAvailableSlots(t *testing.T) {
	tests := []struct {
		name      string
		max       int
		owned     int
		committed int
		want      int
		canCommit bool
	}{
		{name: "empty roster", max: 25, owned: 0, committed: 0, want: 25, canCommit: true},
		{name: "owned players count", max: 25, owned: 20, committed: 0, want: 5, canCommit: true},
		{name: "commitments count too", max: 25, owned: 20, committed: 4, want: 1, canCommit: true},
		{name: "exactly full", max: 25, owned: 20, committed: 5, want: 0, canCommit: false},
		{name: "overcommitted", max: 25, owned: 25, committed: 2, want: -2, canCommit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(
				&fakeRepo{owned: tt.owned},
				&fakeCommitments{open: tt.committed},
				Config{MaxRosterSize: tt.max},
			)

			slots, err := app.AvailableSlots(context.Background(), uuid.New())
			if err != nil {
				t.Fatalf("AvailableSlots: %v", err)
			}
			if slots != tt.want {
				t.Errorf("AvailableSlots = %d, want %d", slots, tt.want)
			}

			ok, err := app.CanCommit(context.Background(), uuid.New())
			if err != nil {
				t.Fatalf("CanCommit: %v", err)
			}
			if ok != tt.canCommit {
				t.Errorf("CanCommit = %v, want %v", ok, tt.canCommit)
			}
		})
	}
}

func TestPositionalMinimumsSatisfied(t *testing.T) {
	minimums := map[models.Position]int{
		models.PositionGoalkeeper: 2,
		models.PositionDefender:   5,
	}

	tests := []struct {
		name   string
		squad  map[models.Position]int
		want   bool
	}{
		{
			name:  "covered",
			squad: map[models.Position]int{models.PositionGoalkeeper: 2, models.PositionDefender: 6},
			want:  true,
		},
		{
			name:  "short a keeper",
			squad: map[models.Position]int{models.PositionGoalkeeper: 1, models.PositionDefender: 6},
			want:  false,
		},
		{
			name:  "position missing entirely",
			squad: map[models.Position]int{models.PositionDefender: 6},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(
				&fakeRepo{byPosition: tt.squad},
				&fakeCommitments{},
				Config{MaxRosterSize: 25, PositionalMinimums: minimums},
			)
			ok, err := app.PositionalMinimumsSatisfied(context.Background(), uuid.New())
			if err != nil {
				t.Fatalf("PositionalMinimumsSatisfied: %v", err)
			}
			if ok != tt.want {
				t.Errorf("PositionalMinimumsSatisfied = %v, want %v", ok, tt.want)
			}
		})
	}
}
