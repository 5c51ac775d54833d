package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/transfermarket/internal/dbconfig"
	"github.com/mcdev12/transfermarket/internal/models"
)

// seedTeam pairs the team record with its starting wallet budget, which
// lives in the wallets table rather than on the team itself.
type seedTeam struct {
	models.Team
	Budget int64 `json:"budget"`
}

func main() {
	ctx := context.Background()

	// 1) Load teams.json
	tData, err := os.ReadFile("internal/assets/teams.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read teams.json: %v\n", err)
		os.Exit(1)
	}
	var teams []seedTeam
	if err := json.Unmarshal(tData, &teams); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal teams: %v\n", err)
		os.Exit(1)
	}

	// 2) Load players.json
	pData, err := os.ReadFile("internal/assets/players.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read players.json: %v\n", err)
		os.Exit(1)
	}
	var players []models.Player
	if err := json.Unmarshal(pData, &players); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal players: %v\n", err)
		os.Exit(1)
	}

	// 3) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 4) Seed teams and their wallets
	total, inserted, skipped, errs := len(teams), 0, 0, 0
	for _, t := range teams {
		tag, err := pool.Exec(ctx, `
            INSERT INTO teams (id, name, created_at)
            VALUES ($1,$2,$3)
            ON CONFLICT (id) DO NOTHING
        `, t.ID, t.Name, t.CreatedAt)
		if err != nil {
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
		if _, err := pool.Exec(ctx, `
            INSERT INTO wallets (team_id, balance)
            VALUES ($1,$2)
            ON CONFLICT (team_id) DO NOTHING
        `, t.ID, t.Budget); err != nil {
			errs++
		}
	}
	fmt.Printf(
		"Teams seed: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs,
	)

	// 5) Seed players
	total, inserted, skipped, errs = len(players), 0, 0, 0
	for _, p := range players {
		tag, err := pool.Exec(ctx, `
            INSERT INTO players (id, full_name, position, base_value, points, owner_id, created_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7)
            ON CONFLICT (id) DO NOTHING
        `, p.ID, p.FullName, p.Position, p.BaseValue, p.Points, p.OwnerID, p.CreatedAt)
		if err != nil {
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}
	fmt.Printf(
		"Players seed: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs,
	)
}
