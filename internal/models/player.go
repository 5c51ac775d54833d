package models

import (
	"time"

	"github.com/google/uuid"
)

// Position is a player's field position
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

// Player represents a tradeable player in the registry
type Player struct {
	ID        uuid.UUID  `json:"id"`
	FullName  string     `json:"full_name"`
	Position  Position   `json:"position"`
	BaseValue int64      `json:"base_value"` // monetary, integer minor units
	Points    int        `json:"points"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"` // nil = unowned (free agent)
	CreatedAt time.Time  `json:"created_at"`
}

// Owned reports whether the player currently belongs to a team.
func (p *Player) Owned() bool {
	return p.OwnerID != nil
}
