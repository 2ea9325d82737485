package models

import "time"

type Invitation struct {
	ID         int       `json:"id" db:"id"`
	TeamID     int       `json:"teamId" db:"team_id"`
	Token      string    `json:"token" db:"token"`
	ValidUntil time.Time `json:"validUntil" db:"valid_until"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
