package models

import "time"

type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

type Event struct {
	ID          int       `json:"id" db:"id"`
	TeamID      int       `json:"teamId" db:"team_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Start       time.Time `json:"start" db:"start"`
	End         time.Time `json:"end" db:"end"`
	Location    *Location `json:"location,omitempty" db:"-"`
}
