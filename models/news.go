package models

import "time"

type News struct {
	ID       int       `json:"id" db:"id"`
	EventID  int       `json:"eventId" db:"event_id"`
	AuthorID int       `json:"authorId" db:"author_id"`
	Title    string    `json:"title" db:"title"`
	Text     string    `json:"text" db:"text"`
	Created  time.Time `json:"created" db:"created"`

	Author *ReducedUser `json:"author,omitempty" db:"-"`
}
