package models

type Team struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	IsPublic bool   `json:"isPublic" db:"is_public"`

	ImageKey *string `json:"-" db:"image_key"`
	ImageURL *string `json:"image,omitempty" db:"-"`

	// MemberCount is computed from memberships for the call sites that
	// need it, never stored.
	MemberCount *int `json:"memberCount,omitempty" db:"-"`
}
