package models

import "time"

type User struct {
	ID            int       `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	Firstname     string    `json:"firstname" db:"firstname"`
	Lastname      string    `json:"lastname" db:"lastname"`
	EmailVerified bool      `json:"emailVerified" db:"email_verified"`
	Registered    time.Time `json:"registered" db:"registered"`

	ImageKey *string `json:"-" db:"image_key"`
	ImageURL *string `json:"image,omitempty" db:"-"`

	Devices []Device `json:"devices,omitempty" db:"-"`
}

// ReducedUser is the public view of a user. Email is only present on the
// authenticated-self variant.
type ReducedUser struct {
	ID        int     `json:"id"`
	Firstname string  `json:"firstname"`
	Lastname  string  `json:"lastname"`
	Email     string  `json:"email,omitempty"`
	ImageKey  *string `json:"-"`
	ImageURL  *string `json:"image,omitempty"`
}

// Reduce strips everything a third party must not see.
func (u *User) Reduce(keepEmail bool) ReducedUser {
	r := ReducedUser{
		ID:        u.ID,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		ImageURL:  u.ImageURL,
	}
	if keepEmail {
		r.Email = u.Email
	}
	return r
}
