package models

type Verification struct {
	ID     int    `json:"id" db:"id"`
	UserID int    `json:"userId" db:"user_id"`
	Token  string `json:"token" db:"token"`

	User *User `json:"user,omitempty" db:"-"`
}
