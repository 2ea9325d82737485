package models

type MembershipRole string

const (
	RoleCoach MembershipRole = "coach"
	RoleUser  MembershipRole = "user"
)

func (r MembershipRole) Valid() bool {
	return r == RoleCoach || r == RoleUser
}

type Membership struct {
	ID     int            `json:"id" db:"id"`
	UserID int            `json:"userId" db:"user_id"`
	TeamID int            `json:"teamId" db:"team_id"`
	Role   MembershipRole `json:"role" db:"role"`

	User *User `json:"user,omitempty" db:"-"`
	Team *Team `json:"team,omitempty" db:"-"`
}

// TeamMember is the view returned by the team member listing: the
// membership id and role plus the reduced user.
type TeamMember struct {
	ID   int            `json:"id"`
	Role MembershipRole `json:"role"`
	User ReducedUser    `json:"user"`
}

// UserMembership is a membership as seen in another user's profile,
// annotated with whether the viewer shares the team.
type UserMembership struct {
	Membership
	Joined bool `json:"joined"`
}
