package models

// Participation tracks a user's attendance for one event. WillAttend is
// the self-reported intent before the event starts, DidAttend is the
// coach-recorded attendance afterwards. Either can be absent.
type Participation struct {
	ID         int   `json:"id" db:"id"`
	UserID     int   `json:"userId" db:"user_id"`
	EventID    int   `json:"eventId" db:"event_id"`
	WillAttend *bool `json:"willAttend" db:"will_attend"`
	DidAttend  *bool `json:"didAttend" db:"did_attend"`
}

// UserParticipation pairs a team member with their participation for an
// event; Participation is nil when the member never responded.
type UserParticipation struct {
	User          ReducedUser    `json:"user"`
	Participation *Participation `json:"participation"`
}
