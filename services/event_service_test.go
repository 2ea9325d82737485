package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coach-plus/backend/models"
)

type eventServiceFixture struct {
	service        EventService
	users          *fakeUserRepo
	teams          *fakeTeamRepo
	memberships    *fakeMembershipRepo
	events         *fakeEventRepo
	participations *fakeParticipationRepo
	dispatcher     *fakeDispatcher
}

func newEventServiceFixture() *eventServiceFixture {
	users := newFakeUserRepo()
	teams := newFakeTeamRepo()
	memberships := newFakeMembershipRepo(users, teams)
	events := newFakeEventRepo()
	participations := newFakeParticipationRepo()
	dispatcher := &fakeDispatcher{}
	return &eventServiceFixture{
		service:        NewEventService(events, participations, memberships, dispatcher, &fakeUploader{}),
		users:          users,
		teams:          teams,
		memberships:    memberships,
		events:         events,
		participations: participations,
		dispatcher:     dispatcher,
	}
}

func (f *eventServiceFixture) addTeam(t *testing.T, name string) *models.Team {
	t.Helper()
	team := &models.Team{Name: name, IsPublic: true}
	require.NoError(t, f.teams.Create(context.Background(), nil, team))
	return team
}

func (f *eventServiceFixture) addMember(t *testing.T, teamID int, role models.MembershipRole, lastname string) *models.Membership {
	t.Helper()
	user := &models.User{Email: lastname + "@example.com", Firstname: "Kim", Lastname: lastname}
	require.NoError(t, f.users.Create(context.Background(), user))
	membership := &models.Membership{UserID: user.ID, TeamID: teamID, Role: role}
	require.NoError(t, f.memberships.Create(context.Background(), nil, membership))
	return membership
}

func (f *eventServiceFixture) addEvent(t *testing.T, teamID int, name string, start time.Time) *models.Event {
	t.Helper()
	event := &models.Event{
		TeamID: teamID,
		Name:   name,
		Start:  start,
		End:    start.Add(2 * time.Hour),
	}
	require.NoError(t, f.events.Create(context.Background(), event))
	return event
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	f := newEventServiceFixture()
	team := f.addTeam(t, "FC Altona")
	coach := f.addMember(t, team.ID, models.RoleCoach, "Weber")
	member := f.addMember(t, team.ID, models.RoleUser, "Becker")

	start := time.Now().Add(48 * time.Hour)
	input := EventInput{
		Name:        "Training",
		Description: "Bring shin guards",
		Start:       start,
		End:         start.Add(90 * time.Minute),
		Location:    &models.Location{Name: "Stadtpark", Lat: 53.59, Long: 9.99},
	}

	t.Run("coach creates event and fans out reminders", func(t *testing.T) {
		event, err := f.service.CreateEvent(ctx, coach.UserID, team.ID, input)
		require.NoError(t, err)
		assert.NotZero(t, event.ID)
		assert.Equal(t, team.ID, event.TeamID)
		require.NotNil(t, event.Location)
		assert.Equal(t, "Stadtpark", event.Location.Name)

		require.Len(t, f.dispatcher.reminders, 1)
		assert.Equal(t, event.ID, f.dispatcher.reminders[0].event.ID)
		assert.Equal(t, coach.UserID, f.dispatcher.reminders[0].excludedUserID)
	})

	t.Run("regular member cannot create", func(t *testing.T) {
		_, err := f.service.CreateEvent(ctx, member.UserID, team.ID, input)
		assert.ErrorIs(t, err, ErrUserNotACoach)
	})

	t.Run("non-member cannot create", func(t *testing.T) {
		_, err := f.service.CreateEvent(ctx, 999, team.ID, input)
		assert.ErrorIs(t, err, ErrMembershipNotFound)
	})
}

func TestEventScoping(t *testing.T) {
	ctx := context.Background()
	f := newEventServiceFixture()
	teamA := f.addTeam(t, "FC Altona")
	teamB := f.addTeam(t, "Mitte Runners")
	coachA := f.addMember(t, teamA.ID, models.RoleCoach, "Weber")
	coachB := f.addMember(t, teamB.ID, models.RoleCoach, "Becker")
	eventB := f.addEvent(t, teamB.ID, "Away game", time.Now().Add(24*time.Hour))

	// An event of another team reads as not found, never as forbidden.
	_, err := f.service.GetEvent(ctx, coachA.UserID, teamA.ID, eventB.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = f.service.UpdateEvent(ctx, coachA.UserID, teamA.ID, eventB.ID, EventInput{Name: "Hijacked"})
	assert.ErrorIs(t, err, ErrEventNotFound)

	err = f.service.DeleteEvent(ctx, coachA.UserID, teamA.ID, eventB.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	got, err := f.service.GetEvent(ctx, coachB.UserID, teamB.ID, eventB.ID)
	require.NoError(t, err)
	assert.Equal(t, "Away game", got.Name)
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	ctx := context.Background()
	f := newEventServiceFixture()
	team := f.addTeam(t, "FC Altona")
	coach := f.addMember(t, team.ID, models.RoleCoach, "Weber")
	member := f.addMember(t, team.ID, models.RoleUser, "Becker")
	event := f.addEvent(t, team.ID, "Training", time.Now().Add(24*time.Hour))

	newStart := time.Now().Add(72 * time.Hour)
	updated, err := f.service.UpdateEvent(ctx, coach.UserID, team.ID, event.ID, EventInput{
		Name:  "Training (moved)",
		Start: newStart,
		End:   newStart.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Training (moved)", updated.Name)
	assert.True(t, updated.Start.Equal(newStart))

	_, err = f.service.UpdateEvent(ctx, member.UserID, team.ID, event.ID, EventInput{Name: "Nope"})
	assert.ErrorIs(t, err, ErrUserNotACoach)

	err = f.service.DeleteEvent(ctx, member.UserID, team.ID, event.ID)
	assert.ErrorIs(t, err, ErrUserNotACoach)

	require.NoError(t, f.service.DeleteEvent(ctx, coach.UserID, team.ID, event.ID))
	_, err = f.service.GetEvent(ctx, coach.UserID, team.ID, event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestSendReminder(t *testing.T) {
	ctx := context.Background()
	f := newEventServiceFixture()
	team := f.addTeam(t, "FC Altona")
	coach := f.addMember(t, team.ID, models.RoleCoach, "Weber")
	member := f.addMember(t, team.ID, models.RoleUser, "Becker")
	event := f.addEvent(t, team.ID, "Training", time.Now().Add(24*time.Hour))

	err := f.service.SendReminder(ctx, member.UserID, team.ID, event.ID)
	assert.ErrorIs(t, err, ErrUserNotACoach)
	assert.Empty(t, f.dispatcher.reminders)

	require.NoError(t, f.service.SendReminder(ctx, coach.UserID, team.ID, event.ID))
	require.Len(t, f.dispatcher.reminders, 1)
	assert.Equal(t, coach.UserID, f.dispatcher.reminders[0].excludedUserID)
}

func TestSetWillAttend(t *testing.T) {
	ctx := context.Background()
	f := newEventServiceFixture()
	team := f.addTeam(t, "FC Altona")
	f.addMember(t, team.ID, models.RoleCoach, "Weber")
	member := f.addMember(t, team.ID, models.RoleUser, "Becker")
	upcoming := f.addEvent(t, team.ID, "Training", time.Now().Add(24*time.Hour))
	past := f.addEvent(t, team.ID, "Last week", time.Now().Add(-24*time.Hour))

	t.Run("records intent before the event starts", func(t *testing.T) {
		participation, err := f.service.SetWillAttend(ctx, member.UserID, team.ID, upcoming.ID, member.UserID, true)
		require.NoError(t, err)
		require.NotNil(t, participation.WillAttend)
		assert.True(t, *participation.WillAttend)
		assert.Nil(t, participation.DidAttend)
	})

	t.Run("changing the answer updates the same record", func(t *testing.T) {
		participation, err := f.service.SetWillAttend(ctx, member.UserID, team.ID, upcoming.ID, member.UserID, false)
		require.NoError(t, err)
		require.NotNil(t, participation.WillAttend)
		assert.False(t, *participation.WillAttend)

		count, err := f.participations.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("rejected once the event started", func(t *testing.T) {
		_, err := f.service.SetWillAttend(ctx, member.UserID, team.ID, past.ID, member.UserID, true)
		assert.ErrorIs(t, err, ErrEventAlreadyStarted)
	})

	t.Run("only the subject may answer", func(t *testing.T) {
		other := f.addMember(t, team.ID, models.RoleUser, "Krause")
		_, err := f.service.SetWillAttend(ctx, other.UserID, team.ID, upcoming.ID, member.UserID, true)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestSetDidAttend(t *testing.T) {
	ctx := context.Background()
	f := newEventServiceFixture()
	team := f.addTeam(t, "FC Altona")
	coach := f.addMember(t, team.ID, models.RoleCoach, "Weber")
	member := f.addMember(t, team.ID, models.RoleUser, "Becker")
	started := f.addEvent(t, team.ID, "Yesterday", time.Now().Add(-24*time.Hour))
	upcoming := f.addEvent(t, team.ID, "Training", time.Now().Add(24*time.Hour))

	t.Run("coach records attendance after start", func(t *testing.T) {
		participation, err := f.service.SetDidAttend(ctx, coach.UserID, team.ID, started.ID, member.UserID, true)
		require.NoError(t, err)
		require.NotNil(t, participation.DidAttend)
		assert.True(t, *participation.DidAttend)
	})

	t.Run("rejected before the event starts", func(t *testing.T) {
		_, err := f.service.SetDidAttend(ctx, coach.UserID, team.ID, upcoming.ID, member.UserID, true)
		assert.ErrorIs(t, err, ErrEventNotStartedYet)
	})

	t.Run("regular member may not record attendance", func(t *testing.T) {
		_, err := f.service.SetDidAttend(ctx, member.UserID, team.ID, started.ID, member.UserID, true)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestGetParticipations(t *testing.T) {
	ctx := context.Background()
	f := newEventServiceFixture()
	team := f.addTeam(t, "FC Altona")
	coach := f.addMember(t, team.ID, models.RoleCoach, "Weber")
	zoe := f.addMember(t, team.ID, models.RoleUser, "Albrecht")
	jonas := f.addMember(t, team.ID, models.RoleUser, "Becker")
	event := f.addEvent(t, team.ID, "Training", time.Now().Add(24*time.Hour))

	_, err := f.service.SetWillAttend(ctx, jonas.UserID, team.ID, event.ID, jonas.UserID, true)
	require.NoError(t, err)

	result, err := f.service.GetParticipations(ctx, jonas.UserID, team.ID, event.ID)
	require.NoError(t, err)
	require.Len(t, result, 3)

	// Caller first, everyone else by last name. Members who never
	// responded appear with a nil participation.
	assert.Equal(t, jonas.UserID, result[0].User.ID)
	require.NotNil(t, result[0].Participation)
	assert.True(t, *result[0].Participation.WillAttend)

	assert.Equal(t, zoe.UserID, result[1].User.ID)
	assert.Nil(t, result[1].Participation)

	assert.Equal(t, coach.UserID, result[2].User.ID)
	assert.Nil(t, result[2].Participation)

	t.Run("non-member is rejected", func(t *testing.T) {
		_, err := f.service.GetParticipations(ctx, 999, team.ID, event.ID)
		assert.ErrorIs(t, err, ErrMembershipNotFound)
	})
}
