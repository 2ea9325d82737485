package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coach-plus/backend/models"
)

type userServiceFixture struct {
	service     UserService
	users       *fakeUserRepo
	teams       *fakeTeamRepo
	memberships *fakeMembershipRepo
	devices     *fakeDeviceRepo
	uploader    *fakeUploader
}

func newUserServiceFixture() *userServiceFixture {
	users := newFakeUserRepo()
	teams := newFakeTeamRepo()
	memberships := newFakeMembershipRepo(users, teams)
	devices := newFakeDeviceRepo()
	uploader := &fakeUploader{}
	return &userServiceFixture{
		service:     NewUserService(users, memberships, devices, uploader),
		users:       users,
		teams:       teams,
		memberships: memberships,
		devices:     devices,
		uploader:    uploader,
	}
}

func (f *userServiceFixture) addUser(t *testing.T, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Firstname:    "Hanna",
		Lastname:     "Weber",
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func TestGetMe(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture()
	user := f.addUser(t, "hanna@example.com")

	got, err := f.service.GetMe(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = f.service.GetMe(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateInformation(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture()
	user := f.addUser(t, "hanna@example.com")

	updated, err := f.service.UpdateInformation(ctx, user.ID, UpdateInformationInput{
		Firstname: "Johanna",
		Lastname:  "Weber-Krause",
	})
	require.NoError(t, err)
	assert.Equal(t, "Johanna", updated.Firstname)
	assert.Equal(t, "Weber-Krause", updated.Lastname)

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Johanna", stored.Firstname)
}

func TestUpdateImage(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture()
	user := f.addUser(t, "hanna@example.com")

	t.Run("rejects a malformed data url", func(t *testing.T) {
		_, err := f.service.UpdateImage(ctx, user.ID, "not-a-data-url")
		assert.ErrorIs(t, err, ErrImageInvalid)
	})

	t.Run("stores the new image", func(t *testing.T) {
		updated, err := f.service.UpdateImage(ctx, user.ID, "data:image/png;base64,aGVsbG8=")
		require.NoError(t, err)
		require.NotNil(t, updated.ImageURL)
		require.Len(t, f.uploader.uploaded, 1)
		assert.Empty(t, f.uploader.deleted)
	})

	t.Run("replacing deletes the previous object", func(t *testing.T) {
		_, err := f.service.UpdateImage(ctx, user.ID, "data:image/jpeg;base64,d29ybGQ=")
		require.NoError(t, err)
		require.Len(t, f.uploader.uploaded, 2)
		require.Len(t, f.uploader.deleted, 1)
		assert.Equal(t, f.uploader.uploaded[0], f.uploader.deleted[0])
	})
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture()
	user := f.addUser(t, "hanna@example.com")

	err := f.service.UpdatePassword(ctx, user.ID, "wrong", "newpass")
	assert.ErrorIs(t, err, ErrPasswordWrong)

	require.NoError(t, f.service.UpdatePassword(ctx, user.ID, "hunter22", "newpass"))
	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpass")))
}

func TestUpsertDevice(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture()
	user := f.addUser(t, "hanna@example.com")
	input := DeviceInput{DeviceID: "device-1", PushID: "push-1", System: models.SystemIOS}

	t.Run("only the subject registers their devices", func(t *testing.T) {
		_, err := f.service.UpsertDevice(ctx, user.ID, user.ID+1, input)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("rejects an unknown system", func(t *testing.T) {
		bad := input
		bad.System = "WINDOWS_PHONE"
		_, err := f.service.UpsertDevice(ctx, user.ID, user.ID, bad)
		assert.ErrorIs(t, err, ErrSystemInvalid)
	})

	t.Run("registers and rotates the push id", func(t *testing.T) {
		device, err := f.service.UpsertDevice(ctx, user.ID, user.ID, input)
		require.NoError(t, err)
		assert.NotZero(t, device.ID)

		rotated := input
		rotated.PushID = "push-2"
		again, err := f.service.UpsertDevice(ctx, user.ID, user.ID, rotated)
		require.NoError(t, err)
		assert.Equal(t, device.ID, again.ID)

		count, err := f.devices.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestGetUserMemberships(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture()
	target := f.addUser(t, "hanna@example.com")
	viewer := f.addUser(t, "jonas@example.com")

	shared := &models.Team{Name: "FC Altona", IsPublic: true}
	require.NoError(t, f.teams.Create(ctx, nil, shared))
	private := &models.Team{Name: "Hidden Squad"}
	require.NoError(t, f.teams.Create(ctx, nil, private))

	for _, teamID := range []int{shared.ID, private.ID} {
		m := &models.Membership{UserID: target.ID, TeamID: teamID, Role: models.RoleUser}
		require.NoError(t, f.memberships.Create(ctx, nil, m))
	}
	require.NoError(t, f.memberships.Create(ctx, nil, &models.Membership{
		UserID: viewer.ID, TeamID: shared.ID, Role: models.RoleUser,
	}))

	t.Run("own memberships are all joined", func(t *testing.T) {
		memberships, err := f.service.GetUserMemberships(ctx, target.ID, target.ID)
		require.NoError(t, err)
		require.Len(t, memberships, 2)
		for _, m := range memberships {
			assert.True(t, m.Joined)
		}
	})

	t.Run("viewer only joins shared teams", func(t *testing.T) {
		memberships, err := f.service.GetUserMemberships(ctx, viewer.ID, target.ID)
		require.NoError(t, err)
		require.Len(t, memberships, 2)

		byTeam := map[int]bool{}
		for _, m := range memberships {
			byTeam[m.TeamID] = m.Joined
		}
		assert.True(t, byTeam[shared.ID])
		assert.False(t, byTeam[private.ID])
	})
}
