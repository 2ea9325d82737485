package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/repositories"
	"github.com/coach-plus/backend/storage"
)

// In-memory fakes for the repository interfaces. They reproduce the
// constraint behavior the services rely on (unique membership, unique
// email, scoped event lookups) without a database.

type fakeUserRepo struct {
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]*models.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.Registered = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) SetEmailVerified(ctx context.Context, id int) error {
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.EmailVerified = true
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	return len(r.users), nil
}

type fakeTeamRepo struct {
	nextID int
	teams  map[int]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: map[int]*models.Team{}}
}

func (r *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	for _, t := range r.teams {
		if t.IsPublic && team.IsPublic && t.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	r.nextID++
	team.ID = r.nextID
	copied := *team
	r.teams[team.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) Update(ctx context.Context, team *models.Team) error {
	if _, ok := r.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	copied := *team
	r.teams[team.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

func (r *fakeTeamRepo) Count(ctx context.Context) (int, error) {
	return len(r.teams), nil
}

type fakeMembershipRepo struct {
	nextID      int
	memberships map[int]*models.Membership
	users       *fakeUserRepo
	teams       *fakeTeamRepo
}

func newFakeMembershipRepo(users *fakeUserRepo, teams *fakeTeamRepo) *fakeMembershipRepo {
	return &fakeMembershipRepo{
		memberships: map[int]*models.Membership{},
		users:       users,
		teams:       teams,
	}
}

func (r *fakeMembershipRepo) Create(ctx context.Context, exec repositories.SQLExecutor, membership *models.Membership) error {
	for _, m := range r.memberships {
		if m.UserID == membership.UserID && m.TeamID == membership.TeamID {
			return repositories.ErrMembershipConflict
		}
	}
	r.nextID++
	membership.ID = r.nextID
	copied := *membership
	r.memberships[membership.ID] = &copied
	return nil
}

func (r *fakeMembershipRepo) GetByID(ctx context.Context, id int) (*models.Membership, error) {
	membership, ok := r.memberships[id]
	if !ok {
		return nil, repositories.ErrMembershipNotFound
	}
	copied := *membership
	if r.teams != nil {
		if team, err := r.teams.GetByID(ctx, copied.TeamID); err == nil {
			copied.Team = team
		}
	}
	return &copied, nil
}

func (r *fakeMembershipRepo) GetByUserAndTeam(ctx context.Context, userID, teamID int) (*models.Membership, error) {
	for _, m := range r.memberships {
		if m.UserID == userID && m.TeamID == teamID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, repositories.ErrMembershipNotFound
}

func (r *fakeMembershipRepo) ListByTeamID(ctx context.Context, teamID int) ([]*models.Membership, error) {
	result := []*models.Membership{}
	for _, m := range r.memberships {
		if m.TeamID != teamID {
			continue
		}
		copied := *m
		if r.users != nil {
			if user, err := r.users.GetByID(ctx, copied.UserID); err == nil {
				copied.User = user
			}
		}
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeMembershipRepo) ListByUserID(ctx context.Context, userID int) ([]*models.Membership, error) {
	result := []*models.Membership{}
	for _, m := range r.memberships {
		if m.UserID != userID {
			continue
		}
		copied := *m
		if r.teams != nil {
			if team, err := r.teams.GetByID(ctx, copied.TeamID); err == nil {
				copied.Team = team
			}
		}
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeMembershipRepo) CountByTeamID(ctx context.Context, teamID int) (int, error) {
	count := 0
	for _, m := range r.memberships {
		if m.TeamID == teamID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMembershipRepo) CountByTeamAndRole(ctx context.Context, teamID int, role models.MembershipRole) (int, error) {
	count := 0
	for _, m := range r.memberships {
		if m.TeamID == teamID && m.Role == role {
			count++
		}
	}
	return count, nil
}

func (r *fakeMembershipRepo) UpdateRole(ctx context.Context, id int, role models.MembershipRole) error {
	membership, ok := r.memberships[id]
	if !ok {
		return repositories.ErrMembershipNotFound
	}
	membership.Role = role
	return nil
}

func (r *fakeMembershipRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.memberships[id]; !ok {
		return repositories.ErrMembershipNotFound
	}
	delete(r.memberships, id)
	return nil
}

func (r *fakeMembershipRepo) DeleteByUserAndTeam(ctx context.Context, userID, teamID int) error {
	for id, m := range r.memberships {
		if m.UserID == userID && m.TeamID == teamID {
			delete(r.memberships, id)
			return nil
		}
	}
	return repositories.ErrMembershipNotFound
}

func (r *fakeMembershipRepo) DeleteByTeamID(ctx context.Context, exec repositories.SQLExecutor, teamID int) error {
	for id, m := range r.memberships {
		if m.TeamID == teamID {
			delete(r.memberships, id)
		}
	}
	return nil
}

func (r *fakeMembershipRepo) Count(ctx context.Context) (int, error) {
	return len(r.memberships), nil
}

type fakeInvitationRepo struct {
	nextID      int
	invitations map[int]*models.Invitation
	teams       *fakeTeamRepo
}

func newFakeInvitationRepo(teams *fakeTeamRepo) *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: map[int]*models.Invitation{}, teams: teams}
}

func (r *fakeInvitationRepo) Create(ctx context.Context, invitation *models.Invitation) error {
	for _, i := range r.invitations {
		if i.Token == invitation.Token {
			return repositories.ErrInvitationTokenConflict
		}
	}
	r.nextID++
	invitation.ID = r.nextID
	invitation.CreatedAt = time.Now()
	copied := *invitation
	r.invitations[invitation.ID] = &copied
	return nil
}

func (r *fakeInvitationRepo) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	for _, i := range r.invitations {
		if i.Token == token {
			copied := *i
			if r.teams != nil {
				if team, err := r.teams.GetByID(ctx, copied.TeamID); err == nil {
					copied.Team = team
				}
			}
			return &copied, nil
		}
	}
	return nil, repositories.ErrInvitationNotFound
}

func (r *fakeInvitationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var deleted int64
	now := time.Now()
	for id, i := range r.invitations {
		if now.After(i.ValidUntil) {
			delete(r.invitations, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeInvitationRepo) Count(ctx context.Context) (int, error) {
	return len(r.invitations), nil
}

type fakeEventRepo struct {
	nextID int
	events map[int]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[int]*models.Event{}}
}

func (r *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	r.nextID++
	event.ID = r.nextID
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepo) GetByIDAndTeam(ctx context.Context, id, teamID int) (*models.Event, error) {
	event, ok := r.events[id]
	if !ok || event.TeamID != teamID {
		return nil, repositories.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepo) ListByTeamID(ctx context.Context, teamID int) ([]*models.Event, error) {
	result := []*models.Event{}
	for _, e := range r.events {
		if e.TeamID == teamID {
			copied := *e
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

func (r *fakeEventRepo) Update(ctx context.Context, event *models.Event) error {
	existing, ok := r.events[event.ID]
	if !ok || existing.TeamID != event.TeamID {
		return repositories.ErrEventNotFound
	}
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id, teamID int) error {
	event, ok := r.events[id]
	if !ok || event.TeamID != teamID {
		return repositories.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) Count(ctx context.Context) (int, error) {
	return len(r.events), nil
}

type fakeParticipationRepo struct {
	nextID         int
	participations map[int]*models.Participation
}

func newFakeParticipationRepo() *fakeParticipationRepo {
	return &fakeParticipationRepo{participations: map[int]*models.Participation{}}
}

func (r *fakeParticipationRepo) find(eventID, userID int) *models.Participation {
	for _, p := range r.participations {
		if p.EventID == eventID && p.UserID == userID {
			return p
		}
	}
	return nil
}

func (r *fakeParticipationRepo) upsert(eventID, userID int) *models.Participation {
	if p := r.find(eventID, userID); p != nil {
		return p
	}
	r.nextID++
	p := &models.Participation{ID: r.nextID, EventID: eventID, UserID: userID}
	r.participations[p.ID] = p
	return p
}

func (r *fakeParticipationRepo) SetWillAttend(ctx context.Context, eventID, userID int, willAttend bool) (*models.Participation, error) {
	p := r.upsert(eventID, userID)
	p.WillAttend = &willAttend
	copied := *p
	return &copied, nil
}

func (r *fakeParticipationRepo) SetDidAttend(ctx context.Context, eventID, userID int, didAttend bool) (*models.Participation, error) {
	p := r.upsert(eventID, userID)
	p.DidAttend = &didAttend
	copied := *p
	return &copied, nil
}

func (r *fakeParticipationRepo) ListByEventID(ctx context.Context, eventID int) ([]*models.Participation, error) {
	result := []*models.Participation{}
	for _, p := range r.participations {
		if p.EventID == eventID {
			copied := *p
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeParticipationRepo) Count(ctx context.Context) (int, error) {
	return len(r.participations), nil
}

type fakeDeviceRepo struct {
	nextID  int
	devices map[int]*models.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: map[int]*models.Device{}}
}

func (r *fakeDeviceRepo) Upsert(ctx context.Context, device *models.Device) error {
	for _, d := range r.devices {
		if d.UserID == device.UserID && d.DeviceID == device.DeviceID {
			d.PushID = device.PushID
			d.System = device.System
			device.ID = d.ID
			return nil
		}
	}
	r.nextID++
	device.ID = r.nextID
	copied := *device
	r.devices[device.ID] = &copied
	return nil
}

func (r *fakeDeviceRepo) ListByUserIDs(ctx context.Context, userIDs []int) ([]*models.Device, error) {
	wanted := map[int]bool{}
	for _, id := range userIDs {
		wanted[id] = true
	}
	result := []*models.Device{}
	for _, d := range r.devices {
		if wanted[d.UserID] {
			copied := *d
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeDeviceRepo) Count(ctx context.Context) (int, error) {
	return len(r.devices), nil
}

type fakeVerificationRepo struct {
	nextID        int
	verifications map[int]*models.Verification
	users         *fakeUserRepo
}

func newFakeVerificationRepo(users *fakeUserRepo) *fakeVerificationRepo {
	return &fakeVerificationRepo{verifications: map[int]*models.Verification{}, users: users}
}

func (r *fakeVerificationRepo) Create(ctx context.Context, verification *models.Verification) error {
	r.nextID++
	verification.ID = r.nextID
	copied := *verification
	r.verifications[verification.ID] = &copied
	return nil
}

func (r *fakeVerificationRepo) GetByToken(ctx context.Context, token string) (*models.Verification, error) {
	for _, v := range r.verifications {
		if v.Token == token {
			copied := *v
			if r.users != nil {
				if user, err := r.users.GetByID(ctx, copied.UserID); err == nil {
					copied.User = user
				}
			}
			return &copied, nil
		}
	}
	return nil, repositories.ErrVerificationNotFound
}

func (r *fakeVerificationRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.verifications[id]; !ok {
		return repositories.ErrVerificationNotFound
	}
	delete(r.verifications, id)
	return nil
}

func (r *fakeVerificationRepo) Count(ctx context.Context) (int, error) {
	return len(r.verifications), nil
}

type fakeNewsRepo struct {
	nextID int
	news   map[int]*models.News
	users  *fakeUserRepo
}

func newFakeNewsRepo(users *fakeUserRepo) *fakeNewsRepo {
	return &fakeNewsRepo{news: map[int]*models.News{}, users: users}
}

func (r *fakeNewsRepo) Create(ctx context.Context, news *models.News) error {
	r.nextID++
	news.ID = r.nextID
	news.Created = time.Now()
	copied := *news
	r.news[news.ID] = &copied
	return nil
}

func (r *fakeNewsRepo) ListByEventID(ctx context.Context, eventID int) ([]*models.News, error) {
	result := []*models.News{}
	for _, n := range r.news {
		if n.EventID != eventID {
			continue
		}
		copied := *n
		if r.users != nil {
			if user, err := r.users.GetByID(ctx, copied.AuthorID); err == nil {
				author := user.Reduce(false)
				// The SQL implementation scans the raw image key here.
				author.ImageURL = nil
				author.ImageKey = user.ImageKey
				copied.Author = &author
			}
		}
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r *fakeNewsRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.news[id]; !ok {
		return repositories.ErrNewsNotFound
	}
	delete(r.news, id)
	return nil
}

func (r *fakeNewsRepo) Count(ctx context.Context) (int, error) {
	return len(r.news), nil
}

type fakeUploader struct {
	uploaded []string
	deleted  []string
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.uploaded = append(u.uploaded, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	if key == "" {
		return ""
	}
	return "https://cdn.example.com/" + key
}

type fakeMailer struct {
	mu                sync.Mutex
	verificationMails []string
	passwordMails     []string
}

func (m *fakeMailer) SendVerificationEmail(userEmail, firstname, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verificationMails = append(m.verificationMails, userEmail)
	return nil
}

func (m *fakeMailer) SendNewPasswordEmail(userEmail, firstname, newPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwordMails = append(m.passwordMails, userEmail)
	return nil
}

type dispatchedReminder struct {
	event          *models.Event
	excludedUserID int
}

type dispatchedNews struct {
	news           *models.News
	event          *models.Event
	excludedUserID int
}

type fakeDispatcher struct {
	reminders []dispatchedReminder
	news      []dispatchedNews
}

func (d *fakeDispatcher) Run(ctx context.Context) {}

func (d *fakeDispatcher) SendReminder(event *models.Event, excludedUserID int) {
	d.reminders = append(d.reminders, dispatchedReminder{event: event, excludedUserID: excludedUserID})
}

func (d *fakeDispatcher) SendNews(news *models.News, event *models.Event, excludedUserID int) {
	d.news = append(d.news, dispatchedNews{news: news, event: event, excludedUserID: excludedUserID})
}
