package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/repositories"
	"github.com/coach-plus/backend/storage"
)

const (
	teamNameMinLength          = 3
	defaultInvitationValidDays = 7
)

type TeamService interface {
	// RegisterTeam creates the team together with the creator's coach
	// membership in one transaction. The returned membership carries
	// the team enriched with memberCount.
	RegisterTeam(ctx context.Context, callerID int, input RegisterTeamInput) (*models.Membership, error)
	EditTeam(ctx context.Context, callerID, teamID int, input EditTeamInput) (*models.Team, error)
	DeleteTeam(ctx context.Context, callerID, teamID int) error
	// Invite returns a join URL: a static one for public teams, a
	// tokenized time-boxed one for private teams (coach only).
	Invite(ctx context.Context, callerID, teamID, validDays int) (string, error)
	JoinPrivateTeam(ctx context.Context, callerID int, token string) (*models.Membership, error)
	JoinPublicTeam(ctx context.Context, callerID, teamID int) (*models.Membership, error)
	LeaveTeam(ctx context.Context, callerID, teamID int) error
	GetTeamMembers(ctx context.Context, callerID, teamID int) ([]*models.TeamMember, error)
	GetMyTeams(ctx context.Context, callerID int) ([]*models.Team, error)
	GetPublicTeamByID(ctx context.Context, teamID int) (*models.Team, error)
	PreviewInvitation(ctx context.Context, token string) (*models.Invitation, error)
	RoleOf(ctx context.Context, userID, teamID int) (models.MembershipRole, error)
	IsCoach(ctx context.Context, userID, teamID int) (bool, error)
}

type RegisterTeamInput struct {
	Name     string  `json:"name"`
	IsPublic bool    `json:"isPublic"`
	Image    *string `json:"image"`
}

type EditTeamInput struct {
	Name     string  `json:"name"`
	IsPublic bool    `json:"isPublic"`
	Image    *string `json:"image"`
}

type teamService struct {
	db             *sql.DB
	teamRepo       repositories.TeamRepository
	membershipRepo repositories.MembershipRepository
	invitationRepo repositories.InvitationRepository
	uploader       storage.FileUploader
	appURL         string
}

func NewTeamService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	membershipRepo repositories.MembershipRepository,
	invitationRepo repositories.InvitationRepository,
	uploader storage.FileUploader,
	appURL string,
) TeamService {
	return &teamService{
		db:             db,
		teamRepo:       teamRepo,
		membershipRepo: membershipRepo,
		invitationRepo: invitationRepo,
		uploader:       uploader,
		appURL:         appURL,
	}
}

func (s *teamService) RegisterTeam(ctx context.Context, callerID int, input RegisterTeamInput) (*models.Membership, error) {
	name := strings.TrimSpace(input.Name)
	if len(name) < teamNameMinLength {
		return nil, ErrTeamNameRequired
	}

	team := &models.Team{
		Name:     name,
		IsPublic: input.IsPublic,
	}

	if input.Image != nil && *input.Image != "" {
		key, err := storeDataURLImage(ctx, s.uploader, "teams", *input.Image)
		if err != nil {
			return nil, err
		}
		team.ImageKey = &key
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.teamRepo.Create(ctx, tx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamAlreadyExists
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	membership := &models.Membership{
		UserID: callerID,
		TeamID: team.ID,
		Role:   models.RoleCoach,
	}
	if err := s.membershipRepo.Create(ctx, tx, membership); err != nil {
		return nil, fmt.Errorf("failed to create coach membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	memberCount := 1
	team.MemberCount = &memberCount
	populateTeamImage(team, s.uploader)
	membership.Team = team

	return membership, nil
}

func (s *teamService) EditTeam(ctx context.Context, callerID, teamID int, input EditTeamInput) (*models.Team, error) {
	if err := s.requireCoach(ctx, callerID, teamID); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	name := strings.TrimSpace(input.Name)
	if len(name) < teamNameMinLength {
		return nil, ErrTeamNameRequired
	}

	team.Name = name
	team.IsPublic = input.IsPublic

	if input.Image != nil && *input.Image != "" {
		key, err := storeDataURLImage(ctx, s.uploader, "teams", *input.Image)
		if err != nil {
			return nil, err
		}
		if team.ImageKey != nil && *team.ImageKey != "" {
			_ = s.uploader.Delete(ctx, *team.ImageKey)
		}
		team.ImageKey = &key
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamAlreadyExists
		}
		return nil, fmt.Errorf("failed to update team %d: %w", teamID, err)
	}

	populateTeamImage(team, s.uploader)
	return team, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, callerID, teamID int) error {
	if err := s.requireCoach(ctx, callerID, teamID); err != nil {
		return err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.membershipRepo.DeleteByTeamID(ctx, tx, teamID); err != nil {
		return fmt.Errorf("failed to delete memberships of team %d: %w", teamID, err)
	}

	if err := s.teamRepo.Delete(ctx, tx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if team.ImageKey != nil && *team.ImageKey != "" {
		_ = s.uploader.Delete(ctx, *team.ImageKey)
	}

	return nil
}

func (s *teamService) Invite(ctx context.Context, callerID, teamID, validDays int) (string, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return "", ErrTeamNotFound
		}
		return "", fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if team.IsPublic {
		return fmt.Sprintf("%s/teams/public/join/%d", s.appURL, team.ID), nil
	}

	// Private invitations are coach only and surface as Unauthorized,
	// not as the precondition code the other coach gates use.
	isCoach, err := s.IsCoach(ctx, callerID, teamID)
	if err != nil {
		return "", err
	}
	if !isCoach {
		return "", ErrUnauthorized
	}

	if validDays <= 0 {
		validDays = defaultInvitationValidDays
	}

	token, err := generateSecureToken(secureTokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}

	invitation := &models.Invitation{
		TeamID:     teamID,
		Token:      token,
		ValidUntil: time.Now().Add(time.Duration(validDays) * 24 * time.Hour),
	}

	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		return "", fmt.Errorf("failed to create invitation: %w", err)
	}

	return fmt.Sprintf("%s/teams/private/join/%s", s.appURL, token), nil
}

func (s *teamService) JoinPrivateTeam(ctx context.Context, callerID int, token string) (*models.Membership, error) {
	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrInvitationNotFound) {
			return nil, ErrJoinTokenNotValid
		}
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}

	if time.Now().After(invitation.ValidUntil) {
		return nil, ErrJoinTokenNotValid
	}

	return s.join(ctx, callerID, invitation.TeamID)
}

func (s *teamService) JoinPublicTeam(ctx context.Context, callerID, teamID int) (*models.Membership, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if !team.IsPublic {
		return nil, ErrTeamNotFound
	}

	return s.join(ctx, callerID, teamID)
}

// join creates a USER membership. The unique constraint on
// (user_id, team_id) makes the duplicate check race-free.
func (s *teamService) join(ctx context.Context, userID, teamID int) (*models.Membership, error) {
	membership := &models.Membership{
		UserID: userID,
		TeamID: teamID,
		Role:   models.RoleUser,
	}

	if err := s.membershipRepo.Create(ctx, s.db, membership); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMembershipConflict):
			return nil, ErrUserAlreadyMember
		case errors.Is(err, repositories.ErrMembershipTeamInvalid):
			return nil, ErrTeamNotFound
		case errors.Is(err, repositories.ErrMembershipUserInvalid):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err == nil {
		populateTeamImage(team, s.uploader)
		membership.Team = team
	}

	return membership, nil
}

func (s *teamService) LeaveTeam(ctx context.Context, callerID, teamID int) error {
	membership, err := s.membershipRepo.GetByUserAndTeam(ctx, callerID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to get membership: %w", err)
	}

	if membership.Role == models.RoleCoach {
		coachCount, err := s.membershipRepo.CountByTeamAndRole(ctx, teamID, models.RoleCoach)
		if err != nil {
			return fmt.Errorf("failed to count coaches of team %d: %w", teamID, err)
		}
		if coachCount <= 1 {
			return ErrLastCoachCantLeaveTeam
		}
	}

	if err := s.membershipRepo.DeleteByUserAndTeam(ctx, callerID, teamID); err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	return nil
}

func (s *teamService) GetTeamMembers(ctx context.Context, callerID, teamID int) ([]*models.TeamMember, error) {
	if _, err := s.RoleOf(ctx, callerID, teamID); err != nil {
		return nil, err
	}

	memberships, err := s.membershipRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}

	members := make([]*models.TeamMember, 0, len(memberships))
	for _, m := range memberships {
		if m.User == nil {
			continue
		}
		populateUserImage(m.User, s.uploader)
		members = append(members, &models.TeamMember{
			ID:   m.ID,
			Role: m.Role,
			User: m.User.Reduce(false),
		})
	}

	sortCallerFirst(members, callerID)
	return members, nil
}

func (s *teamService) GetMyTeams(ctx context.Context, callerID int) ([]*models.Team, error) {
	memberships, err := s.membershipRepo.ListByUserID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships of user %d: %w", callerID, err)
	}

	teams := make([]*models.Team, 0, len(memberships))
	for _, m := range memberships {
		if m.Team == nil {
			continue
		}
		populateTeamImage(m.Team, s.uploader)
		teams = append(teams, m.Team)
	}

	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func (s *teamService) GetPublicTeamByID(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if !team.IsPublic {
		return nil, ErrTeamNotFound
	}

	populateTeamImage(team, s.uploader)
	return team, nil
}

func (s *teamService) PreviewInvitation(ctx context.Context, token string) (*models.Invitation, error) {
	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrInvitationNotFound) {
			return nil, ErrJoinTokenNotValid
		}
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}

	if time.Now().After(invitation.ValidUntil) {
		return nil, ErrJoinTokenNotValid
	}

	populateTeamImage(invitation.Team, s.uploader)
	return invitation, nil
}

func (s *teamService) RoleOf(ctx context.Context, userID, teamID int) (models.MembershipRole, error) {
	membership, err := s.membershipRepo.GetByUserAndTeam(ctx, userID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return "", ErrMembershipNotFound
		}
		return "", fmt.Errorf("failed to resolve role: %w", err)
	}
	return membership.Role, nil
}

func (s *teamService) IsCoach(ctx context.Context, userID, teamID int) (bool, error) {
	role, err := s.RoleOf(ctx, userID, teamID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return false, nil
		}
		return false, err
	}
	return role == models.RoleCoach, nil
}

func (s *teamService) requireCoach(ctx context.Context, userID, teamID int) error {
	isCoach, err := s.IsCoach(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if !isCoach {
		return ErrUserNotACoach
	}
	return nil
}

// sortCallerFirst orders the caller's entry first, everyone else by
// last name ascending.
func sortCallerFirst(members []*models.TeamMember, callerID int) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].User.ID == callerID {
			return members[j].User.ID != callerID
		}
		if members[j].User.ID == callerID {
			return false
		}
		return members[i].User.Lastname < members[j].User.Lastname
	})
}
