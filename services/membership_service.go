package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/repositories"
	"github.com/coach-plus/backend/storage"
)

type MembershipService interface {
	// GetMyMemberships returns the caller's memberships sorted by team
	// name, each team enriched with its member count.
	GetMyMemberships(ctx context.Context, callerID int) ([]*models.Membership, error)
	GetMembershipByID(ctx context.Context, membershipID int) (*models.Membership, error)
	// SetRole changes the target membership's role. The caller must be
	// a coach of the membership's team; demoting the last coach fails.
	SetRole(ctx context.Context, callerID, membershipID int, role models.MembershipRole) (*models.Membership, error)
	// RemoveUserFromTeam deletes the target membership. The caller must
	// be a coach of the membership's team; removing the last coach fails.
	RemoveUserFromTeam(ctx context.Context, callerID, membershipID int) error
}

type membershipService struct {
	membershipRepo repositories.MembershipRepository
	uploader       storage.FileUploader
}

func NewMembershipService(
	membershipRepo repositories.MembershipRepository,
	uploader storage.FileUploader,
) MembershipService {
	return &membershipService{
		membershipRepo: membershipRepo,
		uploader:       uploader,
	}
}

func (s *membershipService) GetMyMemberships(ctx context.Context, callerID int) ([]*models.Membership, error) {
	memberships, err := s.membershipRepo.ListByUserID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships of user %d: %w", callerID, err)
	}

	for _, m := range memberships {
		if err := s.enrichTeam(ctx, m); err != nil {
			return nil, err
		}
	}

	sort.Slice(memberships, func(i, j int) bool {
		if memberships[i].Team == nil || memberships[j].Team == nil {
			return memberships[i].ID < memberships[j].ID
		}
		return memberships[i].Team.Name < memberships[j].Team.Name
	})

	return memberships, nil
}

func (s *membershipService) GetMembershipByID(ctx context.Context, membershipID int) (*models.Membership, error) {
	membership, err := s.membershipRepo.GetByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership %d: %w", membershipID, err)
	}

	if err := s.enrichTeam(ctx, membership); err != nil {
		return nil, err
	}

	return membership, nil
}

func (s *membershipService) SetRole(ctx context.Context, callerID, membershipID int, role models.MembershipRole) (*models.Membership, error) {
	if !role.Valid() {
		return nil, ErrRoleInvalid
	}

	membership, err := s.requireCoachOfTarget(ctx, callerID, membershipID)
	if err != nil {
		return nil, err
	}

	if membership.Role == models.RoleCoach && role == models.RoleUser {
		coachCount, err := s.membershipRepo.CountByTeamAndRole(ctx, membership.TeamID, models.RoleCoach)
		if err != nil {
			return nil, fmt.Errorf("failed to count coaches of team %d: %w", membership.TeamID, err)
		}
		if coachCount <= 1 {
			return nil, ErrLastCoachCantLeaveTeam
		}
	}

	if err := s.membershipRepo.UpdateRole(ctx, membershipID, role); err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to update role of membership %d: %w", membershipID, err)
	}

	membership.Role = role
	return membership, nil
}

func (s *membershipService) RemoveUserFromTeam(ctx context.Context, callerID, membershipID int) error {
	membership, err := s.requireCoachOfTarget(ctx, callerID, membershipID)
	if err != nil {
		return err
	}

	if membership.Role == models.RoleCoach {
		coachCount, err := s.membershipRepo.CountByTeamAndRole(ctx, membership.TeamID, models.RoleCoach)
		if err != nil {
			return fmt.Errorf("failed to count coaches of team %d: %w", membership.TeamID, err)
		}
		if coachCount <= 1 {
			return ErrLastCoachCantLeaveTeam
		}
	}

	if err := s.membershipRepo.Delete(ctx, membershipID); err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to delete membership %d: %w", membershipID, err)
	}

	return nil
}

// requireCoachOfTarget loads the target membership and verifies the
// caller holds a coach membership on the same team.
func (s *membershipService) requireCoachOfTarget(ctx context.Context, callerID, membershipID int) (*models.Membership, error) {
	membership, err := s.membershipRepo.GetByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership %d: %w", membershipID, err)
	}

	caller, err := s.membershipRepo.GetByUserAndTeam(ctx, callerID, membership.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return nil, ErrUserNotACoach
		}
		return nil, fmt.Errorf("failed to resolve caller role: %w", err)
	}
	if caller.Role != models.RoleCoach {
		return nil, ErrUserNotACoach
	}

	return membership, nil
}

func (s *membershipService) enrichTeam(ctx context.Context, membership *models.Membership) error {
	if membership.Team == nil {
		return nil
	}

	count, err := s.membershipRepo.CountByTeamID(ctx, membership.TeamID)
	if err != nil {
		return fmt.Errorf("failed to count members of team %d: %w", membership.TeamID, err)
	}
	membership.Team.MemberCount = &count
	populateTeamImage(membership.Team, s.uploader)
	return nil
}
