package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/repositories"
	"github.com/coach-plus/backend/storage"
)

type UserService interface {
	GetMe(ctx context.Context, userID int) (*models.User, error)
	UpdateInformation(ctx context.Context, userID int, input UpdateInformationInput) (*models.User, error)
	UpdateImage(ctx context.Context, userID int, imageDataURL string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int, oldPassword, newPassword string) error
	// UpsertDevice registers the push endpoint of the caller's device.
	// Only the subject user may register their own devices.
	UpsertDevice(ctx context.Context, callerID, targetUserID int, input DeviceInput) (*models.Device, error)
	// GetUserMemberships lists the target's memberships, annotating each
	// with whether the viewer shares the team.
	GetUserMemberships(ctx context.Context, viewerID, targetUserID int) ([]*models.UserMembership, error)
}

type UpdateInformationInput struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

type DeviceInput struct {
	DeviceID string              `json:"deviceId"`
	PushID   string              `json:"pushId"`
	System   models.DeviceSystem `json:"system"`
}

type userService struct {
	userRepo       repositories.UserRepository
	membershipRepo repositories.MembershipRepository
	deviceRepo     repositories.DeviceRepository
	uploader       storage.FileUploader
}

func NewUserService(
	userRepo repositories.UserRepository,
	membershipRepo repositories.MembershipRepository,
	deviceRepo repositories.DeviceRepository,
	uploader storage.FileUploader,
) UserService {
	return &userService{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		deviceRepo:     deviceRepo,
		uploader:       uploader,
	}
}

func (s *userService) GetMe(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	populateUserImage(user, s.uploader)
	return user, nil
}

func (s *userService) UpdateInformation(ctx context.Context, userID int, input UpdateInformationInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	user.Firstname = input.Firstname
	user.Lastname = input.Lastname

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}

	populateUserImage(user, s.uploader)
	return user, nil
}

func (s *userService) UpdateImage(ctx context.Context, userID int, imageDataURL string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	key, err := storeDataURLImage(ctx, s.uploader, "users", imageDataURL)
	if err != nil {
		return nil, err
	}

	oldKey := user.ImageKey
	user.ImageKey = &key

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user %d image: %w", userID, err)
	}

	if oldKey != nil && *oldKey != "" {
		// A leftover object is harmless, an error here does not matter.
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	populateUserImage(user, s.uploader)
	return user, nil
}

func (s *userService) UpdatePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrPasswordWrong
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store new password: %w", err)
	}

	return nil
}

func (s *userService) UpsertDevice(ctx context.Context, callerID, targetUserID int, input DeviceInput) (*models.Device, error) {
	if callerID != targetUserID {
		return nil, ErrUnauthorized
	}
	if !input.System.Valid() {
		return nil, ErrSystemInvalid
	}

	device := &models.Device{
		UserID:   targetUserID,
		DeviceID: input.DeviceID,
		PushID:   input.PushID,
		System:   input.System,
	}

	if err := s.deviceRepo.Upsert(ctx, device); err != nil {
		if errors.Is(err, repositories.ErrDeviceUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to upsert device: %w", err)
	}

	return device, nil
}

func (s *userService) GetUserMemberships(ctx context.Context, viewerID, targetUserID int) ([]*models.UserMembership, error) {
	memberships, err := s.membershipRepo.ListByUserID(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships of user %d: %w", targetUserID, err)
	}

	viewerTeams := map[int]bool{}
	if viewerID != targetUserID {
		viewerMemberships, err := s.membershipRepo.ListByUserID(ctx, viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to list memberships of viewer %d: %w", viewerID, err)
		}
		for _, m := range viewerMemberships {
			viewerTeams[m.TeamID] = true
		}
	}

	result := make([]*models.UserMembership, 0, len(memberships))
	for _, m := range memberships {
		populateTeamImage(m.Team, s.uploader)
		joined := viewerID == targetUserID || viewerTeams[m.TeamID]
		result = append(result, &models.UserMembership{Membership: *m, Joined: joined})
	}

	return result, nil
}
