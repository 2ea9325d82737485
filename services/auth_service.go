package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/repositories"
)

const authTokenLifetime = 30 * 24 * time.Hour

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, userID int) error
	RequestNewPassword(ctx context.Context, email string) error
	TokenForUser(user *models.User) (string, error)
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	userRepo         repositories.UserRepository
	verificationRepo repositories.VerificationRepository
	mailer           Mailer
	jwtSecret        []byte
	logger           *slog.Logger
}

func NewAuthService(
	userRepo repositories.UserRepository,
	verificationRepo repositories.VerificationRepository,
	mailer Mailer,
	jwtSecret []byte,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		verificationRepo: verificationRepo,
		mailer:           mailer,
		jwtSecret:        jwtSecret,
		logger:           logger,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, "", ErrEmailRequired
	}
	if input.Password == "" {
		return nil, "", ErrCredentialsWrong
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Firstname:    input.Firstname,
		Lastname:     input.Lastname,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, "", ErrEmailAlreadyRegistered
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	s.issueVerification(ctx, user)

	token, err := s.TokenForUser(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", ErrCredentialsWrong
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrCredentialsWrong
		}
		return nil, "", fmt.Errorf("failed to compare password hash: %w", err)
	}

	token, err := s.TokenForUser(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	verification, err := s.verificationRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrVerificationNotFound) {
			return ErrVerificationTokenNotFound
		}
		return fmt.Errorf("failed to look up verification token: %w", err)
	}

	if verification.User != nil && verification.User.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	if err := s.userRepo.SetEmailVerified(ctx, verification.UserID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	if err := s.verificationRepo.Delete(ctx, verification.ID); err != nil {
		// The user is verified either way; a stale token row is harmless.
		s.logger.WarnContext(ctx, "failed to delete redeemed verification",
			slog.Int("verification_id", verification.ID), slog.Any("error", err))
	}

	return nil
}

func (s *authService) ResendVerification(ctx context.Context, userID int) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	if user.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	s.issueVerification(ctx, user)
	return nil
}

func (s *authService) RequestNewPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ErrEmailRequired
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Do not reveal whether the email is registered.
			return nil
		}
		return fmt.Errorf("failed to find user by email: %w", err)
	}

	newPassword, err := generateSecureToken(8)
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store new password: %w", err)
	}

	go func() {
		if err := s.mailer.SendNewPasswordEmail(user.Email, user.Firstname, newPassword); err != nil {
			s.logger.Error("failed to send new-password email",
				slog.Int("user_id", user.ID), slog.Any("error", err))
		}
	}()

	return nil
}

// TokenForUser signs a JWT carrying the reduced user profile.
func (s *authService) TokenForUser(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"id":        user.ID,
		"email":     user.Email,
		"firstname": user.Firstname,
		"lastname":  user.Lastname,
		"exp":       time.Now().Add(authTokenLifetime).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// issueVerification persists a fresh verification token and mails the
// link. Both steps are best-effort: registration never fails because
// the verification mail did not go out.
func (s *authService) issueVerification(ctx context.Context, user *models.User) {
	verification := &models.Verification{
		UserID: user.ID,
		Token:  uuid.NewString(),
	}

	if err := s.verificationRepo.Create(ctx, verification); err != nil {
		s.logger.ErrorContext(ctx, "failed to create verification",
			slog.Int("user_id", user.ID), slog.Any("error", err))
		return
	}

	go func() {
		if err := s.mailer.SendVerificationEmail(user.Email, user.Firstname, verification.Token); err != nil {
			s.logger.Error("failed to send verification email",
				slog.Int("user_id", user.ID), slog.Any("error", err))
		}
	}()
}
