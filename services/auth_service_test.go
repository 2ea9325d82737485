package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authServiceFixture struct {
	service       AuthService
	users         *fakeUserRepo
	verifications *fakeVerificationRepo
	mailer        *fakeMailer
	jwtSecret     []byte
}

func newAuthServiceFixture() *authServiceFixture {
	users := newFakeUserRepo()
	verifications := newFakeVerificationRepo(users)
	mailer := &fakeMailer{}
	secret := []byte("test-secret")
	return &authServiceFixture{
		service:       NewAuthService(users, verifications, mailer, secret, slog.Default()),
		users:         users,
		verifications: verifications,
		mailer:        mailer,
		jwtSecret:     secret,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("registers and returns a signed token", func(t *testing.T) {
		f := newAuthServiceFixture()

		user, token, err := f.service.Register(ctx, RegisterInput{
			Email:     "  Hanna.Weber@Example.com ",
			Password:  "hunter22",
			Firstname: "Hanna",
			Lastname:  "Weber",
		})
		require.NoError(t, err)

		assert.Equal(t, "hanna.weber@example.com", user.Email)
		assert.False(t, user.EmailVerified)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) { return f.jwtSecret, nil })
		require.NoError(t, err)
		claims, ok := parsed.Claims.(jwt.MapClaims)
		require.True(t, ok)
		assert.Equal(t, float64(user.ID), claims["id"])
		assert.Equal(t, "hanna.weber@example.com", claims["email"])

		count, err := f.verifications.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("empty email", func(t *testing.T) {
		f := newAuthServiceFixture()
		_, _, err := f.service.Register(ctx, RegisterInput{Password: "hunter22"})
		assert.ErrorIs(t, err, ErrEmailRequired)
	})

	t.Run("empty password", func(t *testing.T) {
		f := newAuthServiceFixture()
		_, _, err := f.service.Register(ctx, RegisterInput{Email: "hanna@example.com"})
		assert.ErrorIs(t, err, ErrCredentialsWrong)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAuthServiceFixture()
		_, _, err := f.service.Register(ctx, RegisterInput{Email: "hanna@example.com", Password: "hunter22"})
		require.NoError(t, err)

		_, _, err = f.service.Register(ctx, RegisterInput{Email: "HANNA@example.com", Password: "other"})
		assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthServiceFixture()
	registered, _, err := f.service.Register(ctx, RegisterInput{
		Email:    "hanna@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, token, err := f.service.Login(ctx, LoginInput{Email: "Hanna@Example.com", Password: "hunter22"})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := f.service.Login(ctx, LoginInput{Email: "hanna@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrCredentialsWrong)
	})

	t.Run("unknown email reads like a wrong password", func(t *testing.T) {
		_, _, err := f.service.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "hunter22"})
		assert.ErrorIs(t, err, ErrCredentialsWrong)
	})
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthServiceFixture()
	user, _, err := f.service.Register(ctx, RegisterInput{Email: "hanna@example.com", Password: "hunter22"})
	require.NoError(t, err)

	var token string
	for _, v := range f.verifications.verifications {
		token = v.Token
	}
	require.NotEmpty(t, token)

	t.Run("unknown token", func(t *testing.T) {
		err := f.service.VerifyEmail(ctx, "bogus")
		assert.ErrorIs(t, err, ErrVerificationTokenNotFound)
	})

	t.Run("marks the email verified and burns the token", func(t *testing.T) {
		require.NoError(t, f.service.VerifyEmail(ctx, token))

		stored, err := f.users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, stored.EmailVerified)

		count, err := f.verifications.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("resend after verification", func(t *testing.T) {
		err := f.service.ResendVerification(ctx, user.ID)
		assert.ErrorIs(t, err, ErrEmailAlreadyVerified)
	})
}

func TestResendVerification(t *testing.T) {
	ctx := context.Background()
	f := newAuthServiceFixture()
	user, _, err := f.service.Register(ctx, RegisterInput{Email: "hanna@example.com", Password: "hunter22"})
	require.NoError(t, err)

	require.NoError(t, f.service.ResendVerification(ctx, user.ID))
	count, err := f.verifications.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	err = f.service.ResendVerification(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRequestNewPassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthServiceFixture()
	user, _, err := f.service.Register(ctx, RegisterInput{Email: "hanna@example.com", Password: "hunter22"})
	require.NoError(t, err)
	oldHash := user.PasswordHash

	t.Run("rotates the password", func(t *testing.T) {
		require.NoError(t, f.service.RequestNewPassword(ctx, "hanna@example.com"))

		stored, err := f.users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, oldHash, stored.PasswordHash)
		assert.Error(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter22")))
	})

	t.Run("unknown email is silently accepted", func(t *testing.T) {
		assert.NoError(t, f.service.RequestNewPassword(ctx, "nobody@example.com"))
	})

	t.Run("empty email", func(t *testing.T) {
		err := f.service.RequestNewPassword(ctx, "")
		assert.ErrorIs(t, err, ErrEmailRequired)
	})
}
