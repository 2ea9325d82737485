package handlers

import (
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/coach-plus/backend/middleware"
)

var handlerTestSecret = []byte("test-secret")

func authToken(t *testing.T, userID int) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  float64(userID),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(handlerTestSecret)
	require.NoError(t, err)
	return token
}

// newAuthedRouter mounts the given routes behind the auth middleware,
// mirroring how SetupRoutes wires the protected groups.
func newAuthedRouter(register func(r chi.Router)) *chi.Mux {
	router := chi.NewRouter()
	auth := middleware.NewAuthenticator(handlerTestSecret)
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		register(r)
	})
	return router
}
