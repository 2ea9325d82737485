package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const userContextKey contextKey = "user"

const accessTokenHeader = "x-access-token"

// Authenticator verifies the bearer token of incoming requests and puts
// its claims on the request context.
type Authenticator struct {
	jwtSecret []byte
}

func NewAuthenticator(jwtSecret []byte) *Authenticator {
	return &Authenticator{jwtSecret: jwtSecret}
}

// Authenticate accepts the token from the x-access-token header, the
// `token` query parameter, or a `token` field in a JSON body, in that
// order. Requests without a valid token get a 401 envelope.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := a.extractToken(r)
		if tokenString == "" {
			unauthenticated(w)
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			unauthenticated(w)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthenticated(w)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) extractToken(r *http.Request) string {
	if token := r.Header.Get(accessTokenHeader); token != "" {
		return token
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	// Fall back to a token field in a JSON body. The body is restored
	// so handlers can still decode it.
	if r.Body == nil {
		return ""
	}
	bodyBytes, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	if err != nil || len(bodyBytes) == 0 {
		return ""
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return ""
	}
	return body.Token
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"content": nil,
		"message": "Unauthenticated",
	})
}
