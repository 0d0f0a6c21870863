// shared/api/middleware_test.go
package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authProbe() (http.Handler, *string) {
	seen := new(string)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := CallerID(r); ok {
			*seen = id
		}
		w.WriteHeader(http.StatusOK)
	}), seen
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	userID := uuid.NewString()
	probe, seen := authProbe()
	handler := AuthMiddleware(testSecret)(probe)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, *seen)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	userID := uuid.NewString()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signedToken(t, "other-secret", jwt.MapClaims{"user_id": userID})},
		{"expired token", "Bearer " + signedToken(t, testSecret, jwt.MapClaims{
			"user_id": userID,
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})},
		{"missing user_id claim", "Bearer " + signedToken(t, testSecret, jwt.MapClaims{"sub": userID})},
		{"user_id not a uuid", "Bearer " + signedToken(t, testSecret, jwt.MapClaims{"user_id": "bob"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe, seen := authProbe()
			handler := AuthMiddleware(testSecret)(probe)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, *seen)
		})
	}
}
