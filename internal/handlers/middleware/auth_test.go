package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpenko/livetrack/internal/handlers"
	"github.com/mkarpenko/livetrack/internal/models"
	"github.com/mkarpenko/livetrack/internal/repository/memory"
	"github.com/mkarpenko/livetrack/internal/service/auth"
	"github.com/mkarpenko/livetrack/internal/service/auth/tokenmanager"
)

func Test_AuthMiddleware(t *testing.T) {
	t.Parallel()

	tokens, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
	})
	require.NoError(t, err)

	s, err := auth.NewService(auth.Config{}, tokens, memory.NewStorage())
	require.NoError(t, err)

	// Next handler records the identity it got from the context
	var gotIdentity tokenmanager.Identity
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotIdentity, _ = handlers.IdentityFromContext(r.Context())
	})

	handler := AuthMiddleware(s)(next)

	serve := func(t *testing.T, authHeader string) *httptest.ResponseRecorder {
		t.Helper()

		called = false
		gotIdentity = tokenmanager.Identity{}

		r := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if authHeader != "" {
			r.Header.Set("Authorization", authHeader)
		}
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		return w
	}

	t.Run("valid token passes identity to next", func(t *testing.T) {
		pair, err := tokens.GeneratePair(models.User{ID: 7, Role: models.RoleCourier})
		require.NoError(t, err)

		w := serve(t, "Bearer "+pair.Access.Value)

		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, called, "next handler should be reached")
		assert.Equal(t, int64(7), gotIdentity.UserID)
		assert.Equal(t, models.RoleCourier, gotIdentity.Role)
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		w := serve(t, "")

		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.False(t, called, "next handler must not be reached")
		assert.JSONEq(t, `{"error": "No token provided"}`, w.Body.String())
	})

	t.Run("bad token is forbidden", func(t *testing.T) {
		tests := []struct {
			name   string
			header string
		}{
			{name: "garbage token", header: "Bearer garbage"},
			{name: "wrong scheme", header: "Basic something"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := serve(t, tt.header)

				require.Equal(t, http.StatusForbidden, w.Code)
				require.False(t, called, "next handler must not be reached")
				assert.JSONEq(t, `{"error": "Invalid or expired token"}`, w.Body.String())
			})
		}
	})

	t.Run("expired token is forbidden", func(t *testing.T) {
		expired, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessTTL:     -time.Minute,
		})
		require.NoError(t, err)

		pair, err := expired.GeneratePair(models.User{ID: 7, Role: models.RoleCourier})
		require.NoError(t, err)

		w := serve(t, "Bearer "+pair.Access.Value)

		require.Equal(t, http.StatusForbidden, w.Code)
	})
}
