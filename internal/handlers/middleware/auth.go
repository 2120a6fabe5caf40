package middleware

import (
	"errors"
	"net/http"

	"github.com/mkarpenko/livetrack/internal/apperrors"
	"github.com/mkarpenko/livetrack/internal/handlers"
	"github.com/mkarpenko/livetrack/internal/handlers/render"
	"github.com/mkarpenko/livetrack/internal/service/auth/tokenmanager"
)

type authService interface {
	IdentityFromRequest(r *http.Request) (tokenmanager.Identity, error)
}

// AuthMiddleware guards handlers behind a bearer access token.
// Verification is stateless: a missing token is 401, a token that fails
// signature or expiry checks is 403
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := as.IdentityFromRequest(r)
			if err != nil {
				switch {
				case errors.Is(err, apperrors.ErrAccessTokenMissing):
					render.ServiceError(w, "No token provided", http.StatusUnauthorized)
				default:
					render.ServiceError(w, "Invalid or expired token", http.StatusForbidden)
				}
				return
			}

			ctx := handlers.NewContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
