package handlers

import (
	"fmt"
	"net/http"

	"github.com/mkarpenko/livetrack/internal/handlers/render"
)

// handleProtected is a sample endpoint that requires a valid access token
func handleProtected() http.Handler {
	type response struct {
		Message string `json:"message"`
		UserID  int64  `json:"userId"`
		Role    string `json:"role"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())
		render.JSON(w, response{
			Message: "You accessed a protected route!",
			UserID:  identity.UserID,
			Role:    identity.Role,
		})
	})
}

func handleDashboard() http.Handler {
	type response struct {
		Message string `json:"message"`
		Role    string `json:"role"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())
		render.JSON(w, response{
			Message: fmt.Sprintf("Welcome to your dashboard, user %d!", identity.UserID),
			Role:    identity.Role,
		})
	})
}
