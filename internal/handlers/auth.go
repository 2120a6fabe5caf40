package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/mkarpenko/livetrack/internal/apperrors"
	"github.com/mkarpenko/livetrack/internal/handlers/render"
	"github.com/mkarpenko/livetrack/internal/models"
)

type authService interface {
	// Register user, has to return apperrors.ErrUserAlreadyExists on duplicate email
	Register(ctx context.Context, name string, email string, password string) (models.User, error)

	// Login user, has to return apperrors.ErrUserNotFound on unknown email or bad password
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Rotate tokens using the refresh token
	// Expired: apperrors.ErrRefreshTokenExpired
	// Unknown or already consumed: apperrors.ErrRefreshTokenNotFound
	// Bad signature: apperrors.ErrRefreshTokenInvalid
	// User gone: apperrors.ErrUserNotFound
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Revoke the refresh token, idempotent
	Logout(ctx context.Context, refresh string) error

	// Refresh cookie transport
	GetRefresh(r *http.Request) (string, error)
	SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken)
	ClearRefreshCookie(w http.ResponseWriter)
}

type AuthHandler struct {
	authService authService
}

func NewAuth(auth authService) *AuthHandler {
	return &AuthHandler{authService: auth}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /signup", h.signup)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)
	mux.HandleFunc("POST /logout", h.logout)

	return mux
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	type SignupRequest struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type SignupSuccessResponse struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}

	data, err := render.BindAndValidate[SignupRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.authService.Register(r.Context(), data.Name, data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User with this email already exists", http.StatusBadRequest)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, SignupSuccessResponse{ID: user.ID, Email: user.Email, Role: user.Role})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		AccessToken string `json:"accessToken"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.authService.SetRefreshCookie(w, pair.Refresh)
	render.JSON(w, LoginSuccessResponse{AccessToken: pair.Access.Value})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshSuccessResponse struct {
		AccessToken string `json:"accessToken"`
	}

	refresh, err := h.authService.GetRefresh(r)
	if err != nil {
		render.ServiceError(w, "No refresh token provided", http.StatusUnauthorized)
		return
	}

	pair, err := h.authService.RefreshPair(r.Context(), refresh)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusForbidden)
		default:
			render.ServiceError(w, "Invalid or expired refresh token", http.StatusForbidden)
		}
		return
	}

	h.authService.SetRefreshCookie(w, pair.Refresh)
	render.JSON(w, RefreshSuccessResponse{AccessToken: pair.Access.Value})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutSuccessResponse struct {
		Message string `json:"message"`
	}

	// Logout always succeeds: an absent or unknown token is already logged out
	if refresh, err := h.authService.GetRefresh(r); err == nil {
		_ = h.authService.Logout(r.Context(), refresh)
	}

	h.authService.ClearRefreshCookie(w)
	render.JSON(w, LogoutSuccessResponse{Message: "Logged out successfully"})
}
