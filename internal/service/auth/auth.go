package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mkarpenko/livetrack/internal/apperrors"
	"github.com/mkarpenko/livetrack/internal/models"
	"github.com/mkarpenko/livetrack/internal/repository"
	"github.com/mkarpenko/livetrack/internal/service/auth/tokenmanager"
)

const (
	defaultRefreshCookieName = "refreshToken"
	defaultAccessAuthScheme  = "Bearer"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during user registration or login process
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// SingleSession wipes all prior refresh records of the user on login,
	// so only one active lineage per user exists. When disabled logins
	// from several devices keep independent lineages
	SingleSession bool

	// Cookie name for the refresh token
	// If not set then default is used
	RefreshCookieName string
}

// AuthService issues, rotates and revokes credential pairs
type AuthService struct {
	tokens *tokenmanager.TokenManager
	hasher PasswordHasher

	userRepo    repository.UserRepo
	refreshRepo repository.RefreshTokenRepo

	singleSession     bool
	refreshCookieName string
}

func NewService(cfg Config, tokens *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	if tokens == nil {
		return nil, errors.New("token manager must not be nil")
	}
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	cookieName := cfg.RefreshCookieName
	if cookieName == "" {
		cookieName = defaultRefreshCookieName
	}

	return &AuthService{
		tokens:            tokens,
		hasher:            hasher,
		userRepo:          storage.User(),
		refreshRepo:       storage.Refresh(),
		singleSession:     cfg.SingleSession,
		refreshCookieName: cookieName,
	}, nil
}

// Register creates a user with the default customer role.
// Registration does not log the user in: no tokens are issued
func (s *AuthService) Register(ctx context.Context, name string, email string, password string) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Name:         name,
		Email:        email,
		Role:         models.RoleCustomer,
		PasswordHash: hash,
	})
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Login checks the password and issues a fresh token pair.
// The refresh credential is persisted before the pair is returned
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.TokenPair{}, apperrors.ErrUserNotFound
		}
		return models.TokenPair{}, fmt.Errorf("login failed: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return models.TokenPair{}, apperrors.ErrUserNotFound
	}

	if s.singleSession {
		if _, err := s.refreshRepo.DeleteUserTokens(ctx, user.ID); err != nil {
			return models.TokenPair{}, fmt.Errorf("login failed: %w", err)
		}
	}

	return s.issuePair(ctx, user)
}

// RefreshPair rotates the refresh credential: the presented token is consumed
// (atomically deleted) before anything new is issued, so a token refreshes at
// most once even under concurrent calls
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	record, err := s.refreshRepo.ConsumeToken(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	if record.ExpiresAt.Before(time.Now()) {
		return models.TokenPair{}, fmt.Errorf("refresh failed: %w", apperrors.ErrRefreshTokenExpired)
	}

	// Record checked out, verify the signature as a secondary integrity check
	if _, err := s.tokens.VerifyRefresh(refresh); err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, record.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.issuePair(ctx, user)
}

// Logout revokes the refresh credential. Idempotent: absent token is fine
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.refreshRepo.DeleteToken(ctx, refresh)
}

func (s *AuthService) issuePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	err = s.refreshRepo.Save(ctx, models.RefreshToken{
		UserID:    user.ID,
		Token:     pair.Refresh.Value,
		CreatedAt: time.Now().Truncate(time.Second),
		ExpiresAt: pair.Refresh.ExpiresAt,
	})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return pair, nil
}

// IdentityFromRequest authenticates the request by its bearer access token.
// Stateless fast path: nothing is looked up in the store
func (s *AuthService) IdentityFromRequest(r *http.Request) (tokenmanager.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return tokenmanager.Identity{}, apperrors.ErrAccessTokenMissing
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != defaultAccessAuthScheme {
		return tokenmanager.Identity{}, fmt.Errorf("%w: bad authorization header", apperrors.ErrAccessTokenInvalid)
	}

	return s.tokens.ParseAccess(token)
}

// SetRefreshCookie attaches the refresh credential as HttpOnly cookie
func (s *AuthService) SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefreshCookie drops the refresh cookie on the client
func (s *AuthService) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetRefresh reads the refresh credential from the request cookie
func (s *AuthService) GetRefresh(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil {
		return "", fmt.Errorf("refresh cookie: %w", apperrors.ErrRefreshTokenNotFound)
	}

	return cookie.Value, nil
}

