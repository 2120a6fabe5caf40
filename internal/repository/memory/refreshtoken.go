package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mkarpenko/livetrack/internal/apperrors"
	"github.com/mkarpenko/livetrack/internal/models"
)

type RefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func NewRefreshTokenRepo() *RefreshTokenRepo {
	return &RefreshTokenRepo{
		tokens: make(map[string]models.RefreshToken),
	}
}

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.Token]; ok {
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenExists)
	}

	r.tokens[token.Token] = token
	return nil
}

// Lookup and delete under one mutex hold, so concurrent callers racing on
// the same token get exactly one winner.
func (r *RefreshTokenRepo) ConsumeToken(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenString]
	if !ok {
		return models.RefreshToken{Token: tokenString}, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}

	delete(r.tokens, tokenString)
	return token, nil
}

func (r *RefreshTokenRepo) DeleteToken(ctx context.Context, tokenString string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, tokenString)
	return nil
}

func (r *RefreshTokenRepo) DeleteUserTokens(ctx context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for key, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, key)
			deleted++
		}
	}

	return deleted, nil
}

func (r *RefreshTokenRepo) ListTokens(ctx context.Context) ([]models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens := make([]models.RefreshToken, 0, len(r.tokens))
	for _, token := range r.tokens {
		tokens = append(tokens, token)
	}

	return tokens, nil
}
