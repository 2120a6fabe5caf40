package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkarpenko/livetrack/internal/apperrors"
	"github.com/mkarpenko/livetrack/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (token, user_id, created_at, expires_at)
VALUES ($1, $2, $3, $4)
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) error {
	_, err := r.DB.Exec(ctx, saveToken, token.Token, token.UserID, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenExists)
		}

		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const consumeToken = `-- name: ConsumeToken
DELETE FROM refresh_tokens
WHERE token = $1
RETURNING user_id, created_at, expires_at
`

// Look up and delete the record in one statement.
// The row lock taken by DELETE guarantees exactly one winner when two
// callers race on the same token: the loser sees zero rows.
func (r *RefreshTokenRepo) ConsumeToken(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, consumeToken, tokenString)
	token, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.RefreshToken, error) {
		t := models.RefreshToken{Token: tokenString}
		err := row.Scan(&t.UserID, &t.CreatedAt, &t.ExpiresAt)
		return t, err
	})

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const deleteToken = `-- name: DeleteToken
DELETE FROM refresh_tokens
WHERE token = $1
`

func (r *RefreshTokenRepo) DeleteToken(ctx context.Context, tokenString string) error {
	_, err := r.DB.Exec(ctx, deleteToken, tokenString)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const deleteUserTokens = `-- name: DeleteUserTokens
DELETE FROM refresh_tokens
WHERE user_id = $1
`

func (r *RefreshTokenRepo) DeleteUserTokens(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteUserTokens, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

const listTokens = `-- name: ListTokens
SELECT token, user_id, created_at, expires_at
FROM refresh_tokens
ORDER BY created_at
`

func (r *RefreshTokenRepo) ListTokens(ctx context.Context) ([]models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, listTokens)
	tokens, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RefreshToken, error) {
		var t models.RefreshToken
		err := row.Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tokens, nil
}
