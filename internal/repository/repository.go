package repository

import (
	"context"

	"github.com/mkarpenko/livetrack/internal/models"
)

type CreateUserParams struct {
	Name         string
	Email        string
	Role         string
	PasswordHash string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the same email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by its id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token record
	// Token strings are random with enough entropy, so a duplicate means
	// something is badly broken: must return apperrors.ErrRefreshTokenExists
	Save(ctx context.Context, token models.RefreshToken) error

	// Atomically look up and delete the record in a single step.
	// Exactly one of two concurrent callers presenting the same token wins;
	// the loser must get apperrors.ErrRefreshTokenNotFound
	ConsumeToken(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Unconditional delete, idempotent: deleting an absent token is not an error
	DeleteToken(ctx context.Context, tokenString string) error

	// Delete every record that belongs to the user, returns number of deleted rows.
	// Used by the single active session policy at login
	DeleteUserTokens(ctx context.Context, userID int64) (int64, error)

	// List all stored records. Used by the cleanup sweeper only
	ListTokens(ctx context.Context) ([]models.RefreshToken, error)
}

// Storage aggregates repositories over single backend
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
}
