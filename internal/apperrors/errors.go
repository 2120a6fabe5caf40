package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenExists   = errors.New("refresh token already exists")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")
	ErrRefreshTokenInvalid  = errors.New("refresh token is invalid")

	ErrAccessTokenMissing = errors.New("access token not provided")
	ErrAccessTokenInvalid = errors.New("access token is invalid")

	ErrSessionNotFound = errors.New("connection session not found")
)
