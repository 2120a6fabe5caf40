package models

import (
	"time"
)

// RefreshToken is the persisted record of an outstanding refresh credential.
// The record is the authority: once deleted the credential is invalid even if
// its signature still verifies.
type RefreshToken struct {
	UserID    int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager on register, login or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
