package handlers

import (
	"context"

	"github.com/mkarpenko/livetrack/internal/service/auth/tokenmanager"
)

type ctxKey string

const identityKey ctxKey = "identity"

func NewContextWithIdentity(ctx context.Context, id tokenmanager.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (tokenmanager.Identity, bool) {
	id, ok := ctx.Value(identityKey).(tokenmanager.Identity)
	return id, ok
}
