package http

import (
	"context"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the verified caller identity in the context. Each
// request carries its own verification result; there is no shared auth
// state.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext extracts the verified identity, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}
