// ABOUTME: Identity propagation through request handlers via context
// ABOUTME: Provides WithIdentity/FromContext for the auth guard and handlers

package auth

import (
	"context"
)

// identityContextKey is the key type for storing an Identity in context.Context.
type identityContextKey struct{}

// WithIdentity returns a new context with the Identity attached.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, ident)
}

// FromContext retrieves the Identity from the context, returning nil if not present.
func FromContext(ctx context.Context) *Identity {
	val := ctx.Value(identityContextKey{})
	if val == nil {
		return nil
	}
	ident, ok := val.(*Identity)
	if !ok {
		return nil
	}
	return ident
}

// MustFromContext retrieves the Identity from the context, panicking if not present.
// Only for handlers that run strictly behind the auth guard.
func MustFromContext(ctx context.Context) *Identity {
	ident := FromContext(ctx)
	if ident == nil {
		panic("auth: Identity not found in context")
	}
	return ident
}
