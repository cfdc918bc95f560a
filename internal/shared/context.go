package shared

import (
	"context"

	"github.com/newsdesk/newsdesk/internal/identity"
)

type sessionContextKey struct{}
type identityContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithIdentity stores the resolved user in context. Handlers pull
// it out once and pass it to the core explicitly; nothing below the
// handler layer reads it from context.
func ContextWithIdentity(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, identityContextKey{}, user)
}

// IdentityFromContext extracts the resolved user, nil when the request
// is unauthenticated.
func IdentityFromContext(ctx context.Context) *identity.User {
	user, _ := ctx.Value(identityContextKey{}).(*identity.User)
	return user
}
