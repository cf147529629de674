package auth

import "context"

type ctxKey string

const sessionContextKey ctxKey = "fractalshop.auth.session"

// WithSession stores the decoded session on the request context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext returns the session set by the guard. A missing value
// is a guest session.
func SessionFromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionContextKey).(Session); ok {
		return s
	}
	return Session{}
}
