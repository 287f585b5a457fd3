package contextx

import "context"

// Key is a private type to avoid collisions in request context keys.
type Key string

// UserIDKey is the context key used to store the authenticated user's ID (string).
const UserIDKey Key = "userID"

// SessionIDKey is the context key used to store the current session ID (string).
const SessionIDKey Key = "sessionID"

// UserID returns the authenticated user id set by the auth middleware.
func UserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(UserIDKey).(string)
	return v, ok && v != ""
}

// SessionID returns the session id set by the auth middleware.
func SessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(SessionIDKey).(string)
	return v, ok && v != ""
}

// WithIdentity stores both ids on ctx.
func WithIdentity(ctx context.Context, userID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, SessionIDKey, sessionID)
}
