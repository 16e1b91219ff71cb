package goSession

import "context"

type sessionIDContextKey struct{}

// WithSessionID attaches the browser session id to ctx. Middleware sets it
// from the session cookie; Client methods taking a session id accept it
// explicitly so they also work outside HTTP handlers.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey{}, sessionID)
}

// SessionIDFromContext returns the session id stored by [WithSessionID].
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionIDContextKey{}).(string)
	return id, ok && id != ""
}
