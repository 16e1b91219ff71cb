package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/session"
)

type LogoutSessionStore interface {
	Read(ctx context.Context, id string) (*session.Session, error)
	Clear(ctx context.Context, id string) error
}

type LogoutBackend interface {
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	SessionStore  LogoutSessionStore
	Backend       LogoutBackend
	RemoteTimeout time.Duration
	Warn          func(ctx context.Context, msg string, args ...any)
}

// LogoutResult reports what each step of the cascade did.
type LogoutResult struct {
	SessionID       string
	UserID          string
	RemoteAttempted bool
	RemoteErr       error
	LocalErr        error
}

// RunLogout revokes the refresh token remotely when possible and then clears
// the local session whatever happened remotely. Both steps ignore the
// caller's cancellation so an aborted request still tears the session down.
func RunLogout(ctx context.Context, sessionID string, deps LogoutDeps) LogoutResult {
	ctx = context.WithoutCancel(ctx)
	res := LogoutResult{SessionID: sessionID}

	res.RemoteAttempted, res.UserID, res.RemoteErr = revokeRemote(ctx, sessionID, deps)
	if res.RemoteErr != nil && deps.Warn != nil {
		deps.Warn(ctx, "goSession: remote logout failed", "session_id", sessionID, "error", res.RemoteErr)
	}

	if err := deps.SessionStore.Clear(ctx, sessionID); err != nil {
		res.LocalErr = err
		if deps.Warn != nil {
			deps.Warn(ctx, "goSession: local session teardown failed", "session_id", sessionID, "error", err)
		}
	}
	return res
}

func revokeRemote(ctx context.Context, sessionID string, deps LogoutDeps) (bool, string, error) {
	sess, err := deps.SessionStore.Read(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return false, "", nil
		}
		return false, "", err
	}
	if sess.User.RefreshToken == "" || deps.Backend == nil {
		return false, sess.User.ID, nil
	}

	if deps.RemoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deps.RemoteTimeout)
		defer cancel()
	}
	return true, sess.User.ID, deps.Backend.Logout(ctx, sess.User.AccessToken, sess.User.RefreshToken)
}
