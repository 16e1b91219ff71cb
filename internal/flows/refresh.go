package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissingSession
	RefreshFailureMissingRefreshToken
	RefreshFailureTransport
	RefreshFailureRejected
	RefreshFailureStore
)

func (k RefreshFailureKind) String() string {
	switch k {
	case RefreshFailureNone:
		return "none"
	case RefreshFailureMissingSession:
		return "missing_session"
	case RefreshFailureMissingRefreshToken:
		return "missing_refresh_token"
	case RefreshFailureTransport:
		return "transport"
	case RefreshFailureRejected:
		return "rejected"
	case RefreshFailureStore:
		return "store"
	default:
		return "unknown"
	}
}

// Teardown reports whether the failure invalidates the session.
func (k RefreshFailureKind) Teardown() bool {
	return k != RefreshFailureNone && k != RefreshFailureMissingSession
}

type RefreshSessionStore interface {
	Read(ctx context.Context, id string) (*session.Session, error)
	Update(ctx context.Context, id string, p session.Patch) (*session.Session, error)
}

type RefreshBackend interface {
	Refresh(ctx context.Context, refreshToken string) (backend.RefreshResult, error)
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	SessionStore RefreshSessionStore
	Backend      RefreshBackend
	Timeout      time.Duration
}

// RefreshInput names the session to refresh. RejectedToken, when set, is the
// access token the backend just refused; a session already holding a
// different token has been refreshed by someone else and is reused as is.
type RefreshInput struct {
	SessionID     string
	RejectedToken string
}

// RefreshResult carries either the committed token pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	SessionID    string
	UserID       string
	AccessToken  string
	RefreshToken string
	Rotated      bool
	Reused       bool
	Rejection    backend.RefreshResult
}

// RunRefresh exchanges the session's refresh token and commits the new pair.
func RunRefresh(ctx context.Context, in RefreshInput, deps RefreshDeps) RefreshResult {
	sess, err := deps.SessionStore.Read(ctx, in.SessionID)
	if err != nil {
		kind := RefreshFailureStore
		if errors.Is(err, session.ErrNotFound) {
			kind = RefreshFailureMissingSession
		}
		return RefreshResult{Failure: kind, Err: err, SessionID: in.SessionID}
	}
	if in.RejectedToken != "" && sess.HasAccessToken() && sess.User.AccessToken != in.RejectedToken {
		return RefreshResult{
			SessionID:    in.SessionID,
			UserID:       sess.User.ID,
			AccessToken:  sess.User.AccessToken,
			RefreshToken: sess.User.RefreshToken,
			Reused:       true,
		}
	}

	current := sess.User.RefreshToken
	if current == "" {
		return RefreshResult{
			Failure:   RefreshFailureMissingRefreshToken,
			SessionID: in.SessionID,
			UserID:    sess.User.ID,
		}
	}

	callCtx := ctx
	if deps.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, deps.Timeout)
		defer cancel()
	}

	outcome, err := deps.Backend.Refresh(callCtx, current)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureTransport,
			Err:       err,
			SessionID: in.SessionID,
			UserID:    sess.User.ID,
		}
	}
	if outcome.Kind != backend.RefreshSuccess {
		return RefreshResult{
			Failure:   RefreshFailureRejected,
			SessionID: in.SessionID,
			UserID:    sess.User.ID,
			Rejection: outcome,
		}
	}

	next := outcome.RefreshToken
	rotated := next != ""
	if !rotated {
		next = current
	}

	committed, err := deps.SessionStore.Update(ctx, in.SessionID, session.Patch{
		Tokens: &session.TokenPair{AccessToken: outcome.AccessToken, RefreshToken: next},
	})
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureStore,
			Err:       err,
			SessionID: in.SessionID,
			UserID:    sess.User.ID,
		}
	}

	return RefreshResult{
		SessionID:    in.SessionID,
		UserID:       committed.User.ID,
		AccessToken:  committed.User.AccessToken,
		RefreshToken: committed.User.RefreshToken,
		Rotated:      rotated,
	}
}
