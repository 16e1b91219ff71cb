package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/session"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureRejected
	LoginFailureTransport
	LoginFailureStore
)

type LoginBackend interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.LoginResult, error)
}

type LoginSessionStore interface {
	Create(ctx context.Context, s *session.Session) error
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Backend      LoginBackend
	SessionStore LoginSessionStore
	NewID        func() string
}

// LoginResult carries the created session or failure metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	Session *session.Session
}

// RunLogin exchanges credentials with the backend and stores a new session.
func RunLogin(ctx context.Context, creds backend.Credentials, deps LoginDeps) LoginResult {
	res, err := deps.Backend.Login(ctx, creds)
	if err != nil {
		kind := LoginFailureTransport
		if errors.Is(err, backend.ErrLoginRejected) {
			kind = LoginFailureRejected
		}
		return LoginResult{Failure: kind, Err: err}
	}

	sess := &session.Session{
		ID:   deps.NewID(),
		User: res.User,
	}
	if err := deps.SessionStore.Create(ctx, sess); err != nil {
		return LoginResult{Failure: LoginFailureStore, Err: err}
	}
	return LoginResult{Session: sess}
}
