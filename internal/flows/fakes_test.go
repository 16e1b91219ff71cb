package flows

import (
	"context"
	"errors"
	"sync"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/session"
)

type fakeBackend struct {
	mu sync.Mutex

	refreshResult backend.RefreshResult
	refreshErr    error
	refreshCalls  []string

	logoutErr   error
	logoutCalls int

	loginResult *backend.LoginResult
	loginErr    error
}

func (f *fakeBackend) Refresh(_ context.Context, refreshToken string) (backend.RefreshResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls = append(f.refreshCalls, refreshToken)
	return f.refreshResult, f.refreshErr
}

func (f *fakeBackend) Logout(ctx context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	if f.logoutErr != nil {
		return f.logoutErr
	}
	return ctx.Err()
}

func (f *fakeBackend) Login(context.Context, backend.Credentials) (*backend.LoginResult, error) {
	return f.loginResult, f.loginErr
}

type brokenStore struct {
	session.Store
	readErr  error
	clearErr error
}

func (b brokenStore) Read(ctx context.Context, id string) (*session.Session, error) {
	if b.readErr != nil {
		return nil, b.readErr
	}
	return b.Store.Read(ctx, id)
}

func (b brokenStore) Clear(ctx context.Context, id string) error {
	if b.clearErr != nil {
		return b.clearErr
	}
	return b.Store.Clear(ctx, id)
}

var errBoom = errors.New("boom")

func seededStore(access, refresh string) *session.MemoryStore {
	store := session.NewMemoryStore(0)
	_ = store.Create(context.Background(), &session.Session{
		ID: "sid-1",
		User: session.User{
			ID:           "u-1",
			AccessToken:  access,
			RefreshToken: refresh,
		},
	})
	return store
}
