package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/session"
)

func TestRunRefreshSuccessRotates(t *testing.T) {
	store := seededStore("a1", "r1")
	be := &fakeBackend{refreshResult: backend.RefreshResult{Kind: backend.RefreshSuccess, AccessToken: "a2", RefreshToken: "r2"}}

	res := RunRefresh(context.Background(), RefreshInput{SessionID: "sid-1"}, RefreshDeps{SessionStore: store, Backend: be})
	if res.Failure != RefreshFailureNone {
		t.Fatalf("unexpected failure %v: %v", res.Failure, res.Err)
	}
	if res.AccessToken != "a2" || res.RefreshToken != "r2" || !res.Rotated {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(be.refreshCalls) != 1 || be.refreshCalls[0] != "r1" {
		t.Fatalf("expected one refresh with r1, got %v", be.refreshCalls)
	}

	got, _ := store.Read(context.Background(), "sid-1")
	if got.User.AccessToken != "a2" || got.User.RefreshToken != "r2" {
		t.Fatalf("store not updated: %+v", got.User)
	}
}

func TestRunRefreshKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	store := seededStore("a1", "r1")
	be := &fakeBackend{refreshResult: backend.RefreshResult{Kind: backend.RefreshSuccess, AccessToken: "a2"}}

	res := RunRefresh(context.Background(), RefreshInput{SessionID: "sid-1"}, RefreshDeps{SessionStore: store, Backend: be})
	if res.Failure != RefreshFailureNone || res.Rotated {
		t.Fatalf("unexpected result: %+v", res)
	}

	got, _ := store.Read(context.Background(), "sid-1")
	if got.User.AccessToken != "a2" || got.User.RefreshToken != "r1" {
		t.Fatalf("expected retained refresh token, got %+v", got.User)
	}
}

func TestRunRefreshFailureKinds(t *testing.T) {
	rejected := backend.RefreshResult{Kind: backend.RefreshRejected, Code: "401"}

	cases := []struct {
		name     string
		store    RefreshSessionStore
		be       *fakeBackend
		kind     RefreshFailureKind
		calls    int
		teardown bool
	}{
		{name: "missing session", store: session.NewMemoryStore(0), be: &fakeBackend{}, kind: RefreshFailureMissingSession},
		{name: "token-less session", store: seededStore("", ""), be: &fakeBackend{}, kind: RefreshFailureMissingRefreshToken, teardown: true},
		{name: "store read error", store: brokenStore{Store: seededStore("a1", "r1"), readErr: errBoom}, be: &fakeBackend{}, kind: RefreshFailureStore, teardown: true},
		{name: "transport", store: seededStore("a1", "r1"), be: &fakeBackend{refreshErr: errBoom}, kind: RefreshFailureTransport, calls: 1, teardown: true},
		{name: "rejected", store: seededStore("a1", "r1"), be: &fakeBackend{refreshResult: rejected}, kind: RefreshFailureRejected, calls: 1, teardown: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := RunRefresh(context.Background(), RefreshInput{SessionID: "sid-1"}, RefreshDeps{SessionStore: tc.store, Backend: tc.be})
			if res.Failure != tc.kind {
				t.Fatalf("expected %v, got %v (%v)", tc.kind, res.Failure, res.Err)
			}
			if len(tc.be.refreshCalls) != tc.calls {
				t.Fatalf("expected %d backend calls, got %d", tc.calls, len(tc.be.refreshCalls))
			}
			if res.Failure.Teardown() != tc.teardown {
				t.Fatalf("unexpected teardown flag for %v", res.Failure)
			}
			if res.AccessToken != "" {
				t.Fatal("failure must not carry a token")
			}
		})
	}
}

func TestRunRefreshMissingRefreshToken(t *testing.T) {
	store := session.NewMemoryStore(0)
	// Create refuses an access token without a refresh token, so seed a
	// profile-only session and check the refresh-token guard directly.
	_ = store.Create(context.Background(), &session.Session{ID: "sid-1", User: session.User{ID: "u-1"}})
	be := &fakeBackend{}

	res := RunRefresh(context.Background(), RefreshInput{SessionID: "sid-1"}, RefreshDeps{
		SessionStore: onlyAccessStore{MemoryStore: store},
		Backend:      be,
	})
	if res.Failure != RefreshFailureMissingRefreshToken {
		t.Fatalf("expected missing refresh token, got %v", res.Failure)
	}
	if len(be.refreshCalls) != 0 {
		t.Fatal("backend must not be called without a refresh token")
	}
}

type onlyAccessStore struct {
	*session.MemoryStore
}

func (s onlyAccessStore) Read(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.MemoryStore.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.User.AccessToken = "a1"
	sess.User.RefreshToken = ""
	return sess, nil
}

func TestRunRefreshReusesAlreadyRotatedToken(t *testing.T) {
	store := seededStore("a2", "r2")
	be := &fakeBackend{}

	res := RunRefresh(context.Background(), RefreshInput{SessionID: "sid-1", RejectedToken: "a1"}, RefreshDeps{SessionStore: store, Backend: be})
	if res.Failure != RefreshFailureNone || !res.Reused || res.AccessToken != "a2" {
		t.Fatalf("expected reuse of a2, got %+v", res)
	}
	if len(be.refreshCalls) != 0 {
		t.Fatal("reuse must not call the backend")
	}
}

func TestRunRefreshStoreUpdateFailure(t *testing.T) {
	store := failingUpdateStore{MemoryStore: seededStore("a1", "r1")}
	be := &fakeBackend{refreshResult: backend.RefreshResult{Kind: backend.RefreshSuccess, AccessToken: "a2"}}

	res := RunRefresh(context.Background(), RefreshInput{SessionID: "sid-1"}, RefreshDeps{SessionStore: store, Backend: be})
	if res.Failure != RefreshFailureStore || !errors.Is(res.Err, session.ErrStoreUnavailable) {
		t.Fatalf("expected store failure, got %v (%v)", res.Failure, res.Err)
	}
}

type failingUpdateStore struct {
	*session.MemoryStore
}

func (failingUpdateStore) Update(context.Context, string, session.Patch) (*session.Session, error) {
	return nil, session.ErrStoreUnavailable
}
