//go:build integration
// +build integration

package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logctx"
	"github.com/MrEthical07/goSession/session"
)

// rotatingAPI revokes refresh tokens on use and only accepts live access tokens.
type rotatingAPI struct {
	srv *httptest.Server

	mu      sync.Mutex
	seq     int
	access  map[string]bool
	refresh map[string]bool

	refreshCalls atomic.Int64
	logoutCalls  atomic.Int64
	delay        time.Duration
}

func newRotatingAPI(t *testing.T) *rotatingAPI {
	t.Helper()
	a := &rotatingAPI{access: map[string]bool{}, refresh: map[string]bool{}}
	a.srv = httptest.NewServer(a)
	t.Cleanup(a.srv.Close)
	return a
}

func (a *rotatingAPI) issueLocked() (string, string) {
	a.seq++
	access, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"sub": "u-1",
		"jti": fmt.Sprintf("a-%d", a.seq),
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("integration"))
	if err != nil {
		panic(err)
	}
	refresh := fmt.Sprintf("r-%d", a.seq)
	a.access[access] = true
	a.refresh[refresh] = true
	return access, refresh
}

// stalePair returns a revoked access token with a live refresh token.
func (a *rotatingAPI) stalePair() (string, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	access, refresh := a.issueLocked()
	delete(a.access, access)
	return access, refresh
}

func (a *rotatingAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/refresh-token":
		a.refreshCalls.Add(1)
		if a.delay > 0 {
			time.Sleep(a.delay)
		}
		var in struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		a.mu.Lock()
		defer a.mu.Unlock()
		if !a.refresh[in.RefreshToken] {
			reply(w, map[string]any{"error": true, "message": "refresh token revoked"})
			return
		}
		delete(a.refresh, in.RefreshToken)
		access, refresh := a.issueLocked()
		reply(w, map[string]any{"data": map[string]any{"accessToken": access, "refreshToken": refresh}})
	case "/logout":
		a.logoutCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	default:
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		a.mu.Lock()
		ok := a.access[token]
		a.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		reply(w, map[string]any{"data": []any{}})
	}
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func newClient(t *testing.T, api *rotatingAPI, rdb redis.UniversalClient, dedup bool) *goSession.Client {
	t.Helper()
	client, err := goSession.New().
		WithBaseURL(api.srv.URL).
		WithRedis(rdb).
		WithLogger(logctx.Discard()).
		WithRefreshDeduplication(dedup).
		Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func seed(t *testing.T, client *goSession.Client, id, access, refresh string) {
	t.Helper()
	err := client.Store().Create(t.Context(), &session.Session{
		ID:   id,
		User: session.User{ID: "u-1", Name: "Ada", AccessToken: access, RefreshToken: refresh},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}
