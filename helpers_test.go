package goSession

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goSession/internal/logctx"
	"github.com/MrEthical07/goSession/session"
)

const (
	refreshRotate        = "rotate"
	refreshKeep          = "keep"
	refreshReject        = "reject"
	refreshRejectNested  = "reject-nested"
	refreshRejectMalform = "malformed"
)

type recordedCall struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          []byte
}

// fakeAPI is an in-process finance backend. Access tokens are accepted only
// while they are in the access set; refresh tokens rotate on use.
type fakeAPI struct {
	srv *httptest.Server

	mu             sync.Mutex
	seq            int
	access         map[string]bool
	refresh        map[string]bool
	refreshMode    string
	refreshGate    chan struct{}
	refreshEntered chan struct{}
	logoutStatus   int
	refreshCalls   int
	logoutCalls    int
	calls          []recordedCall
	routes         map[string]http.HandlerFunc
}

func newFakeAPI(t testing.TB) *fakeAPI {
	t.Helper()
	api := &fakeAPI{
		access:       map[string]bool{},
		refresh:      map[string]bool{},
		refreshMode:  refreshRotate,
		logoutStatus: http.StatusOK,
		routes:       map[string]http.HandlerFunc{},
	}
	api.srv = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) URL() string {
	return a.srv.URL
}

func mintToken(seq int, exp time.Time) string {
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"sub": "u-1",
		"jti": fmt.Sprintf("t-%d", seq),
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return signed
}

// issuePair registers and returns a fresh access/refresh pair.
func (a *fakeAPI) issuePair() (string, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.issuePairLocked()
}

func (a *fakeAPI) issuePairLocked() (string, string) {
	a.seq++
	access := mintToken(a.seq, time.Now().Add(15*time.Minute))
	refresh := fmt.Sprintf("refresh-%d", a.seq)
	a.access[access] = true
	a.refresh[refresh] = true
	return access, refresh
}

// staleSession returns an access token the API no longer accepts and a live refresh token.
func (a *fakeAPI) staleSession() (string, string) {
	access, refresh := a.issuePair()
	a.mu.Lock()
	delete(a.access, access)
	a.mu.Unlock()
	return access, refresh
}

func (a *fakeAPI) setRefreshMode(mode string) {
	a.mu.Lock()
	a.refreshMode = mode
	a.mu.Unlock()
}

func (a *fakeAPI) counts() (refreshCalls, logoutCalls, apiCalls int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshCalls, a.logoutCalls, len(a.calls)
}

func (a *fakeAPI) recorded() []recordedCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]recordedCall(nil), a.calls...)
}

func (a *fakeAPI) handle(method, path string, h http.HandlerFunc) {
	a.mu.Lock()
	a.routes[method+" "+path] = h
	a.mu.Unlock()
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		a.serveLogin(w, r)
		return
	case "/refresh-token":
		a.serveRefresh(w, r)
		return
	case "/logout":
		a.serveLogout(w, r)
		return
	}

	body, _ := io.ReadAll(r.Body)
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	a.mu.Lock()
	a.calls = append(a.calls, recordedCall{
		Method:        r.Method,
		Path:          r.URL.RequestURI(),
		Authorization: r.Header.Get("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
		Body:          body,
	})
	valid := a.access[bearer]
	route := a.routes[r.Method+" "+r.URL.Path]
	a.mu.Unlock()

	if !valid {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "token expired"})
		return
	}
	if route != nil {
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		route(w, r)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/status/") {
		var code int
		_, _ = fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/status/"), "%d", &code)
		writeJSON(w, code, map[string]any{"status": code})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": r.URL.Path, "body": string(body)})
}

func (a *fakeAPI) serveLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&creds)
	if creds.Password != "correct-password" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": true, "message": "invalid credentials"})
		return
	}
	access, refresh := a.issuePair()
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"user":         map[string]any{"id": "u-1", "name": "Ada", "email": creds.Email, "isAdmin": false},
		"accessToken":  access,
		"refreshToken": refresh,
	}})
}

func (a *fakeAPI) serveRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	a.refreshCalls++
	gate, entered := a.refreshGate, a.refreshEntered
	a.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.refreshMode {
	case refreshReject:
		writeJSON(w, http.StatusOK, map[string]any{"error": true, "message": "refresh token expired"})
		return
	case refreshRejectNested:
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"code": 401}})
		return
	case refreshRejectMalform:
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"accessToken": 7}})
		return
	}

	if !a.refresh[body.RefreshToken] {
		writeJSON(w, http.StatusOK, map[string]any{"error": true, "message": "unknown refresh token"})
		return
	}

	a.seq++
	access := mintToken(a.seq, time.Now().Add(15*time.Minute))
	a.access[access] = true
	data := map[string]any{"accessToken": access}
	if a.refreshMode == refreshRotate {
		delete(a.refresh, body.RefreshToken)
		next := fmt.Sprintf("refresh-%d", a.seq)
		a.refresh[next] = true
		data["refreshToken"] = next
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (a *fakeAPI) serveLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	a.logoutCalls++
	status := a.logoutStatus
	if status < 300 {
		delete(a.refresh, body.RefreshToken)
	}
	a.mu.Unlock()

	w.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type redirectRecorder struct {
	mu      sync.Mutex
	targets []string
}

func (r *redirectRecorder) Redirect(_ context.Context, target string) {
	r.mu.Lock()
	r.targets = append(r.targets, target)
	r.mu.Unlock()
}

func (r *redirectRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.targets...)
}

type testEnv struct {
	api      *fakeAPI
	client   *Client
	store    *session.MemoryStore
	redirect *redirectRecorder
}

func newTestEnv(t testing.TB, configure ...func(*Builder)) *testEnv {
	t.Helper()
	api := newFakeAPI(t)
	store := session.NewMemoryStore(0)
	redirect := &redirectRecorder{}

	b := New().
		WithBaseURL(api.URL()).
		WithStore(store).
		WithRedirector(redirect).
		WithLogger(discardLogger())
	for _, fn := range configure {
		fn(b)
	}
	client, err := b.Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(client.Close)

	return &testEnv{api: api, client: client, store: store, redirect: redirect}
}

func (e *testEnv) seed(t testing.TB, sessionID, access, refresh string) {
	t.Helper()
	err := e.store.Create(context.Background(), &session.Session{
		ID: sessionID,
		User: session.User{
			ID:           "u-1",
			Name:         "Ada",
			Email:        "ada@example.com",
			AccessToken:  access,
			RefreshToken: refresh,
		},
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func discardLogger() *slog.Logger {
	return logctx.Discard()
}
