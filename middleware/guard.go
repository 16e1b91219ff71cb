package middleware

import (
	"context"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

// StateReader reports the authentication state of a session.
// *goSession.Client satisfies it.
type StateReader interface {
	State(ctx context.Context, sessionID string) goSession.AuthState
}

// Policy decides which pages need a session.
//
// Paths match exactly or as a prefix followed by "/"; "/" matches only the
// root. Paths in neither list are served to everyone.
type Policy struct {
	PublicOnly        []string
	Protected         []string
	Exclude           []string
	AuthenticatedHome string
	PublicEntry       string
}

// DefaultPolicy returns the finance dashboard routing policy. PublicEntry
// matches the client's default logout redirect so both exits land on the
// same page.
func DefaultPolicy() Policy {
	return Policy{
		PublicOnly:        []string{"/", "/login", "/register"},
		Protected:         []string{"/dashboard", "/accounts", "/transactions", "/goals", "/transfers", "/profile"},
		Exclude:           []string{"/api/", "/static/", "/favicon.ico"},
		AuthenticatedHome: "/dashboard",
		PublicEntry:       "/",
	}
}

type stateContextKey struct{}

// StateFromContext returns the state computed by Guard for this request.
func StateFromContext(ctx context.Context) (goSession.AuthState, bool) {
	st, ok := ctx.Value(stateContextKey{}).(goSession.AuthState)
	return st, ok
}

// Guard redirects signed-in users away from public-only pages and anonymous
// users away from protected pages. An expired access token still counts as
// signed in; the next backend call refreshes or tears it down.
//
// Guard expects the session id in the context, see [SessionCookie].
func Guard(states StateReader, policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if hasPrefix(path, policy.Exclude) {
				next.ServeHTTP(w, r)
				return
			}

			sessionID, _ := goSession.SessionIDFromContext(r.Context())
			state := goSession.AuthAnonymous
			if states != nil {
				state = states.State(r.Context(), sessionID)
			}

			switch {
			case state.Authenticated() && matchAny(path, policy.PublicOnly) && policy.AuthenticatedHome != "":
				http.Redirect(w, r, policy.AuthenticatedHome, http.StatusTemporaryRedirect)
				return
			case !state.Authenticated() && matchAny(path, policy.Protected) && policy.PublicEntry != "":
				http.Redirect(w, r, policy.PublicEntry, http.StatusTemporaryRedirect)
				return
			}

			ctx := context.WithValue(r.Context(), stateContextKey{}, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func matchAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if matchPath(path, p) {
			return true
		}
	}
	return false
}

func matchPath(path, pattern string) bool {
	if pattern == "/" {
		return path == "/"
	}
	pattern = strings.TrimSuffix(pattern, "/")
	return path == pattern || strings.HasPrefix(path, pattern+"/")
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
