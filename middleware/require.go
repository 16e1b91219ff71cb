package middleware

import (
	"encoding/json"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// RequireSession rejects requests without a signed-in session with 401 and a
// JSON body naming where the browser should go.
func RequireSession(states StateReader, redirect string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, ok := goSession.SessionIDFromContext(r.Context())
			if !ok || states == nil || !states.State(r.Context(), sessionID).Authenticated() {
				WriteUnauthorized(w, redirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteUnauthorized writes the 401 JSON answer used by RequireSession.
func WriteUnauthorized(w http.ResponseWriter, redirect string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":    "unauthorized",
		"redirect": redirect,
	})
}
