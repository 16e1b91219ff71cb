// Package middleware exposes net/http adapters that bind browser requests to
// goSession sessions.
//
// # Components
//
//   - [SessionCookie] reads the session cookie and attaches the session id to
//     the request context with goSession.WithSessionID.
//   - [Guard] redirects page requests by authentication state: signed-in users
//     away from public-only pages, anonymous users away from protected pages.
//   - [RequireSession] is the API variant of Guard; it answers 401 JSON
//     instead of redirecting.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Client calls. Authentication
// state comes from goSession.Client.State; tokens never reach this layer.
//
// # What this package must NOT do
//
//   - Refresh tokens or call the backend (Client.Do handles that).
//   - Render pages or decide which pages exist beyond the configured Policy.
package middleware
