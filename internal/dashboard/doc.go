// Package dashboard is the backend-for-frontend HTTP server of the finance
// dashboard. It owns browser sessions: login and logout set and clear the
// session cookie, /api/* is proxied to the backend through goSession.Client,
// and page routes are guarded by middleware.Guard.
//
// Page bodies are placeholders; rendering happens elsewhere.
package dashboard
