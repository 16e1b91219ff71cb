// Package internal groups the packages that are private to goSession.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - dashboard: chi router for the reference dashboard binary
//   - flows: pure-function orchestrators for login, refresh, logout and request execution
//   - logctx: request-scoped slog loggers
//   - rate: Redis fixed-window login throttle
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Be imported by any package outside the goSession module.
package internal
