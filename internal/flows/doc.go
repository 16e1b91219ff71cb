// Package flows contains the orchestrators behind every Client operation.
//
// Each flow function (RunRefresh, RunExecute, RunLogout) accepts a typed
// dependency struct and reports a failure kind instead of a public error.
// The root package maps kinds to sentinel errors, metrics and audit events,
// which keeps the Client thin and lets each flow be driven by fakes.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency interfaces.
package flows
