// Package goSession keeps a browser session's access token usable across its
// short lifetime and tears the session down safely when it cannot be.
//
// A [Client] holds sessions in a [session.Store] (in memory or Redis), sends
// authenticated requests to the backend with [Client.Do], transparently
// refreshes once on 401, and runs the logout cascade when the refresh token
// is refused.
//
// Client methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Client], [Builder], [Config]
// and value types (Request, LogoutResult, MetricsSnapshot). Flow
// orchestration, audit dispatch and log enrichment live under internal/.
//
// # What this package must NOT do
//
//   - Log or audit access or refresh tokens.
//   - Retry a request more than once, or retry on transport errors.
//   - Import any sub-package that re-imports goSession (no import cycles).
//
// # Ordering contract
//
// Within one [Client.Do] call the retry is never sent before the refreshed
// token pair has been committed to the store. With Refresh.Deduplicate,
// concurrent 401s on one session share a single refresh call.
package goSession
