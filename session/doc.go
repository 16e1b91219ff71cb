// Package session owns the Session record that pairs a signed-in user with the
// current access/refresh token pair, and the stores that persist it.
//
// # Atomicity
//
// A [Store] replaces token pairs atomically: [Patch] values that carry tokens
// must carry both of them, and stores never expose a record where the access
// token was updated without the refresh token. Clearing a session is
// idempotent.
//
// # Stores
//
// [MemoryStore] keeps sessions in process memory and suits single-instance
// deployments and tests. [RedisStore] persists sessions in Redis using a
// versioned encoding and optimistic WATCH/MULTI transactions.
//
// # What this package must NOT do
//
//   - Import goSession, backend, or token (no upward imports).
//   - Talk to the remote API or decide when tokens are refreshed.
//   - Log token values.
package session
