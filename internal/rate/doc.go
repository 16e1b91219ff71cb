// Package rate throttles dashboard login attempts with Redis counters.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - <prefix>:rl:login:u:  login failures per email
//   - <prefix>:rl:login:ip: login failures per client IP
//
// # What this package must NOT do
//
//   - Throttle refreshes; refresh volume is bounded by deduplication.
//   - Be imported outside the goSession module.
package rate
