package rate

import "errors"

var (
	// ErrRateLimited reports that the caller exhausted its login budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis failures; callers fail open on it.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
