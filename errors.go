package goSession

import "errors"

var (
	// ErrNoAccessToken is returned before any network call when the session holds no access token.
	ErrNoAccessToken = errors.New("no access token")
	// ErrMissingRefreshToken is returned when a refresh is attempted without a refresh token.
	// The session has been torn down.
	ErrMissingRefreshToken = errors.New("missing refresh token")
	// ErrRefreshRejected is returned when the session could not be refreshed.
	// The session has been torn down and must not be reused.
	ErrRefreshRejected = errors.New("refresh rejected")
	// ErrNetwork wraps transport failures of the request executor. Requests are never retried on it.
	ErrNetwork = errors.New("network error")
	// ErrLoginFailed is returned when the backend refuses the credentials.
	ErrLoginFailed = errors.New("login failed")
	// ErrSessionNotFound is returned when no session exists for the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionUnavailable is returned when the session store cannot be reached.
	ErrSessionUnavailable = errors.New("session store unavailable")
	// ErrInvalidRequest is returned when a Request cannot be turned into an HTTP request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrClientClosed is returned by operations on a closed Client.
	ErrClientClosed = errors.New("client closed")
	// ErrBackendNotConfigured is returned by Build when no backend base URL or client is available.
	ErrBackendNotConfigured = errors.New("backend not configured")
)
