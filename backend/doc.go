// Package backend is the HTTP client for the credential-issuing API.
//
// It covers the three session endpoints (login, refresh, logout) and
// normalizes the loosely-typed refresh response into a [RefreshResult]
// before any session logic looks at it.
package backend
