package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrLoginRejected is returned when the backend refuses the credentials.
	ErrLoginRejected = errors.New("login rejected")
	// ErrMalformedResponse is returned when a response body does not have the expected shape.
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrUnexpectedStatus is returned for non-2xx responses that carry no better signal.
	ErrUnexpectedStatus = errors.New("unexpected backend status")
)

const (
	defaultUserAgent = "goSession/1"
	maxResponseBytes = 1 << 20
)

// Paths names the session endpoints relative to the base URL.
type Paths struct {
	Login   string
	Refresh string
	Logout  string
}

// DefaultPaths returns the endpoint layout of the finance API.
func DefaultPaths() Paths {
	return Paths{
		Login:   "/login",
		Refresh: "/refresh-token",
		Logout:  "/logout",
	}
}

// Option customizes a [Client].
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithPaths overrides the endpoint paths. Empty fields keep their defaults.
func WithPaths(p Paths) Option {
	return func(c *Client) {
		if p.Login != "" {
			c.paths.Login = p.Login
		}
		if p.Refresh != "" {
			c.paths.Refresh = p.Refresh
		}
		if p.Logout != "" {
			c.paths.Logout = p.Logout
		}
	}
}

// Client talks to the session endpoints of the backend.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	paths     Paths
}

// New creates a [Client] for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend: base url must be http or https, got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend: base url has no host: %q", baseURL)
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
		userAgent: defaultUserAgent,
		paths:     DefaultPaths(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	if path == "" {
		return c.baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// UserAgent returns the User-Agent sent with every call.
func (c *Client) UserAgent() string {
	return c.userAgent
}

func (c *Client) postJSON(ctx context.Context, path, bearer string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}

// Logout asks the backend to revoke refreshToken. Any non-2xx status is an error.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	status, _, err := c.postJSON(ctx, c.paths.Logout, accessToken, map[string]string{
		"refreshToken": refreshToken,
	})
	if err != nil {
		return fmt.Errorf("backend logout: %w", err)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("%w: logout returned %d", ErrUnexpectedStatus, status)
	}
	return nil
}
