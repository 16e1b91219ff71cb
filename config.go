package goSession

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config holds every tunable of a [Client].
//
// Config values are copied by [Builder.WithConfig]; mutating a Config after
// Build has no effect on the running Client.
type Config struct {
	Backend BackendConfig
	Session SessionConfig
	Token   TokenConfig
	Refresh RefreshConfig
	Request RequestConfig
	Logout  LogoutConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig locates the credential-issuing API.
type BackendConfig struct {
	BaseURL     string
	LoginPath   string
	RefreshPath string
	LogoutPath  string
	UserAgent   string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the session store created by the Builder.
type SessionConfig struct {
	RedisPrefix string
	// TTL bounds how long an idle session record lives. Zero keeps records until logout.
	TTL time.Duration
}

// TokenConfig controls local expiry checks.
type TokenConfig struct {
	// Leeway treats tokens as expired this long before their exp claim.
	Leeway time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig controls the refresh coordinator.
type RefreshConfig struct {
	// Deduplicate shares one in-flight refresh between concurrent callers of
	// the same session.
	Deduplicate bool
	// Timeout bounds the backend refresh call.
	Timeout time.Duration
}

// RequestConfig controls the resilient request executor.
type RequestConfig struct {
	// Timeout bounds each attempt. Zero leaves it to the HTTP client.
	Timeout   time.Duration
	UsersPath string
}

/*
====================================
LOGOUT CONFIG
====================================
*/

// LogoutConfig controls the logout cascade.
type LogoutConfig struct {
	RedirectPath  string
	RemoteTimeout time.Duration
}

// AuditConfig controls asynchronous audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when none is supplied.
// Backend.BaseURL has no default and must be set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			LoginPath:   "/login",
			RefreshPath: "/refresh-token",
			LogoutPath:  "/logout",
			UserAgent:   "goSession/1",
		},
		Session: SessionConfig{
			RedisPrefix: "gs",
			TTL:         7 * 24 * time.Hour,
		},
		Token: TokenConfig{
			Leeway: 0,
		},
		Refresh: RefreshConfig{
			Deduplicate: true,
			Timeout:     10 * time.Second,
		},
		Request: RequestConfig{
			Timeout:   30 * time.Second,
			UsersPath: "/users",
		},
		Logout: LogoutConfig{
			RedirectPath:  "/",
			RemoteTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field of c.
func (c *Config) Validate() error {
	// Backend
	if c.Backend.BaseURL == "" {
		return errors.New("Backend BaseURL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("Backend BaseURL must be an absolute http(s) URL")
	}
	for name, p := range map[string]string{
		"LoginPath":   c.Backend.LoginPath,
		"RefreshPath": c.Backend.RefreshPath,
		"LogoutPath":  c.Backend.LogoutPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("Backend " + name + " must start with /")
		}
	}

	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.TTL < 0 {
		return errors.New("Session TTL must be >= 0")
	}

	// Token
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}

	// Refresh
	if c.Refresh.Timeout < 0 {
		return errors.New("Refresh Timeout must be >= 0")
	}

	// Request
	if c.Request.Timeout < 0 {
		return errors.New("Request Timeout must be >= 0")
	}
	if !strings.HasPrefix(c.Request.UsersPath, "/") {
		return errors.New("Request UsersPath must start with /")
	}

	// Logout
	if !strings.HasPrefix(c.Logout.RedirectPath, "/") {
		return errors.New("Logout RedirectPath must be an absolute path")
	}
	if c.Logout.RemoteTimeout < 0 {
		return errors.New("Logout RemoteTimeout must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
