package goSession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/logctx"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
	"golang.org/x/sync/singleflight"
)

// Backend is the credential-issuing API. [*backend.Client] implements it.
type Backend interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (backend.RefreshResult, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

// Redirector is invoked with the redirect target after every logout cascade.
type Redirector interface {
	Redirect(ctx context.Context, target string)
}

// RedirectFunc adapts a function to [Redirector].
type RedirectFunc func(ctx context.Context, target string)

func (f RedirectFunc) Redirect(ctx context.Context, target string) { f(ctx, target) }

// AuthState is the coarse authentication state of a session.
type AuthState int

const (
	// AuthAnonymous means there is no usable token pair.
	AuthAnonymous AuthState = iota
	// AuthActive means the access token has not expired.
	AuthActive
	// AuthExpired means the access token expired but a refresh token is held.
	AuthExpired
)

func (s AuthState) String() string {
	switch s {
	case AuthActive:
		return "active"
	case AuthExpired:
		return "expired"
	default:
		return "anonymous"
	}
}

// Authenticated reports whether the session can be used, possibly after a refresh.
func (s AuthState) Authenticated() bool {
	return s == AuthActive || s == AuthExpired
}

// Client owns the session token lifecycle: login, refresh, authenticated
// requests and logout.
//
// Client methods are safe for concurrent use after [Builder.Build].
type Client struct {
	config     Config
	store      session.Store
	api        *backend.Client
	auth       Backend
	redirector Redirector
	logger     *slog.Logger
	inspector  *token.Inspector
	metrics    *Metrics
	audit      *audit.Dispatcher
	flows      flows.Deps

	refreshGroup singleflight.Group
	closed       atomic.Bool
}

// Close stops the audit dispatcher after draining it. The session store is
// owned by the caller and left open.
func (c *Client) Close() {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.audit.Close()
}

// Config returns a copy of the active configuration.
func (c *Client) Config() Config {
	return cloneConfig(c.config)
}

// Store returns the session store.
func (c *Client) Store() session.Store {
	return c.store
}

// AuditDropped returns the number of audit events dropped by backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot returns a copy of the in-process counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// IsExpired reports whether raw is expired or cannot be decoded.
func (c *Client) IsExpired(raw string) bool {
	return c.inspector.IsExpired(raw)
}

// Session returns a copy of the stored session.
func (c *Client) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := c.store.Read(ctx, sessionID)
	if err != nil {
		return nil, c.storeError(err)
	}
	return sess, nil
}

// State classifies the session for route guarding. Store failures read as anonymous.
func (c *Client) State(ctx context.Context, sessionID string) AuthState {
	if sessionID == "" {
		return AuthAnonymous
	}
	sess, err := c.store.Read(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			c.log(ctx).Warn("goSession: session read failed", "session_id", sessionID, "error", err)
		}
		return AuthAnonymous
	}
	if !sess.HasAccessToken() {
		return AuthAnonymous
	}
	if c.inspector.IsExpired(sess.User.AccessToken) {
		return AuthExpired
	}
	return AuthActive
}

// Login exchanges credentials and stores a new session.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	res := flows.RunLogin(ctx, backend.Credentials{Email: email, Password: password}, c.flows.Login)
	switch res.Failure {
	case flows.LoginFailureNone:
		c.metrics.Inc(MetricLoginSuccess)
		c.emitAudit(ctx, AuditEventLogin, res.Session.User.ID, res.Session.ID, true, nil, nil)
		c.log(ctx).Info("goSession: login", "session_id", res.Session.ID, "user_id", res.Session.User.ID)
		return res.Session, nil
	case flows.LoginFailureRejected:
		c.metrics.Inc(MetricLoginFailure)
		c.emitAudit(ctx, AuditEventLoginFailed, "", "", false, res.Err, nil)
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, res.Err)
	case flows.LoginFailureStore:
		c.metrics.Inc(MetricLoginFailure)
		return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, res.Err)
	default:
		c.metrics.Inc(MetricLoginFailure)
		c.emitAudit(ctx, AuditEventLoginFailed, "", "", false, res.Err, nil)
		return nil, fmt.Errorf("login: %w", res.Err)
	}
}

func (c *Client) storeError(err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return ErrSessionNotFound
	}
	return fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
}

func (c *Client) log(ctx context.Context) *slog.Logger {
	return logctx.From(ctx, c.logger)
}
