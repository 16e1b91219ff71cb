package goSession

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client].
//
// Builder instances are intended to be configured during initialization and
// then discarded; a Builder can produce exactly one Client.
type Builder struct {
	config Config

	redis      redis.UniversalClient
	store      session.Store
	httpClient *http.Client
	auth       Backend
	redirector Redirector
	auditSink  AuditSink
	logger     *slog.Logger

	built bool
}

// New returns a Builder initialized with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets Backend.BaseURL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.Backend.BaseURL = baseURL
	return b
}

// WithStore sets the session store. It takes precedence over WithRedis.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithRedis stores sessions in Redis under Session.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient sets the HTTP client used for backend and proxied calls.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithBackend overrides the login, refresh and logout endpoints with a custom
// implementation. Requests sent through [Client.Do] still go to Backend.BaseURL.
func (b *Builder) WithBackend(be Backend) *Builder {
	b.auth = be
	return b
}

// WithRedirector installs the hook invoked at the end of every logout cascade.
func (b *Builder) WithRedirector(r Redirector) *Builder {
	b.redirector = r
	return b
}

// WithAuditSink sets the audit sink. Audit.Enabled must also be true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. The default is slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRefreshDeduplication toggles sharing of in-flight refreshes.
func (b *Builder) WithRefreshDeduplication(enabled bool) *Builder {
	b.config.Refresh.Deduplicate = enabled
	return b
}

// Build validates the configuration and returns a ready Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if cfg.Backend.BaseURL == "" {
		return nil, ErrBackendNotConfigured
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- BACKEND --------
	hc := b.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Request.Timeout}
	}
	api, err := backend.New(cfg.Backend.BaseURL,
		backend.WithHTTPClient(hc),
		backend.WithUserAgent(cfg.Backend.UserAgent),
		backend.WithPaths(backend.Paths{
			Login:   cfg.Backend.LoginPath,
			Refresh: cfg.Backend.RefreshPath,
			Logout:  cfg.Backend.LogoutPath,
		}),
	)
	if err != nil {
		return nil, err
	}
	var auth Backend = api
	if b.auth != nil {
		auth = b.auth
	}

	// -------- SESSION STORE --------
	store := b.store
	if store == nil && b.redis != nil {
		store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.TTL)
	}
	if store == nil {
		store = session.NewMemoryStore(cfg.Session.TTL)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		config:     cfg,
		store:      store,
		api:        api,
		auth:       auth,
		redirector: b.redirector,
		logger:     logger,
		inspector:  token.NewInspector(token.Config{Leeway: cfg.Token.Leeway}),
		metrics:    NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			OnDrop: func(ev audit.Event) {
				logger.Debug("goSession: audit event dropped", "event", ev.EventType, "session_id", ev.SessionID)
			},
		}, b.auditSink),
	}

	c.flows = flows.Deps{
		Login: flows.LoginDeps{
			Backend:      auth,
			SessionStore: store,
			NewID:        session.NewID,
		},
		Refresh: flows.RefreshDeps{
			SessionStore: store,
			Backend:      auth,
			Timeout:      cfg.Refresh.Timeout,
		},
		Logout: flows.LogoutDeps{
			SessionStore:  store,
			Backend:       auth,
			RemoteTimeout: cfg.Logout.RemoteTimeout,
			Warn: func(ctx context.Context, msg string, args ...any) {
				c.log(ctx).Warn(msg, args...)
			},
		},
	}

	b.built = true
	return c, nil
}
