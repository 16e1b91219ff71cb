package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/rate"
	promexport "github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
)

// Options configures the dashboard router.
type Options struct {
	Client  *goSession.Client
	Logger  *slog.Logger
	Cookie  middleware.CookieConfig
	Policy  middleware.Policy
	Timeout time.Duration
	// MaxBodyBytes bounds proxied request bodies.
	MaxBodyBytes int64
	// LoginLimiter throttles failed logins. Nil disables throttling.
	LoginLimiter *rate.Limiter
}

type server struct {
	client  *goSession.Client
	logger  *slog.Logger
	cookie  middleware.CookieConfig
	policy  middleware.Policy
	maxBody int64
	limiter *rate.Limiter
}

type pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// NewRouter assembles the dashboard handler.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Cookie.Name == "" {
		opts.Cookie = middleware.DefaultCookieConfig()
	}
	if opts.Policy.PublicEntry == "" && len(opts.Policy.Protected) == 0 {
		opts.Policy = middleware.DefaultPolicy()
		opts.Policy.PublicEntry = ""
	}
	if opts.Policy.PublicEntry == "" {
		opts.Policy.PublicEntry = opts.Client.Config().Logout.RedirectPath
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}

	s := &server{
		client:  opts.Client,
		logger:  opts.Logger,
		cookie:  opts.Cookie,
		policy:  opts.Policy,
		maxBody: opts.MaxBodyBytes,
		limiter: opts.LoginLimiter,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		promexport.NewPrometheusExporter(opts.Client),
	)
	red := newHTTPMetrics(reg)

	r := chi.NewRouter()
	// outer to inner
	r.Use(
		recoverer(),
		requestID(),
		logging(opts.Logger),
		red.middleware,
		middleware.SessionCookie(opts.Cookie),
	)
	if opts.Timeout > 0 {
		r.Use(timeout(opts.Timeout))
	}

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Get("/session", s.session)
	})

	r.HandleFunc("/api/*", s.proxy)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard(opts.Client, opts.Policy))
		for _, p := range opts.Policy.PublicOnly {
			r.Get(p, s.page)
		}
		for _, p := range opts.Policy.Protected {
			r.Get(p, s.page)
			r.Get(p+"/*", s.page)
		}
	})

	return r
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if p, ok := s.client.Store().(pinger); ok {
		latency, err := p.Ping(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "store": err.Error()})
			return
		}
		status["store_latency_ms"] = latency.Milliseconds()
	}
	writeJSON(w, http.StatusOK, status)
}
