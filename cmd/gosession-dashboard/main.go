package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/dashboard"
	"github.com/MrEthical07/goSession/internal/logctx"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/middleware"
)

type serverEnv struct {
	Addr            string        `env:"DASHBOARD_ADDR" env-default:":8080"`
	LogLevel        string        `env:"DASHBOARD_LOG_LEVEL" env-default:"info"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	CookieName      string        `env:"DASHBOARD_COOKIE_NAME" env-default:"gs_session"`
	CookieSecure    bool          `env:"DASHBOARD_COOKIE_SECURE" env-default:"true"`
	RequestTimeout  time.Duration `env:"DASHBOARD_REQUEST_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `env:"DASHBOARD_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional
	_ = godotenv.Load()

	var env serverEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		return fmt.Errorf("read server env: %w", err)
	}
	cfg, err := goSession.ConfigFromEnv()
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(env.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := logctx.New(os.Stdout, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := goSession.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithAuditSink(goSession.NewSlogSink(logger))

	var limiter *rate.Limiter
	if env.RedisAddr != "" {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{env.RedisAddr},
			Password: env.RedisPassword,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", env.RedisAddr, err)
		}
		b = b.WithRedis(rdb)
		limiter = rate.New(rdb, rate.DefaultConfig())
		logger.Info("session store: redis", "addr", env.RedisAddr)
	} else {
		logger.Warn("session store: memory; sessions are lost on restart")
	}

	client, err := b.Build()
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}
	defer client.Close()

	cookie := middleware.DefaultCookieConfig()
	cookie.Name = env.CookieName
	cookie.Secure = env.CookieSecure
	cookie.MaxAge = cfg.Session.TTL

	policy := middleware.DefaultPolicy()
	policy.PublicEntry = cfg.Logout.RedirectPath

	srv := &http.Server{
		Addr: env.Addr,
		Handler: dashboard.NewRouter(dashboard.Options{
			Client:  client,
			Logger:  logger,
			Cookie:  cookie,
			Policy:  policy,
			Timeout: env.RequestTimeout,

			LoginLimiter: limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard listening", "addr", env.Addr, "backend", cfg.Backend.BaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
