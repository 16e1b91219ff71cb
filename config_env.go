package goSession

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig is the environment surface of [Config].
type envConfig struct {
	BaseURL     string `env:"NEXT_PUBLIC_API_URL" env-required:"true"`
	LoginPath   string `env:"GOSESSION_LOGIN_PATH" env-default:"/login"`
	RefreshPath string `env:"GOSESSION_REFRESH_PATH" env-default:"/refresh-token"`
	LogoutPath  string `env:"GOSESSION_LOGOUT_PATH" env-default:"/logout"`
	UserAgent   string `env:"GOSESSION_USER_AGENT" env-default:"goSession/1"`

	RedisPrefix string        `env:"GOSESSION_REDIS_PREFIX" env-default:"gs"`
	SessionTTL  time.Duration `env:"GOSESSION_SESSION_TTL" env-default:"168h"`
	TokenLeeway time.Duration `env:"GOSESSION_TOKEN_LEEWAY" env-default:"0s"`

	RefreshDeduplicate bool          `env:"GOSESSION_REFRESH_DEDUPLICATE" env-default:"true"`
	RefreshTimeout     time.Duration `env:"GOSESSION_REFRESH_TIMEOUT" env-default:"10s"`
	RequestTimeout     time.Duration `env:"GOSESSION_REQUEST_TIMEOUT" env-default:"30s"`
	UsersPath          string        `env:"GOSESSION_USERS_PATH" env-default:"/users"`

	LogoutRedirect      string        `env:"GOSESSION_LOGOUT_REDIRECT" env-default:"/"`
	LogoutRemoteTimeout time.Duration `env:"GOSESSION_LOGOUT_TIMEOUT" env-default:"5s"`

	AuditEnabled   bool `env:"GOSESSION_AUDIT_ENABLED" env-default:"false"`
	AuditBuffer    int  `env:"GOSESSION_AUDIT_BUFFER" env-default:"1024"`
	MetricsEnabled bool `env:"GOSESSION_METRICS_ENABLED" env-default:"true"`
}

// ConfigFromEnv builds a validated [Config] from environment variables.
// NEXT_PUBLIC_API_URL is required; everything else has a default.
func ConfigFromEnv() (Config, error) {
	var env envConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		return Config{}, fmt.Errorf("read env config: %w", err)
	}

	cfg := defaultConfig()
	cfg.Backend = BackendConfig{
		BaseURL:     env.BaseURL,
		LoginPath:   env.LoginPath,
		RefreshPath: env.RefreshPath,
		LogoutPath:  env.LogoutPath,
		UserAgent:   env.UserAgent,
	}
	cfg.Session.RedisPrefix = env.RedisPrefix
	cfg.Session.TTL = env.SessionTTL
	cfg.Token.Leeway = env.TokenLeeway
	cfg.Refresh.Deduplicate = env.RefreshDeduplicate
	cfg.Refresh.Timeout = env.RefreshTimeout
	cfg.Request.Timeout = env.RequestTimeout
	cfg.Request.UsersPath = env.UsersPath
	cfg.Logout.RedirectPath = env.LogoutRedirect
	cfg.Logout.RemoteTimeout = env.LogoutRemoteTimeout
	cfg.Audit.Enabled = env.AuditEnabled
	cfg.Audit.BufferSize = env.AuditBuffer
	cfg.Metrics.Enabled = env.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = env.MetricsEnabled

	cfg = cloneConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
