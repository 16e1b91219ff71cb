package middleware

import (
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// CookieConfig describes the browser session cookie.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// DefaultCookieConfig returns a host-only, HttpOnly, Lax cookie named "gs_session".
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:     "gs_session",
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   7 * 24 * time.Hour,
	}
}

func (c CookieConfig) withDefaults() CookieConfig {
	def := DefaultCookieConfig()
	if c.Name == "" {
		c.Name = def.Name
	}
	if c.Path == "" {
		c.Path = def.Path
	}
	if c.SameSite == 0 {
		c.SameSite = def.SameSite
	}
	return c
}

// SessionCookie copies the session id from the cookie into the request
// context. Requests without the cookie pass through unchanged.
func SessionCookie(cfg CookieConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cfg.Name)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := goSession.WithSessionID(r.Context(), c.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie writes the session id cookie.
func SetSessionCookie(w http.ResponseWriter, cfg CookieConfig, sessionID string) {
	cfg = cfg.withDefaults()
	c := &http.Cookie{
		Name:     cfg.Name,
		Value:    sessionID,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: cfg.SameSite,
	}
	if cfg.MaxAge > 0 {
		c.MaxAge = int(cfg.MaxAge / time.Second)
		c.Expires = time.Now().Add(cfg.MaxAge)
	}
	http.SetCookie(w, c)
}

// ClearSessionCookie expires the session id cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	cfg = cfg.withDefaults()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: cfg.SameSite,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
