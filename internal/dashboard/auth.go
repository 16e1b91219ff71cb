package dashboard

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logctx"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ip := clientIP(r)
	if s.limiter != nil {
		if err := s.limiter.CheckLogin(r.Context(), in.Email, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				writeError(w, http.StatusTooManyRequests, "too many login attempts")
				return
			}
			logctx.From(r.Context(), s.logger).Warn("dashboard: login throttle unavailable", "error", err)
		}
	}

	sess, err := s.client.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, goSession.ErrLoginFailed):
			if s.limiter != nil {
				if err := s.limiter.FailLogin(r.Context(), in.Email, ip); err != nil {
					logctx.From(r.Context(), s.logger).Warn("dashboard: login throttle unavailable", "error", err)
				}
			}
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, goSession.ErrSessionUnavailable):
			logctx.From(r.Context(), s.logger).Error("dashboard: session store unavailable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		default:
			logctx.From(r.Context(), s.logger).Warn("dashboard: login failed", "error", err)
			writeError(w, http.StatusBadGateway, "backend unavailable")
		}
		return
	}

	if s.limiter != nil {
		_ = s.limiter.ResetLogin(r.Context(), in.Email)
	}
	middleware.SetSessionCookie(w, s.cookie, sess.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":     sess.User.Redacted(),
		"redirect": s.policy.AuthenticatedHome,
	})
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	redirect := s.client.Config().Logout.RedirectPath
	if sid, ok := goSession.SessionIDFromContext(r.Context()); ok {
		res := s.client.Logout(r.Context(), sid)
		redirect = res.Redirect
	}
	middleware.ClearSessionCookie(w, s.cookie)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"redirect": redirect})
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (s *server) session(w http.ResponseWriter, r *http.Request) {
	sid, ok := goSession.SessionIDFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w, s.policy.PublicEntry)
		return
	}
	sess, err := s.client.Session(r.Context(), sid)
	if err != nil {
		if errors.Is(err, goSession.ErrSessionNotFound) {
			middleware.ClearSessionCookie(w, s.cookie)
			middleware.WriteUnauthorized(w, s.policy.PublicEntry)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  sess.User.Redacted(),
		"state": s.client.State(r.Context(), sid).String(),
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
