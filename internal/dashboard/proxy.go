package dashboard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logctx"
	"github.com/MrEthical07/goSession/middleware"
)

// forwardedResponseHeaders are copied from backend responses.
var forwardedResponseHeaders = []string{"Content-Type", "Content-Disposition", "Cache-Control", "Etag", "Last-Modified"}

// proxy forwards /api/<path> to <backend>/<path> with the session's token.
func (s *server) proxy(w http.ResponseWriter, r *http.Request) {
	sid, ok := goSession.SessionIDFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w, s.policy.PublicEntry)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	req := goSession.Request{
		Method: r.Method,
		Path:   "/" + strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api"), "/"),
		Query:  r.URL.Query(),
		Header: http.Header{},
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}
	if len(body) > 0 {
		req.Body = goSession.RawBody(r.Header.Get("Content-Type"), body)
	}

	resp, err := s.client.Do(r.Context(), sid, req)
	if err != nil {
		s.proxyError(w, r, err)
		return
	}
	defer resp.Body.Close()

	for _, h := range forwardedResponseHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func (s *server) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logctx.From(r.Context(), s.logger)
	switch {
	case errors.Is(err, goSession.ErrNoAccessToken),
		errors.Is(err, goSession.ErrRefreshRejected),
		errors.Is(err, goSession.ErrMissingRefreshToken):
		middleware.ClearSessionCookie(w, s.cookie)
		middleware.WriteUnauthorized(w, s.client.Config().Logout.RedirectPath)
	case errors.Is(err, goSession.ErrNetwork):
		logger.Warn("dashboard: backend unreachable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "backend unavailable")
	case errors.Is(err, goSession.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "backend timeout")
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		logger.Error("dashboard: proxy failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal")
	}
}
