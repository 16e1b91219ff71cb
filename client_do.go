package goSession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/session"
)

const maxErrorBody = 64 << 10

// StatusError is returned by the JSON helpers for non-2xx responses.
// [Client.Do] never returns it; it hands back the response instead.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Do sends req with the session's access token.
//
// Without a usable token it returns ErrNoAccessToken without touching the
// network. A 401 triggers exactly one refresh and exactly one retry with the
// new token; the retry's response is returned whatever its status. Any other
// response is returned untouched and the caller must close its body.
// Transport failures are wrapped with ErrNetwork and never retried.
func (c *Client) Do(ctx context.Context, sessionID string, req Request) (*http.Response, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	enc, err := c.encodeRequest(req)
	if err != nil {
		return nil, err
	}

	c.metrics.Inc(MetricRequest)
	start := time.Now()

	res := flows.RunExecute(ctx, flows.ExecuteDeps{
		CurrentToken: func(ctx context.Context) (string, error) {
			return c.currentAccessToken(ctx, sessionID)
		},
		Build: func(ctx context.Context, accessToken string) (*http.Request, error) {
			return enc.build(ctx, accessToken, c.config.Backend.UserAgent)
		},
		Send: c.api.HTTPClient().Do,
		Refresh: func(ctx context.Context, rejected string) (string, error) {
			c.metrics.Inc(MetricRequestUnauthorized)
			return c.refresh(ctx, sessionID, rejected)
		},
		OnTransition: func(from, to flows.ExecuteState) {
			c.log(ctx).Debug("goSession: request state",
				"session_id", sessionID, "from", from.String(), "to", to.String(), "path", req.Path)
		},
	})
	c.metrics.Observe(MetricRequestLatency, time.Since(start))
	if res.Refreshed && res.Failure != flows.ExecuteFailureBuild {
		c.metrics.Inc(MetricRequestRetried)
	}

	switch res.Failure {
	case flows.ExecuteFailureNone:
		return res.Response, nil
	case flows.ExecuteFailureNoAccessToken:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, res.Err)
		}
		c.metrics.Inc(MetricNoAccessToken)
		return nil, ErrNoAccessToken
	case flows.ExecuteFailureBuild:
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, res.Err)
	case flows.ExecuteFailureNetwork:
		c.metrics.Inc(MetricRequestNetworkError)
		return nil, fmt.Errorf("%w: %w", ErrNetwork, res.Err)
	default:
		return nil, res.Err
	}
}

func (c *Client) currentAccessToken(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	sess, err := c.store.Read(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if !sess.HasAccessToken() {
		return "", nil
	}
	return sess.User.AccessToken, nil
}

// GetJSON issues an authenticated GET and decodes a 2xx body into out.
// Non-2xx responses are returned as *StatusError.
func (c *Client) GetJSON(ctx context.Context, sessionID, path string, out any) error {
	return c.doJSON(ctx, sessionID, Request{Method: http.MethodGet, Path: path}, out)
}

func (c *Client) doJSON(ctx context.Context, sessionID string, req Request, out any) error {
	resp, err := c.Do(ctx, sessionID, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: body}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}
