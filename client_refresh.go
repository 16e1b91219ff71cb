package goSession

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
)

// Refresh exchanges the session's refresh token for a new pair and returns
// the new access token.
//
// Every failure runs the logout cascade before the error is returned; the
// session must not be used afterwards. A session that no longer exists only
// triggers the redirect. With
// Refresh.Deduplicate, concurrent calls for the same session share one
// backend call, and each caller still honours its own ctx.
func (c *Client) Refresh(ctx context.Context, sessionID string) (string, error) {
	if c.closed.Load() {
		return "", ErrClientClosed
	}
	return c.refresh(ctx, sessionID, "")
}

func (c *Client) refresh(ctx context.Context, sessionID, rejected string) (string, error) {
	if !c.config.Refresh.Deduplicate {
		return c.runRefresh(ctx, sessionID, rejected)
	}

	ch := c.refreshGroup.DoChan(sessionID, func() (any, error) {
		return c.runRefresh(context.WithoutCancel(ctx), sessionID, rejected)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.Inc(MetricRefreshDeduplicated)
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) runRefresh(ctx context.Context, sessionID, rejected string) (string, error) {
	start := time.Now()
	res := flows.RunRefresh(ctx, flows.RefreshInput{SessionID: sessionID, RejectedToken: rejected}, c.flows.Refresh)
	c.metrics.Observe(MetricRefreshLatency, time.Since(start))

	if res.Failure == flows.RefreshFailureNone {
		if res.Reused {
			c.metrics.Inc(MetricRefreshReused)
			return res.AccessToken, nil
		}
		c.metrics.Inc(MetricRefreshSuccess)
		if res.Rotated {
			c.metrics.Inc(MetricRefreshRotated)
		}
		c.emitAudit(ctx, AuditEventRefreshed, res.UserID, sessionID, true, nil, map[string]string{
			"rotated": strconv.FormatBool(res.Rotated),
		})
		logger := c.log(ctx)
		if exp, err := c.inspector.ExpiresAt(res.AccessToken); err == nil {
			logger.Debug("goSession: session refreshed", "session_id", sessionID, "expires_at", exp)
		} else {
			logger.Debug("goSession: session refreshed", "session_id", sessionID)
		}
		return res.AccessToken, nil
	}

	err := refreshError(res)
	if !res.Failure.Teardown() {
		// Already cleared elsewhere: nothing to revoke, only send the user out.
		c.metrics.Inc(MetricNoAccessToken)
		c.redirect(ctx)
		return "", err
	}

	c.metrics.Inc(MetricRefreshRejected)
	if res.Failure == flows.RefreshFailureTransport {
		c.metrics.Inc(MetricRefreshTransportError)
	}
	meta := map[string]string{"reason": res.Failure.String()}
	if res.Rejection.Code != "" {
		meta["code"] = res.Rejection.Code
	}
	c.emitAudit(ctx, AuditEventRefreshRejected, res.UserID, sessionID, false, err, meta)
	c.log(ctx).Warn("goSession: refresh failed, tearing session down",
		"session_id", sessionID, "reason", res.Failure.String(), "error", err)

	c.Logout(ctx, sessionID)
	return "", err
}

func refreshError(res flows.RefreshResult) error {
	switch res.Failure {
	case flows.RefreshFailureMissingSession:
		return ErrNoAccessToken
	case flows.RefreshFailureMissingRefreshToken:
		return ErrMissingRefreshToken
	case flows.RefreshFailureRejected:
		if res.Rejection.Message != "" {
			return fmt.Errorf("%w: %s: %s", ErrRefreshRejected, res.Rejection.Code, res.Rejection.Message)
		}
		return fmt.Errorf("%w: %s", ErrRefreshRejected, res.Rejection.Code)
	default:
		return fmt.Errorf("%w: %s: %w", ErrRefreshRejected, res.Failure, res.Err)
	}
}
