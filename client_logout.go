package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/internal/flows"
)

// LogoutResult reports the outcome of a logout cascade. Errors are
// informational; the local session is gone whenever LocalErr is nil.
type LogoutResult struct {
	Redirect        string
	RemoteAttempted bool
	RemoteErr       error
	LocalErr        error
}

// Logout revokes the refresh token on the backend when possible, then clears
// the local session unconditionally and invokes the Redirector with
// Logout.RedirectPath. It never fails and is safe to call repeatedly.
func (c *Client) Logout(ctx context.Context, sessionID string) LogoutResult {
	res := flows.RunLogout(ctx, sessionID, c.flows.Logout)

	c.metrics.Inc(MetricLogout)
	if res.RemoteErr != nil {
		c.metrics.Inc(MetricRemoteLogoutFailure)
	}
	if res.LocalErr != nil {
		c.metrics.Inc(MetricLocalTeardownFailure)
	}

	meta := map[string]string{}
	if res.RemoteErr != nil {
		meta["remote_error"] = res.RemoteErr.Error()
	}
	c.emitAudit(ctx, AuditEventLogout, res.UserID, sessionID, res.LocalErr == nil, res.LocalErr, meta)

	out := LogoutResult{
		Redirect:        c.config.Logout.RedirectPath,
		RemoteAttempted: res.RemoteAttempted,
		RemoteErr:       res.RemoteErr,
		LocalErr:        res.LocalErr,
	}
	c.redirect(ctx)
	return out
}

func (c *Client) redirect(ctx context.Context) {
	if c.redirector != nil {
		c.redirector.Redirect(ctx, c.config.Logout.RedirectPath)
	}
}
