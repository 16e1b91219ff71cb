package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/internal/audit"
)

// AuditEvent is one session lifecycle record.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Client's dispatcher goroutine.
type AuditSink = audit.Sink

type (
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	SlogSink       = audit.SlogSink
)

var (
	NewChannelSink    = audit.NewChannelSink
	NewJSONWriterSink = audit.NewJSONWriterSink
	NewSlogSink       = audit.NewSlogSink
)

const (
	AuditEventLogin           = audit.EventLogin
	AuditEventLoginFailed     = audit.EventLoginFailed
	AuditEventRefreshed       = audit.EventRefreshed
	AuditEventRefreshRejected = audit.EventRefreshRejected
	AuditEventLogout          = audit.EventLogout
)

func (c *Client) emitAudit(ctx context.Context, eventType, userID, sessionID string, success bool, err error, meta map[string]string) {
	if c.audit == nil {
		return
	}
	ev := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		Success:   success,
		Metadata:  meta,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	c.audit.Emit(ctx, ev)
}
