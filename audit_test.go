package goSession

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	env := newTestEnv(t, func(b *Builder) {
		b.config.Audit.Enabled = false
		b.WithAuditSink(sink)
	})

	_, _ = env.client.Login(context.Background(), "ada@example.com", "wrong-password")
	time.Sleep(30 * time.Millisecond)

	if got := sink.count.Load(); got != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", got)
	}
}

func TestAuditLoginEvents(t *testing.T) {
	sink := NewChannelSink(8)
	env := newTestEnv(t, func(b *Builder) {
		b.config.Audit.Enabled = true
		b.WithAuditSink(sink)
	})

	_, _ = env.client.Login(context.Background(), "ada@example.com", "wrong-password")
	sess, err := env.client.Login(context.Background(), "ada@example.com", "correct-password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	select {
	case ev := <-sink.Events():
		if ev.EventType != AuditEventLoginFailed || ev.Success {
			t.Fatalf("unexpected first event %+v", ev)
		}
		if strings.Contains(ev.Error, "wrong-password") {
			t.Fatal("password leaked into audit error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("missing login_failed event")
	}

	select {
	case ev := <-sink.Events():
		if ev.EventType != AuditEventLogin || !ev.Success {
			t.Fatalf("unexpected second event %+v", ev)
		}
		if ev.SessionID != sess.ID || ev.UserID != "u-1" {
			t.Fatalf("unexpected ids session=%q user=%q", ev.SessionID, ev.UserID)
		}
		if ev.Timestamp.IsZero() {
			t.Fatal("expected timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("missing login event")
	}
}
