package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef maps a goSession counter to its exported name.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef maps a goSession latency histogram to its exported name.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// AuditDroppedName is the exported name of the audit backpressure counter.
const (
	AuditDroppedName = "gosession_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricRequest, Name: "gosession_request_total", Help: "Requests handed to the executor."},
	{ID: goSession.MetricRequestUnauthorized, Name: "gosession_request_unauthorized_total", Help: "First attempts answered with 401."},
	{ID: goSession.MetricRequestRetried, Name: "gosession_request_retried_total", Help: "Requests retried after a successful refresh."},
	{ID: goSession.MetricRequestNetworkError, Name: "gosession_request_network_error_total", Help: "Requests that failed at the transport level."},
	{ID: goSession.MetricNoAccessToken, Name: "gosession_no_access_token_total", Help: "Requests refused before any network call."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Refreshes that committed a new token pair."},
	{ID: goSession.MetricRefreshRotated, Name: "gosession_refresh_rotated_total", Help: "Successful refreshes that rotated the refresh token."},
	{ID: goSession.MetricRefreshRejected, Name: "gosession_refresh_rejected_total", Help: "Refreshes that ended in session teardown."},
	{ID: goSession.MetricRefreshTransportError, Name: "gosession_refresh_transport_error_total", Help: "Refreshes that could not reach the backend."},
	{ID: goSession.MetricRefreshDeduplicated, Name: "gosession_refresh_deduplicated_total", Help: "Callers that joined an in-flight refresh."},
	{ID: goSession.MetricRefreshReused, Name: "gosession_refresh_reused_total", Help: "Refreshes skipped because a newer token was already stored."},
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful logins."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed logins."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logout cascades."},
	{ID: goSession.MetricRemoteLogoutFailure, Name: "gosession_remote_logout_failure_total", Help: "Remote revocations that failed and were swallowed."},
	{ID: goSession.MetricLocalTeardownFailure, Name: "gosession_local_teardown_failure_total", Help: "Local session clears that failed."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRequestLatency, Name: "gosession_request_latency_seconds", Help: "Executor latency including refresh and retry."},
	{ID: goSession.MetricRefreshLatency, Name: "gosession_refresh_latency_seconds", Help: "Refresh flow latency."},
}

// HistogramBounds are the bucket upper bounds in seconds, +Inf last.
var HistogramBounds = []string{
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"+Inf",
}

// HistogramBoundValues mirrors HistogramBounds without the +Inf bucket.
var HistogramBoundValues = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// HistogramBoundSuffix is HistogramBounds in a form usable inside metric names.
var HistogramBoundSuffix = []string{
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
