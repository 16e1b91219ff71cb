package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one in-process counter or histogram.
type MetricID uint16

const (
	// MetricRequest counts requests handed to the executor.
	MetricRequest MetricID = iota
	// MetricRequestUnauthorized counts first attempts answered with 401.
	MetricRequestUnauthorized
	// MetricRequestRetried counts retries sent after a successful refresh.
	MetricRequestRetried
	// MetricRequestNetworkError counts transport failures.
	MetricRequestNetworkError
	// MetricNoAccessToken counts requests refused before any network call.
	MetricNoAccessToken
	// MetricRefreshSuccess counts refreshes that committed a new token pair.
	MetricRefreshSuccess
	// MetricRefreshRotated counts successful refreshes that also rotated the refresh token.
	MetricRefreshRotated
	// MetricRefreshRejected counts refreshes that ended in teardown.
	MetricRefreshRejected
	// MetricRefreshTransportError counts refreshes that failed to reach the backend.
	MetricRefreshTransportError
	// MetricRefreshDeduplicated counts callers that joined an in-flight refresh.
	MetricRefreshDeduplicated
	// MetricRefreshReused counts refreshes skipped because the session already held a newer token.
	MetricRefreshReused
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts failed logins.
	MetricLoginFailure
	// MetricLogout counts logout cascades.
	MetricLogout
	// MetricRemoteLogoutFailure counts remote revocations that failed and were swallowed.
	MetricRemoteLogoutFailure
	// MetricLocalTeardownFailure counts local session clears that failed.
	MetricLocalTeardownFailure
	// MetricRequestLatency is the end-to-end executor latency histogram.
	MetricRequestLatency
	// MetricRefreshLatency is the backend refresh latency histogram.
	MetricRefreshLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricRequest:               "request",
	MetricRequestUnauthorized:   "request_unauthorized",
	MetricRequestRetried:        "request_retried",
	MetricRequestNetworkError:   "request_network_error",
	MetricNoAccessToken:         "no_access_token",
	MetricRefreshSuccess:        "refresh_success",
	MetricRefreshRotated:        "refresh_rotated",
	MetricRefreshRejected:       "refresh_rejected",
	MetricRefreshTransportError: "refresh_transport_error",
	MetricRefreshDeduplicated:   "refresh_deduplicated",
	MetricRefreshReused:         "refresh_reused",
	MetricLoginSuccess:          "login_success",
	MetricLoginFailure:          "login_failure",
	MetricLogout:                "logout",
	MetricRemoteLogoutFailure:   "remote_logout_failure",
	MetricLocalTeardownFailure:  "local_teardown_failure",
	MetricRequestLatency:        "request_latency",
	MetricRefreshLatency:        "refresh_latency",
}

func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

func isHistogram(id MetricID) bool {
	return id == MetricRequestLatency || id == MetricRefreshLatency
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a set of lock-free counters and fixed-bucket latency histograms.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of [Metrics].
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics set.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in a latency histogram. Non-histogram ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id >= metricIDCount || !isHistogram(id) {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, every histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isHistogram(id) {
			if !m.enableLatency {
				continue
			}
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	return s
}

// bucket upper bounds: 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, +Inf
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 10:
		return 0
	case ms <= 25:
		return 1
	case ms <= 50:
		return 2
	case ms <= 100:
		return 3
	case ms <= 250:
		return 4
	case ms <= 500:
		return 5
	case ms <= 1000:
		return 6
	default:
		return 7
	}
}
