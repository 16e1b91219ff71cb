package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logctx"
	"github.com/MrEthical07/goSession/session"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 1000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "requests to send")
		expireEvery = flag.Int("expire-every", 20, "access tokens expire after this many uses")
		dedup       = flag.Bool("dedup", true, "share in-flight refreshes between concurrent requests")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gs-load", "session key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 || *expireEvery <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, ops and expire-every must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	be := newRotatingBackend(*expireEvery)
	srv := httptest.NewServer(be)
	defer srv.Close()

	cfg := goSession.DefaultConfig()
	cfg.Backend.BaseURL = srv.URL
	cfg.Session.RedisPrefix = *prefix
	cfg.Refresh.Deduplicate = *dedup

	client, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(logctx.Discard()).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ids := make([]string, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := range ids {
		access, refresh := be.issue()
		ids[i] = fmt.Sprintf("sid-%d", i)
		err := client.Store().Create(ctx, &session.Session{
			ID:   ids[i],
			User: session.User{ID: fmt.Sprintf("u-%d", i), AccessToken: access, RefreshToken: refresh},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	stats := runRequestPhase(ctx, client, ids, *ops, *concurrency)

	snap := client.MetricsSnapshot()
	fmt.Println("---- results ----")
	printStats("request", stats)
	fmt.Printf("dedup=%t backend_refreshes=%d backend_rejections=%d\n", *dedup, be.refreshes.Load(), be.rejections.Load())
	fmt.Printf("unauthorized=%d retried=%d deduplicated=%d reused=%d torn_down=%d\n",
		snap.Counters[goSession.MetricRequestUnauthorized],
		snap.Counters[goSession.MetricRequestRetried],
		snap.Counters[goSession.MetricRefreshDeduplicated],
		snap.Counters[goSession.MetricRefreshReused],
		snap.Counters[goSession.MetricRefreshRejected],
	)
}

func runRequestPhase(ctx context.Context, client *goSession.Client, ids []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				sid := ids[r.Intn(len(ids))]
				t0 := time.Now()
				resp, err := client.Do(ctx, sid, goSession.Request{Path: "/accounts"})
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				} else {
					_, _ = io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
					if resp.StatusCode != http.StatusOK {
						atomic.AddInt64(&failures, 1)
					}
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// rotatingBackend expires access tokens after a fixed number of uses and
// revokes a refresh token the moment it is exchanged.
type rotatingBackend struct {
	expireEvery int

	mu      sync.Mutex
	seq     int
	access  map[string]int
	refresh map[string]bool

	refreshes  atomic.Int64
	rejections atomic.Int64
}

func newRotatingBackend(expireEvery int) *rotatingBackend {
	return &rotatingBackend{
		expireEvery: expireEvery,
		access:      map[string]int{},
		refresh:     map[string]bool{},
	}
}

func (b *rotatingBackend) issue() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked()
}

func (b *rotatingBackend) issueLocked() (string, string) {
	b.seq++
	access := fmt.Sprintf("access-%d", b.seq)
	refresh := fmt.Sprintf("refresh-%d", b.seq)
	b.access[access] = b.expireEvery
	b.refresh[refresh] = true
	return access, refresh
}

func (b *rotatingBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/refresh-token":
		b.serveRefresh(w, r)
	case "/logout":
		w.WriteHeader(http.StatusOK)
	default:
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		left, ok := b.access[token]
		if ok {
			if left <= 1 {
				delete(b.access, token)
			} else {
				b.access[token] = left - 1
			}
		}
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{"data": []any{}})
	}
}

func (b *rotatingBackend) serveRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshes.Add(1)
	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.refresh[in.RefreshToken] {
		b.rejections.Add(1)
		writeJSON(w, map[string]any{"error": true, "message": "refresh token revoked"})
		return
	}
	delete(b.refresh, in.RefreshToken)
	access, refresh := b.issueLocked()
	writeJSON(w, map[string]any{"data": map[string]any{"accessToken": access, "refreshToken": refresh}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
