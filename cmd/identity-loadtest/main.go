package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goIdentity "github.com/MrEthical07/goIdentity"
	otelexport "github.com/MrEthical07/goIdentity/metrics/export/otel"
	"github.com/MrEthical07/goIdentity/metrics/export/prometheus"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/store/sqlite"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func main() {
	var (
		users       = flag.Int("users", 100, "number of users to seed")
		sessions    = flag.Int("sessions", 10000, "number of sessions to issue")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "verifications in the verify phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		dbPath      = flag.String("db", ":memory:", "sqlite database for users")
		configPath  = flag.String("config", "", "optional YAML config")
		showMetrics = flag.Bool("metrics", false, "print engine metrics in Prometheus format")
		showOTel    = flag.Bool("otel", false, "collect engine metrics through an OpenTelemetry reader and print them")
		verbose     = flag.Bool("v", false, "log engine debug output")
	)
	flag.Parse()

	if *users <= 0 || *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	cfg := goIdentity.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = goIdentity.LoadConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	log := zap.NewNop()
	if *verbose {
		log = zap.Must(zap.NewDevelopment())
	}

	client, cleanup, err := redisClient(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	db, err := sqlite.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqlite: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	engine, err := goIdentity.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(db.Users()).
		WithLogger(log).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d users and %d sessions...\n", *users, *sessions)
	startSeed := time.Now()
	seeded, err := seed(ctx, engine, db.Users(), *users, *sessions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	verifyStats := runVerifyPhase(ctx, engine, seeded, *ops, *concurrency)

	revoked := seeded[:len(seeded)/2]
	revokeStats := runRevokePhase(ctx, engine, revoked, *concurrency)

	// every token of a revoked session must now fail
	rejectStats := runVerifyPhase(ctx, engine, revoked, len(revoked), *concurrency)

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("revoke", revokeStats)
	printStats("verify-revoked", rejectStats)

	if *showMetrics {
		fmt.Println("---- metrics ----")
		fmt.Print(prometheus.NewExporter(engine).Render())
	}
	if *showOTel {
		fmt.Println("---- otel ----")
		if err := printOTel(ctx, engine); err != nil {
			fmt.Fprintf(os.Stderr, "otel: %v\n", err)
		}
	}

	if rejectStats.failures != int64(rejectStats.ops) {
		fmt.Fprintf(os.Stderr, "%d revoked tokens still verified\n", int64(rejectStats.ops)-rejectStats.failures)
		os.Exit(1)
	}
}

func printOTel(ctx context.Context, engine *goIdentity.Engine) error {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(ctx)

	exporter, err := otelexport.NewExporter(provider.Meter("goidentity-loadtest"), engine)
	if err != nil {
		return err
	}
	defer exporter.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return err
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					fmt.Printf("%-50s %d\n", m.Name, dp.Value)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					fmt.Printf("%-50s %d\n", m.Name, dp.Value)
				}
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					fmt.Printf("%-50s %.4f\n", m.Name, dp.Value)
				}
			}
		}
	}
	return nil
}

func redisClient(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})
	fmt.Printf("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }, nil
}

func seed(ctx context.Context, engine *goIdentity.Engine, store *sqlite.UserStore, users, sessions int) ([]*session.Session, error) {
	accounts := make([]*goIdentity.User, users)
	for i := range accounts {
		user := &goIdentity.User{
			ID:       uuid.NewString(),
			Username: fmt.Sprintf("user-%d", i),
			Role:     goIdentity.RoleUser,
		}
		if err := store.Create(ctx, user); err != nil {
			return nil, err
		}
		accounts[i] = user
	}

	out := make([]*session.Session, sessions)
	for i := range out {
		sess, err := engine.Issue(ctx, accounts[i%users])
		if err != nil {
			return nil, err
		}
		out[i] = sess
	}
	return out, nil
}

func runVerifyPhase(ctx context.Context, engine *goIdentity.Engine, sessions []*session.Session, ops, concurrency int) phaseStats {
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
				// a full pass over small sets, random picks otherwise
				idx := i
				if ops != len(sessions) {
					idx = r.Intn(len(sessions))
				}
				t0 := time.Now()
				_, err := engine.Verify(ctx, sessions[idx].Token, goIdentity.RolePublic)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
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

func runRevokePhase(ctx context.Context, engine *goIdentity.Engine, sessions []*session.Session, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, len(sessions))
		mu        sync.Mutex
		errOnce   sync.Once
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(sessions) {
					return
				}
				t0 := time.Now()
				err := engine.Revoke(ctx, sessions[i])
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					if errors.Is(err, goIdentity.ErrPersistence) {
						errOnce.Do(func() { fmt.Fprintf(os.Stderr, "revoke: %v\n", err) })
					}
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
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
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
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
