package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goGrant "github.com/MrEthical07/goGrant"
	"github.com/MrEthical07/goGrant/oracle"
	"github.com/MrEthical07/goGrant/permission"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		keys        = flag.Int("keys", 64, "number of distinct unrestricted keys to mint")
		concurrency = flag.Int("concurrency", 32, "number of concurrent workers")
		ops         = flag.Int("ops", 2000, "operations per phase (narrow + derive)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		throttle    = flag.Bool("throttle", false, "enable the redis request throttle")
		memory      = flag.Uint("kdf-memory", 8*1024, "argon2id memory in KB (low default keeps the run fast)")
	)
	flag.Parse()

	if *keys <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "keys, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  *redis.Client
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := goGrant.DefaultConfig()
	cfg.Oracle.Memory = uint32(*memory)
	cfg.Oracle.Time = 1
	cfg.Oracle.Parallelism = 1
	cfg.Oracle.KeyLength = 16
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	if *throttle {
		cfg.Security.EnableRequestThrottle = true
		cfg.Security.MaxRequestsPerWindow = *ops
	}

	handle, err := oracle.New(oracle.Config{
		Memory:      cfg.Oracle.Memory,
		Time:        cfg.Oracle.Time,
		Parallelism: cfg.Oracle.Parallelism,
		KeyLength:   cfg.Oracle.KeyLength,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "oracle init: %v\n", err)
		os.Exit(1)
	}

	engine, err := goGrant.New().
		WithConfig(cfg).
		WithOracle(handle).
		WithRedis(client).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("minting %d keys...\n", *keys)
	apiKeys := make([]string, *keys)
	rootSecret := []byte("loadtest-root-secret-0123456789ab")
	for i := range apiKeys {
		key, err := oracle.MintUnrestricted(rootSecret)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mint failed: %v\n", err)
			os.Exit(1)
		}
		if apiKeys[i], err = key.Serialize(); err != nil {
			fmt.Fprintf(os.Stderr, "serialize failed: %v\n", err)
			os.Exit(1)
		}
	}

	narrowStats, restricted := runNarrowPhase(ctx, engine, apiKeys, *ops, *concurrency)
	deriveStats := runDerivePhase(ctx, engine, restricted, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("narrow", narrowStats)
	printStats("derive", deriveStats)
}

func runNarrowPhase(ctx context.Context, engine *goGrant.Engine, apiKeys []string, ops, concurrency int) (phaseStats, []string) {
	var (
		wg         sync.WaitGroup
		cursor     int64
		failures   int64
		latencies  = make([]time.Duration, 0, ops)
		restricted = make([]string, 0, ops)
		mu         sync.Mutex
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
				perm, err := permission.Build(
					permission.Flags{AllowDownload: true, AllowList: true},
					[]string{fmt.Sprintf("bucket-%d", r.Intn(8))},
					nil, nil,
				)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}

				t0 := time.Now()
				key, err := engine.Narrow(ctx, apiKeys[r.Intn(len(apiKeys))], perm)
				d := time.Since(t0)

				mu.Lock()
				latencies = append(latencies, d)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				} else {
					restricted = append(restricted, key)
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)

	if len(restricted) == 0 {
		fmt.Fprintln(os.Stderr, "narrow phase produced no keys; cannot run derive phase")
		os.Exit(1)
	}
	return computeStats(total, latencies, failures), restricted
}

func runDerivePhase(ctx context.Context, engine *goGrant.Engine, restricted []string, ops, concurrency int) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				key := restricted[r.Intn(len(restricted))]
				project := fmt.Sprintf("project-%d", r.Intn(16))

				t0 := time.Now()
				_, err := engine.Derive(ctx, key, "loadtest passphrase", project, "https://grants.example:7777")
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
