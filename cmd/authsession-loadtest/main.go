package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	authsession "github.com/botcore/authsession"
	"github.com/botcore/authsession/metrics/export/prometheus"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 100000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (lookup + migrate)")
		missRate    = flag.Int("miss-rate", 10, "percentage of lookups against unregistered masks")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}
	if *missRate < 0 || *missRate > 100 {
		fmt.Fprintln(os.Stderr, "miss-rate must be between 0 and 100")
		os.Exit(2)
	}

	registry, err := authsession.New().
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "registry build failed: %v\n", err)
		os.Exit(1)
	}
	defer registry.Close()

	masks := make([]string, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := 0; i < *sessions; i++ {
		masks[i] = fmt.Sprintf("user%d!~u@host", i)
		registry.Create(i, masks[i]).Start()
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	lookupStats := runLookupPhase(registry, masks, *ops, *concurrency, *missRate)
	migrateStats := runMigratePhase(registry, masks, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("lookup", lookupStats)
	printStats("migrate", migrateStats)

	fmt.Println("---- metrics ----")
	fmt.Print(prometheus.NewPrometheusExporter(registry).Render())
}

func runLookupPhase(registry *authsession.Registry, masks []string, ops, concurrency, missRate int) phaseStats {
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

				mask := masks[r.Intn(len(masks))]
				expectHit := true
				if r.Intn(100) < missRate {
					mask = fmt.Sprintf("ghost%d!~g@host", r.Int())
					expectHit = false
				}

				t0 := time.Now()
				_, ok := registry.Lookup(mask)
				d := time.Since(t0)
				if ok != expectHit {
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

func runMigratePhase(registry *authsession.Registry, masks []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	// Each worker owns a disjoint stride of mask indices so migrations
	// never contend for the same entry; generation counters keep renames
	// unique.
	workers := concurrency
	if workers > len(masks) {
		workers = len(masks)
	}

	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			idx := worker
			gen := 0
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}

				gen++
				next := fmt.Sprintf("user%d-g%d!~u@host", idx, gen)

				t0 := time.Now()
				err := registry.Migrate(masks[idx], next)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				} else {
					masks[idx] = next
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()

				idx += workers
				if idx >= len(masks) {
					idx = worker
				}
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
