package authsession

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricSessionCreated)
	m.Observe(MetricLookupLatency, time.Microsecond)

	if got := m.Value(MetricSessionCreated); got != 0 {
		t.Fatalf("expected disabled metrics to stay zero, got %d", got)
	}

	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatal("expected empty snapshot from disabled metrics")
	}
}

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	for i := 0; i < 3; i++ {
		m.Inc(MetricLookupHit)
	}
	m.Inc(MetricLookupMiss)

	if got := m.Value(MetricLookupHit); got != 3 {
		t.Fatalf("expected 3 hits, got %d", got)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricLookupHit] != 3 || snap.Counters[MetricLookupMiss] != 1 {
		t.Fatalf("unexpected snapshot counters: %v", snap.Counters)
	}
	if len(snap.Histograms) != 0 {
		t.Fatal("expected no histograms without latency enabled")
	}
}

func TestMetricsObserveRequiresLatencyEnabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: false})
	m.Observe(MetricLookupLatency, time.Microsecond)
	if len(m.Snapshot().Histograms) != 0 {
		t.Fatal("expected Observe ignored without latency histograms")
	}

	m = NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricLookupLatency, time.Microsecond)
	// Non-latency ids never record histogram samples.
	m.Observe(MetricSessionCreated, time.Microsecond)

	buckets := m.Snapshot().Histograms[MetricLookupLatency]
	var total uint64
	for _, b := range buckets {
		total += b
	}
	if total != 1 {
		t.Fatalf("expected exactly one recorded sample, got buckets %v", buckets)
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{500 * time.Nanosecond, 0},
		{time.Microsecond, 0},
		{5 * time.Microsecond, 1},
		{10 * time.Microsecond, 2},
		{25 * time.Microsecond, 3},
		{50 * time.Microsecond, 4},
		{100 * time.Microsecond, 5},
		{250 * time.Microsecond, 6},
		{time.Millisecond, 7},
		{time.Second, 7},
	}

	for _, tc := range cases {
		if got := bucketIndex(tc.d); got != tc.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				m.Inc(MetricSessionCreated)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricSessionCreated); got != goroutines*perGoroutine {
		t.Fatalf("expected %d, got %d", goroutines*perGoroutine, got)
	}
}

func TestRegistryCountsLookupsAndLifecycle(t *testing.T) {
	registry := newTestRegistry(t, func(c *Config) {
		c.Metrics.Enabled = true
	})

	session := registry.Create("user-1", "alice!~a@host")
	session.Start()
	registry.Lookup("alice!~a@host")
	registry.Lookup("ghost!~g@host")
	session.Stop()

	snap := registry.MetricsSnapshot()
	if snap.Counters[MetricSessionCreated] != 1 {
		t.Fatalf("expected 1 created, got %d", snap.Counters[MetricSessionCreated])
	}
	if snap.Counters[MetricSessionStarted] != 1 {
		t.Fatalf("expected 1 started, got %d", snap.Counters[MetricSessionStarted])
	}
	if snap.Counters[MetricLookupHit] != 1 || snap.Counters[MetricLookupMiss] != 1 {
		t.Fatalf("unexpected lookup counters: hit=%d miss=%d",
			snap.Counters[MetricLookupHit], snap.Counters[MetricLookupMiss])
	}
	if snap.Counters[MetricSessionStopped] != 1 {
		t.Fatalf("expected 1 stopped, got %d", snap.Counters[MetricSessionStopped])
	}
}
