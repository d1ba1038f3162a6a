package authsession

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by authsession APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricSessionCreated is an exported constant or variable used by the session registry.
	MetricSessionCreated MetricID = iota
	// MetricSessionStarted is an exported constant or variable used by the session registry.
	MetricSessionStarted
	// MetricSessionConfirmed is an exported constant or variable used by the session registry.
	MetricSessionConfirmed
	// MetricConfirmationRejected is an exported constant or variable used by the session registry.
	MetricConfirmationRejected
	// MetricConfirmationRateLimited is an exported constant or variable used by the session registry.
	MetricConfirmationRateLimited
	// MetricMaskMigrated is an exported constant or variable used by the session registry.
	MetricMaskMigrated
	// MetricMaskMigrationConflict is an exported constant or variable used by the session registry.
	MetricMaskMigrationConflict
	// MetricSessionStopped is an exported constant or variable used by the session registry.
	MetricSessionStopped
	// MetricSessionReplaced is an exported constant or variable used by the session registry.
	MetricSessionReplaced
	// MetricSessionSwept is an exported constant or variable used by the session registry.
	MetricSessionSwept
	// MetricLookupHit is an exported constant or variable used by the session registry.
	MetricLookupHit
	// MetricLookupMiss is an exported constant or variable used by the session registry.
	MetricLookupMiss
	// MetricLookupLatency is an exported constant or variable used by the session registry.
	MetricLookupLatency
	metricIDCount
)

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

// Metrics defines a public type used by authsession APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by authsession APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled describes the enabled operation and its observable behavior.
//
// Enabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled describes the latencyenabled operation and its observable behavior.
//
// LatencyEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe describes the observe operation and its observable behavior.
//
// Observe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricLookupLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
//
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricLookupLatency].buckets[i])
		}
		s.Histograms[MetricLookupLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 1:
		return 0
	case us <= 5:
		return 1
	case us <= 10:
		return 2
	case us <= 25:
		return 3
	case us <= 50:
		return 4
	case us <= 100:
		return 5
	case us <= 250:
		return 6
	default:
		return 7
	}
}
