package internaldefs

import (
	authsession "github.com/botcore/authsession"
)

// CounterDef defines a public type used by authsession APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authsession.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authsession APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authsession.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session registry.
var CounterDefs = []CounterDef{
	{ID: authsession.MetricSessionCreated, Name: "authsession_session_created_total", Help: "Created sessions."},
	{ID: authsession.MetricSessionStarted, Name: "authsession_session_started_total", Help: "Session start operations (including restarts)."},
	{ID: authsession.MetricSessionConfirmed, Name: "authsession_session_confirmed_total", Help: "Successful confirmations."},
	{ID: authsession.MetricConfirmationRejected, Name: "authsession_confirmation_rejected_total", Help: "Rejected confirmation attempts."},
	{ID: authsession.MetricConfirmationRateLimited, Name: "authsession_confirmation_rate_limited_total", Help: "Throttled confirmation attempts."},
	{ID: authsession.MetricMaskMigrated, Name: "authsession_mask_migrated_total", Help: "Mask migrations."},
	{ID: authsession.MetricMaskMigrationConflict, Name: "authsession_mask_migration_conflict_total", Help: "Mask migrations rejected because the target mask was occupied."},
	{ID: authsession.MetricSessionStopped, Name: "authsession_session_stopped_total", Help: "Stopped sessions."},
	{ID: authsession.MetricSessionReplaced, Name: "authsession_session_replaced_total", Help: "Sessions displaced by a new session under the same mask."},
	{ID: authsession.MetricSessionSwept, Name: "authsession_session_swept_total", Help: "Sessions reclaimed by the sweeper."},
	{ID: authsession.MetricLookupHit, Name: "authsession_lookup_hit_total", Help: "Registry lookups that found a session."},
	{ID: authsession.MetricLookupMiss, Name: "authsession_lookup_miss_total", Help: "Registry lookups that found nothing."},
}

// HistogramDefs is an exported constant or variable used by the session registry.
var HistogramDefs = []HistogramDef{
	{ID: authsession.MetricLookupLatency, Name: "authsession_lookup_latency_seconds", Help: "Lookup latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session registry.
var HistogramBounds = []string{
	"0.000001",
	"0.000005",
	"0.00001",
	"0.000025",
	"0.00005",
	"0.0001",
	"0.00025",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session registry.
var HistogramBoundSuffix = []string{
	"1us",
	"5us",
	"10us",
	"25us",
	"50us",
	"100us",
	"250us",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
