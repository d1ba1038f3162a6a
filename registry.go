package authsession

import (
	"context"
	"sync"
	"time"

	"github.com/botcore/authsession/internal/rate"
	"github.com/google/uuid"
)

// Registry is the process-wide mask→session index. It is an explicitly
// owned object: construct one per process through [Builder.Build], inject
// it into the dispatch layer, and use a fresh instance per test. There is
// no package-level singleton.
//
// At most one session is registered per mask at any time. Creating a
// second session under an existing mask silently replaces the entry; the
// displaced Session object is not mutated, it simply becomes unreachable
// through Lookup.
//
// Expired sessions stay discoverable until explicitly stopped or removed
// by [Registry.Sweep]; expiry is passive.
type Registry struct {
	config  Config
	metrics *Metrics
	audit   *auditDispatcher
	limiter *rate.Limiter

	mu       sync.RWMutex
	sessions map[string]*Session

	// now is replaced in tests to pin clock-sensitive behavior.
	now func() time.Time

	sweepDone chan struct{}
	sweepWG   sync.WaitGroup
	closeOnce sync.Once
}

// Create constructs a new Session bound to the opaque user reference and
// registers it under mask, replacing any existing entry for that mask.
// The new session has empty storage and no expiration: it reports
// inactive until [Session.Start] is called.
//
// The user reference is exclusively referenced, never owned; its lifetime
// belongs to the external account store.
func (r *Registry) Create(user any, mask string) *Session {
	s := &Session{
		id:        uuid.NewString(),
		user:      user,
		storage:   newStorage(),
		registry:  r,
		createdAt: r.now(),
		mask:      mask,
	}

	r.mu.Lock()
	_, replaced := r.sessions[mask]
	r.sessions[mask] = s
	r.mu.Unlock()

	r.metricInc(MetricSessionCreated)
	r.emitAudit(context.Background(), auditSessionCreated, s.id, mask, true, "")
	if replaced {
		r.metricInc(MetricSessionReplaced)
		r.emitAudit(context.Background(), auditSessionReplaced, s.id, mask, true, "")
	}

	return s
}

// Lookup resolves identity to a mask string and returns the registered
// session for it. identity may be a raw mask string or any [Masker].
// A miss is a normal absence result, not an error; callers treat it as
// "unauthenticated".
func (r *Registry) Lookup(identity any) (*Session, bool) {
	var start time.Time
	if r.metrics.LatencyEnabled() {
		start = time.Now()
	}

	mask, ok := maskOf(identity)
	if !ok {
		r.metricInc(MetricLookupMiss)
		return nil, false
	}

	r.mu.RLock()
	s, ok := r.sessions[mask]
	r.mu.RUnlock()

	if ok {
		r.metricInc(MetricLookupHit)
	} else {
		r.metricInc(MetricLookupMiss)
	}
	if !start.IsZero() {
		r.metrics.Observe(MetricLookupLatency, time.Since(start))
	}

	return s, ok
}

func maskOf(identity any) (string, bool) {
	switch id := identity.(type) {
	case string:
		return id, true
	case Masker:
		return id.Mask(), true
	default:
		return "", false
	}
}

// Migrate moves the registry entry from oldMask to newMask
// (remove-then-insert under one critical section) and updates the
// session's mask field. It exists for out-of-band renames driven by the
// protocol layer; [Session.SetMask] is the in-band equivalent.
//
// Migrating onto a mask occupied by a different session fails with
// [ErrMaskOccupied]: two sessions' storages are never merged and the
// occupant is never silently dropped. Migrating a session onto its own
// current mask is a no-op.
func (r *Registry) Migrate(oldMask, newMask string) error {
	r.mu.Lock()
	s, ok := r.sessions[oldMask]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	err := r.rekeyLocked(s, oldMask, newMask)
	r.mu.Unlock()

	r.noteMigration(s, oldMask, newMask, err)
	return err
}

// rekeyLocked renames the registry entry for s. Caller holds r.mu.
func (r *Registry) rekeyLocked(s *Session, oldMask, newMask string) error {
	if newMask == "" {
		return ErrInvalidMask
	}
	if oldMask == newMask {
		return nil
	}
	if occupant, ok := r.sessions[newMask]; ok && occupant != s {
		return ErrMaskOccupied
	}
	if current, ok := r.sessions[oldMask]; !ok || current != s {
		// Session was stopped or already re-keyed out from under us.
		return ErrSessionNotFound
	}

	delete(r.sessions, oldMask)
	r.sessions[newMask] = s

	s.mu.Lock()
	s.mask = newMask
	s.mu.Unlock()

	return nil
}

func (r *Registry) noteMigration(s *Session, oldMask, newMask string, err error) {
	switch err {
	case nil:
		if oldMask == newMask {
			return
		}
		r.metricInc(MetricMaskMigrated)
		r.emitAudit(context.Background(), auditMaskMigrated, s.id, newMask, true, "")
	case ErrMaskOccupied:
		r.metricInc(MetricMaskMigrationConflict)
		r.emitAudit(context.Background(), auditMaskConflict, s.id, newMask, false, err.Error())
	}
}

// Stop removes the entry registered under identity (a mask string or
// [Masker]). Reports whether an entry was removed. Equivalent to
// resolving the session and calling [Session.Stop].
func (r *Registry) Stop(identity any) bool {
	mask, ok := maskOf(identity)
	if !ok {
		return false
	}

	r.mu.RLock()
	s, ok := r.sessions[mask]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	s.Stop()
	return true
}

// drop removes s from the registry if it is still registered under its
// current mask. Reports whether an entry was removed.
func (r *Registry) drop(s *Session) bool {
	r.mu.Lock()
	s.mu.Lock()
	mask := s.mask
	s.mu.Unlock()

	current, ok := r.sessions[mask]
	removed := ok && current == s
	if removed {
		delete(r.sessions, mask)
	}
	r.mu.Unlock()

	return removed
}

// All returns a copied snapshot of the full mask→session mapping for host
// iteration and administration. Mutating the returned map does not affect
// the registry.
func (r *Registry) All() map[string]*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Session, len(r.sessions))
	for mask, s := range r.sessions {
		out[mask] = s
	}
	return out
}

// Len describes the len operation and its observable behavior.
//
// Len does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions that are past expiry, plus never-started
// sessions idle longer than SweepConfig.MinIdle (when MinIdle > 0).
// Returns the number of entries removed. Safe to call from a host
// scheduler whether or not the background sweeper is enabled.
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.now()
	minIdle := r.config.Sweep.MinIdle

	type sweptEntry struct {
		id   string
		mask string
	}
	var swept []sweptEntry

	r.mu.Lock()
	for mask, s := range r.sessions {
		s.mu.Lock()
		expired := !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
		stale := s.expiresAt.IsZero() && minIdle > 0 && now.Sub(s.createdAt) >= minIdle
		s.mu.Unlock()

		if expired || stale {
			delete(r.sessions, mask)
			swept = append(swept, sweptEntry{id: s.id, mask: mask})
		}
	}
	r.mu.Unlock()

	for _, entry := range swept {
		r.metricInc(MetricSessionSwept)
		r.emitAudit(ctx, auditSessionSwept, entry.id, entry.mask, true, "")
	}

	return len(swept)
}

func (r *Registry) runSweeper() {
	defer r.sweepWG.Done()

	ticker := time.NewTicker(r.config.Sweep.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep(context.Background())
		case <-r.sweepDone:
			return
		}
	}
}

// Close stops the background sweeper (if any) and flushes the audit
// dispatcher. The registry itself stays usable for lookups afterwards,
// but hosts are expected to call Close exactly once at shutdown.
func (r *Registry) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		if r.sweepDone != nil {
			close(r.sweepDone)
			r.sweepWG.Wait()
		}
		if r.audit != nil {
			r.audit.Close()
		}
	})
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Registry) MetricsSnapshot() MetricsSnapshot {
	if r == nil || r.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return r.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Registry) AuditDropped() uint64 {
	if r == nil || r.audit == nil {
		return 0
	}
	return r.audit.Dropped()
}

func (r *Registry) metricInc(id MetricID) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.Inc(id)
}

func (r *Registry) emitAudit(ctx context.Context, eventType, sessionID, mask string, success bool, errMsg string) {
	if r == nil || r.audit == nil {
		return
	}

	network := ""
	if ctx != nil {
		if n, ok := ctx.Value(networkContextKey{}).(string); ok {
			network = n
		}
	}

	r.audit.Emit(ctx, AuditEvent{
		Timestamp: r.now(),
		EventType: eventType,
		SessionID: sessionID,
		Mask:      mask,
		Network:   network,
		Success:   success,
		Error:     errMsg,
	})
}
