package authsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/botcore/authsession/internal/confirm"
	"github.com/botcore/authsession/internal/rate"
)

// Session is a time-boxed authorization context bound to one mask and one
// opaque account reference. Sessions are created through
// [Registry.Create] and looked up by mask; a session that was never
// started is never active.
//
// All methods are safe for concurrent use. Each session carries its own
// exclusively-owned [Storage]; different sessions are fully independent.
type Session struct {
	id        string
	user      any
	storage   *Storage
	registry  *Registry
	createdAt time.Time

	mu        sync.Mutex
	mask      string
	expiresAt time.Time
	confirmed bool
	pending   string
}

// ID returns the generated session identifier used for audit and metrics
// correlation. It never participates in lookup; the mask is the key.
func (s *Session) ID() string {
	return s.id
}

// User returns the opaque account reference attached at creation. The
// registry never inspects it.
func (s *Session) User() any {
	return s.user
}

// Storage returns the session's namespaced key-value storage.
func (s *Session) Storage() *Storage {
	return s.storage
}

// Mask returns the session's current identity mask.
func (s *Session) Mask() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mask
}

// CreatedAt describes the createdat operation and its observable behavior.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Expiration returns the current expiration timestamp. started is false
// for a session that was never started.
func (s *Session) Expiration() (expiresAt time.Time, started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt, !s.expiresAt.IsZero()
}

// Start opens (or re-opens) the session's activity window: expiration
// becomes now + SessionConfig.Duration. Idempotent; calling Start on an
// already-active or expired session simply resets the window forward
// from the new now.
func (s *Session) Start() {
	expiresAt := s.registry.now().Add(s.registry.config.Session.Duration)

	s.mu.Lock()
	s.expiresAt = expiresAt
	s.mu.Unlock()

	s.registry.metricInc(MetricSessionStarted)
	s.registry.emitAudit(context.Background(), auditSessionStarted, s.id, s.Mask(), true, "")
}

// Active reports whether the session was started and its expiration is
// strictly in the future. A session is never implicitly un-expired: once
// past expiration it stays inactive until Start is called again.
func (s *Session) Active() bool {
	now := s.registry.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.expiresAt.IsZero() && now.Before(s.expiresAt)
}

// Authed reports whether the session is active AND confirmed. This is the
// gate plugins check before letting the identity act as the attached
// user; it is false whenever Active is false, regardless of confirmation
// state.
func (s *Session) Authed() bool {
	now := s.registry.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmed && !s.expiresAt.IsZero() && now.Before(s.expiresAt)
}

// Confirmed reports whether the confirmation protocol completed for this
// session. Unlike Authed it ignores expiry.
func (s *Session) Confirmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmed
}

// SetMask atomically renames the session's registry entry from its
// current mask to newMask. Fails with [ErrMaskOccupied] when newMask is
// held by a different session (storages are never merged), with
// [ErrInvalidMask] for an empty mask, and with [ErrSessionNotFound] when
// the session was already stopped. Renaming onto the current mask is a
// no-op.
func (s *Session) SetMask(newMask string) error {
	r := s.registry

	r.mu.Lock()
	s.mu.Lock()
	oldMask := s.mask
	s.mu.Unlock()
	err := r.rekeyLocked(s, oldMask, newMask)
	r.mu.Unlock()

	r.noteMigration(s, oldMask, newMask, err)
	return err
}

// Stop removes the session's entry from the registry under its current
// mask. Expiration and storage are left untouched; the lingering object
// reference is the caller's garbage. Stopping an already-stopped session
// is a no-op.
func (s *Session) Stop() {
	if s.registry.drop(s) {
		s.registry.metricInc(MetricSessionStopped)
		s.registry.emitAudit(context.Background(), auditSessionStopped, s.id, s.Mask(), true, "")
	}
}

// BeginConfirmation issues a new challenge key for the session. The host
// delivers the key to the user over a side channel; the user proves
// control of the account by echoing it back through [Session.Confirm].
// Re-issuing replaces any previous unanswered challenge. Fails with
// [ErrAlreadyConfirmed] once the session is confirmed.
func (s *Session) BeginConfirmation(ctx context.Context) (string, error) {
	s.mu.Lock()
	alreadyConfirmed := s.confirmed
	s.mu.Unlock()
	if alreadyConfirmed {
		return "", ErrAlreadyConfirmed
	}

	key, err := confirm.NewKey(s.registry.config.Confirmation.KeyLength)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfirmationUnavailable, err)
	}

	s.mu.Lock()
	if s.confirmed {
		s.mu.Unlock()
		return "", ErrAlreadyConfirmed
	}
	s.pending = key
	s.mu.Unlock()

	s.registry.emitAudit(ctx, auditChallengeIssued, s.id, s.Mask(), true, "")
	return key, nil
}

// Confirm verifies a challenge response. The returned status lets callers
// branch without matching errors:
//
//   - [ConfirmationAccepted]: the response matched; the confirmed flag
//     consulted by [Session.Authed] is now set and the attempt counter is
//     cleared. err is nil.
//   - [ConfirmationNotPending]: no challenge was outstanding (including
//     an already-confirmed session). err is [ErrConfirmationKeyIncorrect].
//   - [ConfirmationRejected]: the response did not match, or the throttle
//     denied the attempt. err is [ErrConfirmationKeyIncorrect],
//     [ErrConfirmationRateLimited], or [ErrConfirmationUnavailable].
//
// Callers must treat a non-nil error as a rejected authorization attempt
// and surface it to the end user as access denied, never as a crash.
func (s *Session) Confirm(ctx context.Context, key string) (ConfirmationStatus, error) {
	r := s.registry
	network := networkFromContext(ctx)
	mask := s.Mask()

	if r.limiter != nil {
		if err := r.limiter.Check(ctx, network, mask); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				r.metricInc(MetricConfirmationRateLimited)
				r.emitAudit(ctx, auditConfirmationThrottled, s.id, mask, false, ErrConfirmationRateLimited.Error())
				return ConfirmationRejected, ErrConfirmationRateLimited
			}
			return ConfirmationRejected, fmt.Errorf("%w: %v", ErrConfirmationUnavailable, err)
		}
	}

	s.mu.Lock()
	pending := s.pending
	alreadyConfirmed := s.confirmed
	s.mu.Unlock()

	if alreadyConfirmed || pending == "" {
		r.metricInc(MetricConfirmationRejected)
		r.emitAudit(ctx, auditConfirmationRejected, s.id, mask, false, ErrConfirmationKeyIncorrect.Error())
		return ConfirmationNotPending, ErrConfirmationKeyIncorrect
	}

	if !confirm.Equal(pending, key) {
		if r.limiter != nil {
			if err := r.limiter.Increment(ctx, network, mask); err != nil && !errors.Is(err, rate.ErrRateLimited) {
				return ConfirmationRejected, fmt.Errorf("%w: %v", ErrConfirmationUnavailable, err)
			}
		}
		r.metricInc(MetricConfirmationRejected)
		r.emitAudit(ctx, auditConfirmationRejected, s.id, mask, false, ErrConfirmationKeyIncorrect.Error())
		return ConfirmationRejected, ErrConfirmationKeyIncorrect
	}

	s.mu.Lock()
	s.confirmed = true
	s.pending = ""
	s.mu.Unlock()

	if r.limiter != nil {
		// Best effort: a failed counter reset only widens the window.
		_ = r.limiter.Reset(ctx, network, mask)
	}

	r.metricInc(MetricSessionConfirmed)
	r.emitAudit(ctx, auditSessionConfirmed, s.id, mask, true, "")
	return ConfirmationAccepted, nil
}
