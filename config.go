package authsession

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by authsession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session      SessionConfig
	Confirmation ConfirmationConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
	Sweep        SweepConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by authsession APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// Duration is how long a session stays active after Start. Calling
	// Start again resets the window forward from the new now.
	Duration time.Duration
}

/*
====================================
CONFIRMATION CONFIG
====================================
*/

// ConfirmationConfig defines a public type used by authsession APIs.
//
// ConfirmationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ConfirmationConfig struct {
	// KeyLength is the number of characters in a generated challenge key.
	KeyLength int

	// EnableThrottle turns on the Redis-backed fixed-window attempt
	// limiter. Requires a Redis client on the Builder.
	EnableThrottle bool
	MaxAttempts    int
	AttemptWindow  time.Duration
	RedisPrefix    string
}

// AuditConfig defines a public type used by authsession APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authsession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// SweepConfig controls the optional background reclamation pass. The
// registry never evicts expired sessions on its own; with Enabled set,
// a sweeper goroutine removes entries that are past expiry, plus
// never-started entries older than MinIdle.
type SweepConfig struct {
	Enabled  bool
	Interval time.Duration

	// MinIdle protects freshly created, not-yet-started sessions from a
	// create/start race with the sweeper. Zero means sweep only expired
	// sessions and never reap unstarted ones.
	MinIdle time.Duration
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Duration: 24 * time.Hour,
		},
		Confirmation: ConfirmationConfig{
			KeyLength:      8,
			EnableThrottle: false,
			MaxAttempts:    5,
			AttemptWindow:  15 * time.Minute,
			RedisPrefix:    "ac",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Sweep: SweepConfig{
			Enabled:  false,
			Interval: 10 * time.Minute,
			MinIdle:  time.Hour,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.Session.Duration <= 0 {
		return errors.New("session duration must be positive")
	}

	if c.Confirmation.KeyLength < 4 || c.Confirmation.KeyLength > 64 {
		return errors.New("confirmation key length must be between 4 and 64")
	}
	if c.Confirmation.EnableThrottle {
		if c.Confirmation.MaxAttempts <= 0 {
			return errors.New("confirmation max attempts must be positive")
		}
		if c.Confirmation.AttemptWindow <= 0 {
			return errors.New("confirmation attempt window must be positive")
		}
		if strings.TrimSpace(c.Confirmation.RedisPrefix) == "" {
			return errors.New("confirmation redis prefix must not be blank")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}

	if c.Sweep.Enabled {
		if c.Sweep.Interval <= 0 {
			return errors.New("sweep interval must be positive")
		}
		if c.Sweep.MinIdle < 0 {
			return errors.New("sweep min idle must not be negative")
		}
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}
