package authsession

import (
	"errors"
	"time"

	"github.com/botcore/authsession/internal/rate"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by authsession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config    Config
	redis     *redis.Client
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the confirmation attempt
// throttle. Optional: without it the registry runs fully in memory and
// the throttle must stay disabled.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithDuration overrides SessionConfig.Duration, the fixed activity
// window applied by Start.
func (b *Builder) WithDuration(d time.Duration) *Builder {
	b.config.Session.Duration = d
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Registry, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Confirmation.EnableThrottle && b.redis == nil {
		return nil, errors.New("confirmation throttle requires redis client")
	}

	registry := &Registry{
		config:   cfg,
		metrics:  NewMetrics(cfg.Metrics),
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		sessions: make(map[string]*Session),
		now:      time.Now,
	}

	if cfg.Confirmation.EnableThrottle {
		registry.limiter = rate.New(b.redis, rate.Config{
			MaxAttempts: cfg.Confirmation.MaxAttempts,
			Window:      cfg.Confirmation.AttemptWindow,
			Prefix:      cfg.Confirmation.RedisPrefix,
		})
	}

	if cfg.Sweep.Enabled {
		registry.sweepDone = make(chan struct{})
		registry.sweepWG.Add(1)
		go registry.runSweeper()
	}

	b.built = true

	return registry, nil
}
