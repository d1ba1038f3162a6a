// Package rate provides the Redis-backed fixed-window counter behind the
// confirmation attempt throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. One key
// per network+mask pair under the configured prefix (default "ac").
//
// # What this package must NOT do
//
//   - Decide confirmation policy (the Session does that).
//   - Be imported outside the authsession module.
package rate
