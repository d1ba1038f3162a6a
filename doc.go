// Package authsession provides a transient authentication-session registry for
// chat-bot frameworks: a process-owned mask→session index with time-boxed
// lifecycle, an optional confirmation (challenge/response) step gating
// privileged operations, and per-session namespaced storage for plugin state.
//
// The package is designed for concurrent dispatch hosts: Registry and Session
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build]. Hosts with a single cooperative dispatch loop pay
// only uncontended lock overhead.
//
// # Architecture boundaries
//
// authsession is the public surface. It exposes [Registry], [Session],
// [Storage], [Builder], [Config], and value types (AuditEvent,
// MetricsSnapshot, etc.). Challenge key generation and the Redis-backed
// confirmation throttle live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Speak any chat protocol. Identity arrives as an opaque mask string
//     (or anything implementing [Masker]); message delivery is the host's job.
//   - Persist sessions. The registry is process-lifetime state only; a
//     restart starts empty.
//   - Mint or parse cryptographic tokens. The mask string is the identity.
//
// # Performance contract
//
// Lookup is the hot path: it runs on every inbound event and must complete
// with one read-locked map access plus a timestamp comparison, no allocation,
// and no I/O. Confirmation is the only operation allowed a Redis round-trip,
// and only when the attempt throttle is configured.
package authsession
