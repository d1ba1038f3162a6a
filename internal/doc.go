// Package internal contains helper packages that are intentionally private
// to authsession.
//
// # Sub-packages
//
//   - confirm: challenge key generation and constant-time comparison
//   - rate: Redis-backed fixed-window confirmation attempt counters
//
// # What this package must NOT do
//
//   - Export types that appear in the public authsession API.
//   - Be imported by any package outside the authsession module.
package internal
