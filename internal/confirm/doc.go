// Package confirm generates and compares confirmation challenge keys.
//
// Keys are short random strings from an unambiguous alphabet, meant to be
// delivered to the user over a side channel (e.g. a private notice) and
// typed back. Comparison is constant time.
//
// # What this package must NOT do
//
//   - Store keys or track attempts (the Session and internal/rate do that).
//   - Be imported outside the authsession module.
package confirm
