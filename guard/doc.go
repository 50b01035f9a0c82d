// Package guard tracks failed authentication attempts per identifier and
// computes lockout windows with exponential backoff.
//
// # Design
//
// An identifier is a composite of account identity and request origin
// (e.g. email+IP), which bounds the blast radius of a distributed attacker
// while still protecting the account against a single source. Records live
// in an injected kv.Store as small binary blobs, so the same state machine
// runs against process memory or Redis. Expired records are purged lazily
// on the next check; there is no background sweep.
//
// Read-modify-write on a record happens under a striped per-identifier
// mutex so two concurrent failures cannot both observe the pre-increment
// count.
package guard
