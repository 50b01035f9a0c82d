// Package kv defines the key-value abstraction shared by the guard and MFA
// subsystems.
//
// # Design
//
// Stateful records (lockout records, pending one-time codes, TOTP replay
// counters) are opaque byte slices with a TTL. The [Store] interface is
// deliberately narrow so the same decision logic runs against the in-process
// [MemoryStore] or the Redis-backed [RedisStore] without code changes.
//
// # What this package must NOT do
//
//   - Interpret record contents. Encoding belongs to the owning component.
//   - Import credcore or any sibling package.
package kv
