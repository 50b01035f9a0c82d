// Package mfa implements second-factor verification: TOTP with drift
// tolerance and replay protection, single-use backup codes, and short-lived
// one-time codes delivered over SMS or email.
//
// # Design
//
// TOTP follows RFC 6238 natively because replay protection needs the
// matched time-step counter, which off-the-shelf verifiers do not expose.
// Backup codes and one-time codes are stored only as SHA-256 hashes; the
// plaintext exists exactly once, in the response that created it. Pending
// one-time codes live in an injected kv.Store with a hard TTL and a
// bounded attempt counter.
//
// Delivery is a collaborator concern: the package hands the plaintext code
// to an injected [Sender] and never retains it.
package mfa
