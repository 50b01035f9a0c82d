// Package credcore is an embeddable credential and session security core:
// password hashing and policy, brute-force lockout, multi-factor
// verification, and stateless session tokens, composed behind a single
// authentication engine.
//
// The engine is constructed through the Builder and holds no global state;
// multiple independent instances can coexist in one process. Persistence
// for lockout records, pending codes, and replay counters goes through an
// injected key-value store, in-memory by default or Redis-backed for
// multi-node deployments.
package credcore
