// Package token issues and validates stateless session tokens using
// AES-256-GCM. Validation is a pure function of the token and the server
// keys, so instances scale horizontally without shared state.
package token
