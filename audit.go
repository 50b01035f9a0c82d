package credcore

import (
	"io"

	"github.com/avheli/credcore/internal/audit"
)

// SecurityEvent is the structured record emitted for every guard check,
// credential check, MFA check, and token issuance, regardless of outcome.
type SecurityEvent = audit.Event

// AuditSink receives security events from the engine's async dispatcher.
type AuditSink = audit.Sink

// NewJSONAuditSink writes one JSON event per line to w. Writes are
// serialized; w does not need to be concurrency-safe.
func NewJSONAuditSink(w io.Writer) AuditSink {
	return audit.NewJSONWriterSink(w)
}

// Event type constants used in SecurityEvent.Type.
const (
	EventLogin          = "login"
	EventMFA            = "mfa"
	EventCodeSend       = "code_send"
	EventTokenIssue     = "token_issue"
	EventTokenRefresh   = "token_refresh"
	EventPasswordChange = "password_change"
	EventMFASetup       = "mfa_setup"
	EventMFADisable     = "mfa_disable"
)
