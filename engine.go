package credcore

import (
	"context"
	"time"

	"github.com/avheli/credcore/guard"
	"github.com/avheli/credcore/internal/audit"
	"github.com/avheli/credcore/internal/kv"
	"github.com/avheli/credcore/internal/metrics"
	"github.com/avheli/credcore/mfa"
	"github.com/avheli/credcore/password"
	"github.com/avheli/credcore/token"
)

// Engine is the authentication orchestrator. It is immutable after Build
// and safe for concurrent use.
type Engine struct {
	config    Config
	store     kv.Store
	passwords *password.Manager
	guard     *guard.Guard
	totp      *mfa.TOTP
	codes     *mfa.CodeIssuer // nil when no sender was configured
	replay    *mfa.ReplayTracker
	tokens    *token.Tokenizer
	users     UserProvider
	audit     *audit.Dispatcher
	metrics   *metrics.Metrics
	dummyHash string
	now       func() time.Time
}

// Close drains the audit dispatcher. The engine must not be used after.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot returns a copy of the engine's counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return metrics.Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many security events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) emit(ctx context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	e.audit.Emit(ctx, event)
}

// ValidateSessionToken opens and checks a session token. The returned
// error is generic; the specific cause is observable only through metrics
// and internal logging.
func (e *Engine) ValidateSessionToken(tok string) (*token.Payload, error) {
	start := e.now()
	payload, err := e.tokens.Validate(tok)
	e.metrics.Observe(MetricValidateLatency, e.now().Sub(start))
	if err != nil {
		e.metrics.Inc(MetricTokenInvalid)
		return nil, err
	}
	return payload, nil
}

// RefreshSession exchanges a valid refresh token for a new access token.
func (e *Engine) RefreshSession(ctx context.Context, refreshToken string) (string, error) {
	access, err := e.tokens.Refresh(refreshToken)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		e.emit(ctx, SecurityEvent{
			Type:  EventTokenRefresh,
			Error: token.Reason(err),
		})
		return "", err
	}

	e.metrics.Inc(MetricRefreshSuccess)
	e.emit(ctx, SecurityEvent{
		Type:    EventTokenRefresh,
		Success: true,
	})
	return access, nil
}
