package credcore

import "github.com/avheli/credcore/internal/metrics"

// MetricID identifies one engine counter or histogram.
type MetricID = metrics.MetricID

// MetricsSnapshot is a point-in-time copy of all engine metrics.
type MetricsSnapshot = metrics.Snapshot

const (
	MetricGuardBlocked          = metrics.MetricGuardBlocked
	MetricLoginSuccess          = metrics.MetricLoginSuccess
	MetricLoginFailure          = metrics.MetricLoginFailure
	MetricLoginLocked           = metrics.MetricLoginLocked
	MetricMFARequired           = metrics.MetricMFARequired
	MetricMFASuccess            = metrics.MetricMFASuccess
	MetricMFAFailure            = metrics.MetricMFAFailure
	MetricMFAReplayAttempt      = metrics.MetricMFAReplayAttempt
	MetricBackupCodeUsed        = metrics.MetricBackupCodeUsed
	MetricBackupCodeFailed      = metrics.MetricBackupCodeFailed
	MetricCodeSent              = metrics.MetricCodeSent
	MetricCodeSendThrottled     = metrics.MetricCodeSendThrottled
	MetricTokenIssued           = metrics.MetricTokenIssued
	MetricTokenInvalid          = metrics.MetricTokenInvalid
	MetricRefreshSuccess        = metrics.MetricRefreshSuccess
	MetricRefreshFailure        = metrics.MetricRefreshFailure
	MetricPasswordChangeSuccess = metrics.MetricPasswordChangeSuccess
	MetricPasswordChangeFailure = metrics.MetricPasswordChangeFailure
	MetricSystemError           = metrics.MetricSystemError
	MetricValidateLatency       = metrics.MetricValidateLatency
)
