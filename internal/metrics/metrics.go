package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram slot.
type MetricID uint16

const (
	MetricGuardBlocked MetricID = iota
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginLocked
	MetricMFARequired
	MetricMFASuccess
	MetricMFAFailure
	MetricMFAReplayAttempt
	MetricBackupCodeUsed
	MetricBackupCodeFailed
	MetricCodeSent
	MetricCodeSendThrottled
	MetricTokenIssued
	MetricTokenInvalid
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricPasswordChangeSuccess
	MetricPasswordChangeFailure
	MetricSystemError
	MetricValidateLatency

	MetricIDCount
)

// HistogramBuckets is the number of fixed latency buckets.
const HistogramBuckets = 8

// bucket upper bounds in nanoseconds: ≤5ms, ≤10ms, ≤25ms, ≤50ms, ≤100ms,
// ≤250ms, ≤1s, +Inf
var bucketBounds = [HistogramBuckets - 1]int64{
	int64(5 * time.Millisecond),
	int64(10 * time.Millisecond),
	int64(25 * time.Millisecond),
	int64(50 * time.Millisecond),
	int64(100 * time.Millisecond),
	int64(250 * time.Millisecond),
	int64(time.Second),
}

// paddedCounter keeps each slot on its own cache line to avoid false
// sharing between hot counters.
type paddedCounter struct {
	value uint64
	_     [7]uint64
}

// Config controls metric collection.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds atomic counters and optional latency histograms.
// A nil or disabled Metrics is a no-op on every method.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      []paddedCounter
	histograms    [][HistogramBuckets]uint64
}

// New creates a Metrics instance. When cfg.Enabled is false all operations
// are no-ops and no slots are allocated.
func New(cfg Config) *Metrics {
	m := &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
	if m.enabled {
		m.counters = make([]paddedCounter, MetricIDCount)
	}
	if m.enableLatency {
		m.histograms = make([][HistogramBuckets]uint64, MetricIDCount)
	}
	return m
}

// Inc atomically increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the histogram for id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id >= MetricIDCount {
		return
	}
	bucket := HistogramBuckets - 1
	for i, bound := range bucketBounds {
		if int64(d) <= bound {
			bucket = i
			break
		}
	}
	atomic.AddUint64(&m.histograms[id][bucket], 1)
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// Snapshot returns a consistent-enough copy of current values. Individual
// counters are read atomically; the set as a whole is not a transaction.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   make(map[MetricID]uint64),
		Histograms: make(map[MetricID][]uint64),
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := atomic.LoadUint64(&m.counters[id].value); v != 0 {
			snap.Counters[id] = v
		}
	}
	if m.enableLatency {
		for id := MetricID(0); id < MetricIDCount; id++ {
			var buckets []uint64
			for b := 0; b < HistogramBuckets; b++ {
				v := atomic.LoadUint64(&m.histograms[id][b])
				if buckets == nil && v == 0 {
					continue
				}
				if buckets == nil {
					buckets = make([]uint64, HistogramBuckets)
				}
				buckets[b] = v
			}
			if buckets != nil {
				snap.Histograms[id] = buckets
			}
		}
	}
	return snap
}
