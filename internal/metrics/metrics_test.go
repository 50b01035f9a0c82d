package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestIncAndSnapshot(t *testing.T) {
	m := New(Config{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginFailure)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("login success = %d, want 2", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("login failure = %d, want 1", snap.Counters[MetricLoginFailure])
	}
	if _, present := snap.Counters[MetricTokenIssued]; present {
		t.Fatal("untouched counter present in snapshot")
	}
}

func TestDisabledIsNoOp(t *testing.T) {
	m := New(Config{})
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricValidateLatency, time.Millisecond)

	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled metrics recorded data: %+v", snap)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess) // must not panic
}

func TestObserveBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})

	m.Observe(MetricValidateLatency, 2*time.Millisecond)  // bucket 0 (≤5ms)
	m.Observe(MetricValidateLatency, 80*time.Millisecond) // bucket 4 (≤100ms)
	m.Observe(MetricValidateLatency, 5*time.Second)       // overflow bucket

	buckets := m.Snapshot().Histograms[MetricValidateLatency]
	if len(buckets) != HistogramBuckets {
		t.Fatalf("got %d buckets", len(buckets))
	}
	if buckets[0] != 1 || buckets[4] != 1 || buckets[HistogramBuckets-1] != 1 {
		t.Fatalf("unexpected bucket distribution: %v", buckets)
	}
}

func TestConcurrentInc(t *testing.T) {
	m := New(Config{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricGuardBlocked)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricGuardBlocked]; got != 16000 {
		t.Fatalf("guard blocked = %d, want 16000", got)
	}
}
