package audit

import (
	"context"
	"testing"
	"time"
)

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{Type: "login", Success: true})
	}
	d.Close()

	received := 0
	for {
		select {
		case <-sink.Events():
			received++
		default:
			if received != 5 {
				t.Fatalf("received %d events, want 5", received)
			}
			return
		}
	}
}

func TestDispatcherDisabled(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NewChannelSink(1))
	if d != nil {
		t.Fatal("disabled config should produce a nil dispatcher")
	}
	// All methods must be nil-safe.
	d.Emit(context.Background(), Event{Type: "login"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// A sink that never drains while we flood the buffer.
	blocked := make(chan struct{})
	sink := blockingSink{release: blocked}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(blocked)
		d.Close()
	}()

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{Type: "login"})
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.Dropped() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no events dropped under backpressure")
		}
		time.Sleep(time.Millisecond)
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(_ context.Context, _ Event) {
	<-s.release
}
