package sync

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesRapidCalls(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(50 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Int32

	for i := 1; i <= 5; i++ {
		value := int32(i)
		d.Call(func() {
			calls.Add(1)
			last.Store(value)
		})
	}

	time.Sleep(200 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	if got := last.Load(); got != 5 {
		t.Fatalf("last value = %d, want 5", got)
	}
}

func TestDebouncerFlushRunsPendingImmediately(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(time.Hour)
	var calls atomic.Int32
	d.Call(func() { calls.Add(1) })

	d.Flush()

	if got := calls.Load(); got != 1 {
		t.Fatalf("calls after flush = %d, want 1", got)
	}

	// flushing again must not re-run the consumed call
	d.Flush()
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls after second flush = %d, want 1", got)
	}
}

func TestDebouncerStopDiscardsPending(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	d.Call(func() { calls.Add(1) })

	d.Stop()
	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Fatalf("calls after stop = %d, want 0", got)
	}
}

func TestDebouncerSeparateWindowsBothFire(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32

	d.Call(func() { calls.Add(1) })
	time.Sleep(100 * time.Millisecond)
	d.Call(func() { calls.Add(1) })
	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}
