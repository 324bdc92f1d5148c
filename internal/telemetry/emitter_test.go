package telemetry

import (
	"context"
	"testing"
	"time"
)

type captureStore struct {
	events []Event
}

func (s *captureStore) AppendTelemetryEvent(ctx context.Context, evt Event) error {
	s.events = append(s.events, evt)
	return nil
}

func TestEmitStampsTimestamp(t *testing.T) {
	store := &captureStore{}
	emitter := NewEmitter(store)
	fixed := time.Date(2025, time.May, 29, 12, 0, 0, 0, time.UTC)
	emitter.clock = func() time.Time { return fixed }

	err := emitter.Emit(context.Background(), Event{
		Severity: SeverityInfo,
		Source:   "sync",
		Name:     "bundle.create",
		EventID:  "EVENT#25_93a1#offsonnar",
	})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if len(store.events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(store.events))
	}
	if got := store.events[0].Timestamp; !got.Equal(fixed) {
		t.Fatalf("Timestamp = %v, want %v", got, fixed)
	}
}

func TestEmitKeepsExplicitTimestamp(t *testing.T) {
	store := &captureStore{}
	emitter := NewEmitter(store)
	explicit := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	if err := emitter.Emit(context.Background(), Event{Timestamp: explicit}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if got := store.events[0].Timestamp; !got.Equal(explicit) {
		t.Fatalf("Timestamp = %v, want %v", got, explicit)
	}
}

func TestEmitNilStoreIsNoOp(t *testing.T) {
	var emitter *Emitter
	if err := emitter.Emit(context.Background(), Event{}); err != nil {
		t.Fatalf("Emit() on nil emitter error = %v", err)
	}
	if err := NewEmitter(nil).Emit(context.Background(), Event{}); err != nil {
		t.Fatalf("Emit() with nil store error = %v", err)
	}
}
