package events

import (
	"testing"

	"github.com/bimxplan/bimxplan-backend/internal/logger"
)

func TestBus_EmitDeliversToSubscribers(t *testing.T) {
	bus := NewBus(logger.NewNop())

	var got []Event
	bus.Subscribe(EventDataUpdated, func(e Event) { got = append(got, e) })
	bus.Emit(EventDataUpdated, "p1", "payload")

	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].ProjectID != "p1" || got[0].Type != EventDataUpdated {
		t.Fatalf("unexpected event %+v", got[0])
	}
	if got[0].Timestamp.IsZero() {
		t.Fatalf("event timestamp must be set")
	}
}

func TestBus_TypeIsolation(t *testing.T) {
	bus := NewBus(logger.NewNop())

	calls := 0
	bus.Subscribe(EventValidationUpdated, func(Event) { calls++ })
	bus.Emit(EventDataUpdated, "p1", nil)
	bus.Emit(EventProgressUpdated, "p1", nil)

	if calls != 0 {
		t.Fatalf("subscriber must only see its own event type, got %d calls", calls)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(logger.NewNop())

	calls := 0
	unsubscribe := bus.Subscribe(EventDataUpdated, func(Event) { calls++ })
	bus.Emit(EventDataUpdated, "p1", nil)
	unsubscribe()
	bus.Emit(EventDataUpdated, "p1", nil)

	if calls != 1 {
		t.Fatalf("expected exactly 1 call before unsubscribe, got %d", calls)
	}
}

// A panicking subscriber must not take down the emitter or starve the other
// subscribers.
func TestBus_PanicIsolation(t *testing.T) {
	bus := NewBus(logger.NewNop())

	bus.Subscribe(EventDataUpdated, func(Event) { panic("boom") })
	survived := false
	bus.Subscribe(EventDataUpdated, func(Event) { survived = true })

	bus.Emit(EventDataUpdated, "p1", nil)

	if !survived {
		t.Fatalf("healthy subscriber must still be delivered after a peer panics")
	}
}
