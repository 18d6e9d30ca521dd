// Package events is the in-process publish/subscribe bus that keeps the
// wizard, the live preview and diagnostics in sync without direct coupling.
// Delivery is synchronous within one running instance; there is no
// persistence and no cross-process fan-out.
package events

import (
	"sync"
	"time"

	"github.com/bimxplan/bimxplan-backend/internal/logger"
)

type EventType string

const (
	EventDataUpdated       EventType = "data-updated"
	EventValidationUpdated EventType = "validation-updated"
	EventProgressUpdated   EventType = "progress-updated"
)

type Event struct {
	Type      EventType   `json:"type"`
	ProjectID string      `json:"project_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

type Callback func(Event)

// Bus is constructed once at startup and handed to the components that need
// it; it is not an ambient singleton.
type Bus struct {
	mu        sync.RWMutex
	log       *logger.Logger
	nextID    int
	listeners map[EventType]map[int]Callback
}

func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		log:       log.With("component", "EventBus"),
		listeners: make(map[EventType]map[int]Callback),
	}
}

// Subscribe registers a callback for one event type and returns its
// unsubscribe function.
func (b *Bus) Subscribe(eventType EventType, cb Callback) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners[eventType] == nil {
		b.listeners[eventType] = make(map[int]Callback)
	}
	id := b.nextID
	b.nextID++
	b.listeners[eventType][id] = cb
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners[eventType], id)
	}
}

// Emit delivers the event synchronously to every current subscriber of the
// type. A panicking subscriber is logged and isolated; it never reaches the
// other subscribers or the emitter.
func (b *Bus) Emit(eventType EventType, projectID string, payload interface{}) {
	event := Event{
		Type:      eventType,
		ProjectID: projectID,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.mu.RLock()
	callbacks := make([]Callback, 0, len(b.listeners[eventType]))
	for _, cb := range b.listeners[eventType] {
		callbacks = append(callbacks, cb)
	}
	b.mu.RUnlock()

	for _, cb := range callbacks {
		b.deliver(cb, event)
	}
}

func (b *Bus) deliver(cb Callback, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event subscriber panicked", "event_type", event.Type, "project_id", event.ProjectID, "panic", r)
		}
	}()
	cb(event)
}
