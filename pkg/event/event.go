// pkg/event/event.go
package event

import (
	"sync"

	"github.com/opd-ai/go-collider/pkg/geom"
	"github.com/opd-ai/go-collider/pkg/spatial"
)

// Type represents the type of event
type Type string

// Collision lifecycle event types. Enter fires on first contact, Stay on
// every subsequent frame the contact persists, Exit once the contact has
// definitively ended. Trigger variants fire for trigger-layer overlaps and
// carry no physical response.
const (
	CollisionEnter Type = "collision_enter"
	CollisionStay  Type = "collision_stay"
	CollisionExit  Type = "collision_exit"
	TriggerEnter   Type = "trigger_enter"
	TriggerExit    Type = "trigger_exit"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// Handler is a function that handles events
type Handler func(Event)

// Bus manages event subscriptions and dispatching. Dispatch is
// synchronous: Publish returns after every handler has run.
type Bus struct {
	handlers map[Type]map[int]Handler
	nextID   int
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type]map[int]Handler),
	}
}

// Subscribe registers a handler for a specific event type and returns a
// subscription id for Unsubscribe.
func (b *Bus) Subscribe(eventType Type, handler Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[int]Handler)
	}
	b.nextID++
	b.handlers[eventType][b.nextID] = handler
	return b.nextID
}

// Unsubscribe removes the handler registered under id
func (b *Bus) Unsubscribe(eventType Type, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers[eventType], id)
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.GetType()]))
	for _, h := range b.handlers[event.GetType()] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// CollisionEvent describes one contact transition between two objects.
// Handles rather than object references cross the event boundary so
// subscribers cannot keep despawned entities alive.
type CollisionEvent struct {
	BaseEvent
	HandleA     spatial.Handle
	HandleB     spatial.Handle
	Contact     geom.Vector2D
	Normal      geom.Vector2D
	Penetration float64
}

// NewCollisionEvent creates a collision lifecycle event
func NewCollisionEvent(eventType Type, a, b spatial.Handle, contact, normal geom.Vector2D, penetration float64) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent:   BaseEvent{EventType: eventType},
		HandleA:     a,
		HandleB:     b,
		Contact:     contact,
		Normal:      normal,
		Penetration: penetration,
	}
}

// TriggerEvent describes a trigger-layer overlap transition
type TriggerEvent struct {
	BaseEvent
	HandleA spatial.Handle
	HandleB spatial.Handle
}

// NewTriggerEvent creates a trigger overlap event
func NewTriggerEvent(eventType Type, a, b spatial.Handle) *TriggerEvent {
	return &TriggerEvent{
		BaseEvent: BaseEvent{EventType: eventType},
		HandleA:   a,
		HandleB:   b,
	}
}
