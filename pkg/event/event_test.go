// pkg/event/event_test.go
package event

import (
	"sync"
	"testing"

	"github.com/opd-ai/go-collider/pkg/geom"
	"github.com/opd-ai/go-collider/pkg/spatial"
)

func TestNewEventBus_ReturnsInitializedBus(t *testing.T) {
	bus := NewEventBus()

	if bus == nil {
		t.Fatal("NewEventBus() returned nil")
	}
	if bus.handlers == nil {
		t.Error("handlers map not initialized")
	}
}

func TestBaseEvent_GetType(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
	}{
		{name: "collision enter", eventType: CollisionEnter},
		{name: "collision stay", eventType: CollisionStay},
		{name: "collision exit", eventType: CollisionExit},
		{name: "trigger enter", eventType: TriggerEnter},
		{name: "trigger exit", eventType: TriggerExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &BaseEvent{EventType: tt.eventType}
			if got := e.GetType(); got != tt.eventType {
				t.Errorf("GetType() = %v, want %v", got, tt.eventType)
			}
		})
	}
}

func TestBus_SubscribePublish_DeliversEvent(t *testing.T) {
	bus := NewEventBus()

	received := 0
	bus.Subscribe(CollisionEnter, func(e Event) {
		received++
		if e.GetType() != CollisionEnter {
			t.Errorf("handler got type %v, want %v", e.GetType(), CollisionEnter)
		}
	})

	bus.Publish(&BaseEvent{EventType: CollisionEnter})
	if received != 1 {
		t.Errorf("handler invoked %d times, want 1", received)
	}
}

func TestBus_Publish_OnlyMatchingTypeDelivered(t *testing.T) {
	bus := NewEventBus()

	var enters, exits int
	bus.Subscribe(CollisionEnter, func(Event) { enters++ })
	bus.Subscribe(CollisionExit, func(Event) { exits++ })

	bus.Publish(&BaseEvent{EventType: CollisionEnter})
	bus.Publish(&BaseEvent{EventType: CollisionEnter})

	if enters != 2 {
		t.Errorf("enter handler invoked %d times, want 2", enters)
	}
	if exits != 0 {
		t.Errorf("exit handler invoked %d times, want 0", exits)
	}
}

func TestBus_Publish_MultipleHandlersAllRun(t *testing.T) {
	bus := NewEventBus()

	var first, second bool
	bus.Subscribe(TriggerEnter, func(Event) { first = true })
	bus.Subscribe(TriggerEnter, func(Event) { second = true })

	bus.Publish(&BaseEvent{EventType: TriggerEnter})

	if !first || !second {
		t.Errorf("handlers invoked = (%v, %v), want both", first, second)
	}
}

func TestBus_Unsubscribe_StopsDelivery(t *testing.T) {
	bus := NewEventBus()

	var kept, removed int
	bus.Subscribe(CollisionStay, func(Event) { kept++ })
	id := bus.Subscribe(CollisionStay, func(Event) { removed++ })

	bus.Publish(&BaseEvent{EventType: CollisionStay})
	bus.Unsubscribe(CollisionStay, id)
	bus.Publish(&BaseEvent{EventType: CollisionStay})

	if kept != 2 {
		t.Errorf("kept handler invoked %d times, want 2", kept)
	}
	if removed != 1 {
		t.Errorf("removed handler invoked %d times, want 1", removed)
	}
}

func TestBus_Unsubscribe_UnknownIDIsNoOp(t *testing.T) {
	bus := NewEventBus()
	bus.Unsubscribe(CollisionEnter, 42)

	invoked := false
	bus.Subscribe(CollisionEnter, func(Event) { invoked = true })
	bus.Publish(&BaseEvent{EventType: CollisionEnter})

	if !invoked {
		t.Error("subscription after bogus unsubscribe did not fire")
	}
}

func TestBus_Publish_NoSubscribersDoesNotPanic(t *testing.T) {
	bus := NewEventBus()
	bus.Publish(&BaseEvent{EventType: CollisionExit})
}

func TestBus_ConcurrentSubscribePublish(t *testing.T) {
	bus := NewEventBus()

	var mu sync.Mutex
	received := 0
	bus.Subscribe(CollisionEnter, func(Event) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Publish(&BaseEvent{EventType: CollisionEnter})
		}()
		go func() {
			defer wg.Done()
			bus.Subscribe(CollisionStay, func(Event) {})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if received != 10 {
		t.Errorf("received %d events, want 10", received)
	}
}

func TestNewCollisionEvent_PopulatesFields(t *testing.T) {
	a := spatial.Handle{Index: 1, Generation: 1}
	b := spatial.Handle{Index: 2, Generation: 3}
	contact := geom.Vector2D{X: 5, Y: 0}
	normal := geom.Vector2D{X: 1, Y: 0}

	e := NewCollisionEvent(CollisionEnter, a, b, contact, normal, 3.5)

	if e.GetType() != CollisionEnter {
		t.Errorf("GetType() = %v, want %v", e.GetType(), CollisionEnter)
	}
	if e.HandleA != a || e.HandleB != b {
		t.Errorf("handles = (%v, %v), want (%v, %v)", e.HandleA, e.HandleB, a, b)
	}
	if e.Contact != contact {
		t.Errorf("Contact = %v, want %v", e.Contact, contact)
	}
	if e.Normal != normal {
		t.Errorf("Normal = %v, want %v", e.Normal, normal)
	}
	if e.Penetration != 3.5 {
		t.Errorf("Penetration = %v, want 3.5", e.Penetration)
	}
}

func TestNewTriggerEvent_PopulatesFields(t *testing.T) {
	a := spatial.Handle{Index: 7, Generation: 2}
	b := spatial.Handle{Index: 9, Generation: 1}

	e := NewTriggerEvent(TriggerExit, a, b)

	if e.GetType() != TriggerExit {
		t.Errorf("GetType() = %v, want %v", e.GetType(), TriggerExit)
	}
	if e.HandleA != a || e.HandleB != b {
		t.Errorf("handles = (%v, %v), want (%v, %v)", e.HandleA, e.HandleB, a, b)
	}
}
