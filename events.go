package impulse

import (
	"cmp"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/contact"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
	CONTACT
)

type pairKey struct {
	bodyA *actor.Body
	bodyB *actor.Body
}

// makePairKey creates a normalized pair key with consistent ordering
func makePairKey(bodyA, bodyB *actor.Body) pairKey {
	if bodyB.Index < bodyA.Index {
		bodyA, bodyB = bodyB, bodyA
	}

	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Collision events, tracked across steps
type CollisionEnterEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// ContactEvent is emitted for every contact processed during the step, in chronological order.
// It is a copy: the contact itself does not outlive the step.
type ContactEvent struct {
	BodyA        *actor.Body
	BodyB        *actor.Body
	Point        mgl64.Vec3
	Normal       mgl64.Vec3
	TimeOfImpact float64
	// Impulse is the magnitude of the normal impulse, zero if the bodies were already separating
	Impulse float64
}

func (e ContactEvent) Type() EventType { return CONTACT }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Collision tracking for Enter/Stay/Exit detection
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
	pairs               []pairKey
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContact is called for each contact once it has been resolved
func (e *Events) recordContact(c *contact.Contact, impulse float64) {
	if e.currentActivePairs == nil {
		e.currentActivePairs = make(map[pairKey]bool)
		e.previousActivePairs = make(map[pairKey]bool)
	}
	e.currentActivePairs[makePairKey(c.BodyA, c.BodyB)] = true

	if len(e.listeners[CONTACT]) == 0 {
		return
	}
	e.buffer = append(e.buffer, ContactEvent{
		BodyA:        c.BodyA,
		BodyB:        c.BodyB,
		Point:        c.PointOnA.Add(c.PointOnB).Mul(0.5),
		Normal:       c.Normal,
		TimeOfImpact: c.TimeOfImpact,
		Impulse:      impulse,
	})
}

// processCollisionEvents compares current and previous pairs to detect Enter/Stay/Exit
// Should be called once per step. Events are buffered in pair order, so that listeners
// are called in the same order on every run.
func (e *Events) processCollisionEvents() {
	// Detect Enter and Stay events
	for _, pair := range e.sortedPairs(e.currentActivePairs) {
		if e.previousActivePairs[pair] {
			// Pair was active before and still is, Stay
			e.buffer = append(e.buffer, CollisionStayEvent{
				BodyA: pair.bodyA,
				BodyB: pair.bodyB,
			})
		} else {
			// New pair, Enter
			e.buffer = append(e.buffer, CollisionEnterEvent{
				BodyA: pair.bodyA,
				BodyB: pair.bodyB,
			})
		}
	}

	// Detect Exit events
	for _, pair := range e.sortedPairs(e.previousActivePairs) {
		if !e.currentActivePairs[pair] {
			e.buffer = append(e.buffer, CollisionExitEvent{
				BodyA: pair.bodyA,
				BodyB: pair.bodyB,
			})
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// sortedPairs returns the keys of pairs ordered by body indices.
// The returned slice is reused on the next call.
func (e *Events) sortedPairs(pairs map[pairKey]bool) []pairKey {
	e.pairs = e.pairs[:0]
	for pair := range pairs {
		e.pairs = append(e.pairs, pair)
	}

	slices.SortFunc(e.pairs, func(a, b pairKey) int {
		if c := cmp.Compare(a.bodyA.Index, b.bodyA.Index); c != 0 {
			return c
		}
		return cmp.Compare(a.bodyB.Index, b.bodyB.Index)
	})

	return e.pairs
}

// forget drops the tracking of every pair involving body
func (e *Events) forget(body *actor.Body) {
	for pair := range e.previousActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.currentActivePairs, pair)
		}
	}
}

// reset drops every tracked pair and pending event, listeners are kept
func (e *Events) reset() {
	clear(e.previousActivePairs)
	clear(e.currentActivePairs)
	clear(e.pairs)
	e.pairs = e.pairs[:0]
	clear(e.buffer)
	e.buffer = e.buffer[:0]
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	clear(e.buffer)
	e.buffer = e.buffer[:0]
}
