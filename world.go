package impulse

import (
	"math"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/contact"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ErrInvalidTimeStep is returned by ValidateTimeStep for a step that is not strictly positive and finite
var ErrInvalidTimeStep = errors.New("invalid time step")

// Scene provides the bodies a world is populated with.
// Every call must return new bodies, owned by the world from then on.
type Scene interface {
	Bodies() []*actor.Body
}

type World struct {
	// List of all bodies in the world
	Bodies []*actor.Body
	// Gravity acceleration (m/s², or N/kg)
	Gravity mgl64.Vec3
	// Margin grows the swept bounds used by the broad phase (m)
	Margin     float64
	Broadphase SweepAndPrune

	Events Events

	scene    Scene
	contacts []contact.Contact
}

// NewWorld creates an empty world with the default broad phase margin
func NewWorld(gravity mgl64.Vec3) *World {
	return &World{
		Gravity: gravity,
		Margin:  DefaultBroadphaseMargin,
		Events:  NewEvents(),
	}
}

// ValidateTimeStep checks dt before it is handed to Update
func ValidateTimeStep(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return errors.Wrapf(ErrInvalidTimeStep, "dt=%v", dt)
	}

	return nil
}

// AddBody adds a body to the world
func (w *World) AddBody(body *actor.Body) {
	body.Index = len(w.Bodies)
	w.Bodies = append(w.Bodies, body)
}

// RemoveBody removes a body from the world
func (w *World) RemoveBody(body *actor.Body) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = slices.Delete(w.Bodies, k, k+1)
		w.reindex()
	}

	w.Events.forget(body)
}

// Initialize populates the world with the bodies of scene.
// The scene is kept, so that Reset can populate the world again.
func (w *World) Initialize(scene Scene) {
	w.scene = scene
	w.Clear()

	if scene == nil {
		return
	}
	for _, body := range scene.Bodies() {
		w.AddBody(body)
	}
}

// Reset empties the world and populates it again from its scene
func (w *World) Reset() {
	w.Initialize(w.scene)
}

// Clear removes every body from the world
func (w *World) Clear() {
	clear(w.Bodies)
	w.Bodies = w.Bodies[:0]
	clear(w.contacts)
	w.contacts = w.contacts[:0]
	w.Events.reset()
}

// Update advances the simulation by dt seconds.
// An invalid dt leaves the world untouched, see ValidateTimeStep.
func (w *World) Update(dt float64) {
	if ValidateTimeStep(dt) != nil {
		return
	}
	w.reindex()

	// Phase 1: External forces
	w.applyGravity(dt)

	// Phase 2.0: Collision pair finding - Broad phase
	// Phase 2.1: Collision pair finding - narrow phase
	pairs := w.Broadphase.FindPairs(w.Bodies, dt, w.Margin)
	w.contacts = NarrowPhase(w.Bodies, pairs, dt, w.contacts[:0])

	// Phase 3: Chronological order
	contact.Sort(w.contacts)

	// Phase 4: Resolve each contact at its time of impact
	accumulatedTime := 0.0
	for i := range w.contacts {
		c := &w.contacts[i]
		if c.IsStatic() {
			continue
		}

		w.integrate(c.TimeOfImpact - accumulatedTime)
		impulse := c.Resolve()
		accumulatedTime = c.TimeOfImpact

		w.Events.recordContact(c, impulse)
	}

	// Phase 5: Move the bodies for the rest of the step
	if timeRemaining := dt - accumulatedTime; timeRemaining > 0 {
		w.integrate(timeRemaining)
	}

	// Contacts do not outlive the step
	clear(w.contacts)
	w.contacts = w.contacts[:0]

	w.Events.flush()
}

// applyGravity converts the gravity acceleration into an impulse, I = m * g * dt
func (w *World) applyGravity(dt float64) {
	for _, body := range w.Bodies {
		if body.IsStatic() {
			continue
		}

		impulseGravity := w.Gravity.Mul(body.Mass() * dt)
		body.ApplyImpulseLinear(impulseGravity)
	}
}

func (w *World) integrate(dt float64) {
	if dt <= 0 {
		return
	}

	for _, body := range w.Bodies {
		body.Update(dt)
	}
}

func (w *World) reindex() {
	for i, body := range w.Bodies {
		body.Index = i
	}
}
