package impulse

import (
	"math"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// createSphere creates a sphere body with the given state
func createSphere(position, velocity mgl64.Vec3, radius, inverseMass float64) *actor.Body {
	rb := actor.NewBody(
		actor.Transform{Position: position, Orientation: mgl64.QuatIdent()},
		actor.NewSphere(radius),
		inverseMass,
	)
	rb.LinearVelocity = velocity
	rb.Material = actor.Material{Elasticity: 1, Friction: 0}

	return rb
}

// sceneFunc adapts a function to the Scene interface
type sceneFunc func() []*actor.Body

func (f sceneFunc) Bodies() []*actor.Body { return f() }

func headOnScene() []*actor.Body {
	return []*actor.Body{
		createSphere(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{3, 0, 0}, 0.5, 1),
		createSphere(mgl64.Vec3{3, 0, 0}, mgl64.Vec3{-3, 0, 0}, 0.5, 1),
	}
}

// =============================================================================
// Time Step Tests
// =============================================================================

func TestValidateTimeStep(t *testing.T) {
	tests := []struct {
		name    string
		dt      float64
		wantErr bool
	}{
		{"one frame", 1.0 / 60.0, false},
		{"sub step", 1e-6, false},
		{"zero", 0, true},
		{"negative", -1.0 / 60.0, true},
		{"NaN", math.NaN(), true},
		{"infinite", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTimeStep(tt.dt)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTimeStep(%v) = %v, wantErr %v", tt.dt, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTimeStep) {
				t.Errorf("expected ErrInvalidTimeStep, got %v", err)
			}
		})
	}
}

func TestWorld_Update_InvalidTimeStep(t *testing.T) {
	world := NewWorld(mgl64.Vec3{0, 0, -9.81})
	world.Initialize(sceneFunc(headOnScene))

	for _, dt := range []float64{0, -1, math.NaN()} {
		world.Update(dt)
	}

	if world.Bodies[0].Transform.Position != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("body moved to %v on an invalid step", world.Bodies[0].Transform.Position)
	}
	if world.Bodies[0].LinearVelocity != (mgl64.Vec3{3, 0, 0}) {
		t.Errorf("velocity changed to %v on an invalid step", world.Bodies[0].LinearVelocity)
	}
}

// =============================================================================
// Body Collection Tests
// =============================================================================

func TestWorld_AddRemoveBody(t *testing.T) {
	world := NewWorld(mgl64.Vec3{})
	a := createSphere(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{}, 1, 1)
	b := createSphere(mgl64.Vec3{5, 0, 0}, mgl64.Vec3{}, 1, 1)
	c := createSphere(mgl64.Vec3{10, 0, 0}, mgl64.Vec3{}, 1, 1)

	world.AddBody(a)
	world.AddBody(b)
	world.AddBody(c)

	if b.Index != 1 || c.Index != 2 {
		t.Fatalf("indices = %d, %d, want 1, 2", b.Index, c.Index)
	}

	world.RemoveBody(b)

	if len(world.Bodies) != 2 {
		t.Fatalf("expected 2 bodies, got %d", len(world.Bodies))
	}
	if world.Bodies[1] != c || c.Index != 1 {
		t.Errorf("expected c at index 1, got index %d", c.Index)
	}

	// Removing an unknown body is a no-op
	world.RemoveBody(b)
	if len(world.Bodies) != 2 {
		t.Errorf("expected 2 bodies, got %d", len(world.Bodies))
	}
}

func TestWorld_Reset_Idempotent(t *testing.T) {
	world := NewWorld(mgl64.Vec3{0, 0, -9.81})
	world.Initialize(sceneFunc(headOnScene))
	initial := world.Bodies[0]

	for i := 0; i < 30; i++ {
		world.Update(1.0 / 60.0)
	}

	world.Reset()
	first := snapshot(world.Bodies)
	world.Reset()
	second := snapshot(world.Bodies)

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 bodies after each reset, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("body %d differs between resets: %+v != %+v", i, first[i], second[i])
		}
	}
	if first[0].position != (mgl64.Vec3{0, 0, 0}) || first[0].velocity != (mgl64.Vec3{3, 0, 0}) {
		t.Errorf("reset did not restore the initial state: %+v", first[0])
	}
	if world.Bodies[0] == initial {
		t.Error("reset should populate the world with new bodies")
	}
}

func TestWorld_Clear(t *testing.T) {
	world := NewWorld(mgl64.Vec3{})
	world.Initialize(sceneFunc(headOnScene))

	world.Clear()

	if len(world.Bodies) != 0 {
		t.Errorf("expected no body, got %d", len(world.Bodies))
	}
	world.Update(1.0 / 60.0)
}

// =============================================================================
// Step Tests
// =============================================================================

func TestWorld_Update_Gravity(t *testing.T) {
	world := NewWorld(mgl64.Vec3{0, 0, -10})
	ball := createSphere(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{}, 0.5, 2)
	world.AddBody(ball)

	world.Update(0.1)

	if !vec3AlmostEqual(ball.LinearVelocity, mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("LinearVelocity = %v, want [0 0 -1]", ball.LinearVelocity)
	}
	if !vec3AlmostEqual(ball.Transform.Position, mgl64.Vec3{0, 0, -0.1}, 1e-9) {
		t.Errorf("Position = %v, want [0 0 -0.1]", ball.Transform.Position)
	}
}

func TestWorld_Update_StaticBodyInvariant(t *testing.T) {
	world := NewWorld(mgl64.Vec3{0, 0, -9.81})

	ground := createSphere(mgl64.Vec3{0, 0, -100}, mgl64.Vec3{}, 100, 0)
	// A static body with a stray velocity must not move either
	pillar := createSphere(mgl64.Vec3{3, 0, 1}, mgl64.Vec3{1, 0, 0}, 1, 0)
	pillar.AngularVelocity = mgl64.Vec3{0, 0, 5}
	world.AddBody(ground)
	world.AddBody(pillar)
	world.AddBody(createSphere(mgl64.Vec3{0, 0, 2}, mgl64.Vec3{2, 0, 0}, 0.5, 1))
	world.AddBody(createSphere(mgl64.Vec3{6, 0, 1}, mgl64.Vec3{-5, 0, 0}, 0.5, 1))

	before := snapshot([]*actor.Body{ground, pillar})
	for i := 0; i < 240; i++ {
		world.Update(1.0 / 60.0)
	}
	after := snapshot([]*actor.Body{ground, pillar})

	for i := range before {
		if before[i] != after[i] {
			t.Errorf("static body %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestWorld_Update_HeadOnScenario(t *testing.T) {
	world := NewWorld(mgl64.Vec3{})
	world.Initialize(sceneFunc(headOnScene))

	var contacts []ContactEvent
	world.Events.Subscribe(CONTACT, func(event Event) {
		contacts = append(contacts, event.(ContactEvent))
	})

	world.Update(1.0)

	if len(contacts) != 1 {
		t.Fatalf("expected a single contact, got %d", len(contacts))
	}
	if !almostEqual(contacts[0].TimeOfImpact, 1.0/3.0, 1e-9) {
		t.Errorf("TimeOfImpact = %v, want 1/3", contacts[0].TimeOfImpact)
	}
	if !almostEqual(contacts[0].Impulse, 6, 1e-9) {
		t.Errorf("Impulse = %v, want 6", contacts[0].Impulse)
	}

	bodyA := world.Bodies[0]
	bodyB := world.Bodies[1]

	// Velocities swap along the collision axis
	if !vec3AlmostEqual(bodyA.LinearVelocity, mgl64.Vec3{-3, 0, 0}, 1e-9) {
		t.Errorf("BodyA velocity = %v, want [-3 0 0]", bodyA.LinearVelocity)
	}
	if !vec3AlmostEqual(bodyB.LinearVelocity, mgl64.Vec3{3, 0, 0}, 1e-9) {
		t.Errorf("BodyB velocity = %v, want [3 0 0]", bodyB.LinearVelocity)
	}

	// Moved to the impact, then back for the remaining 2/3 s
	if !vec3AlmostEqual(bodyA.Transform.Position, mgl64.Vec3{-1, 0, 0}, 1e-9) {
		t.Errorf("BodyA position = %v, want [-1 0 0]", bodyA.Transform.Position)
	}
	if !vec3AlmostEqual(bodyB.Transform.Position, mgl64.Vec3{4, 0, 0}, 1e-9) {
		t.Errorf("BodyB position = %v, want [4 0 0]", bodyB.Transform.Position)
	}
}

func TestWorld_Update_MomentumConserved(t *testing.T) {
	world := NewWorld(mgl64.Vec3{})
	a := createSphere(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{4, 1, 0}, 0.5, 1)
	b := createSphere(mgl64.Vec3{2, 0.3, 0}, mgl64.Vec3{-1, 0, 0}, 0.5, 0.5)
	a.Material = actor.Material{Elasticity: 0.7, Friction: 0.3}
	b.Material = actor.Material{Elasticity: 0.9, Friction: 0.3}
	world.AddBody(a)
	world.AddBody(b)

	momentum := func() mgl64.Vec3 {
		return a.LinearVelocity.Mul(a.Mass()).Add(b.LinearVelocity.Mul(b.Mass()))
	}
	before := momentum()

	for i := 0; i < 60; i++ {
		world.Update(1.0 / 60.0)
	}

	if !vec3AlmostEqual(momentum(), before, 1e-9) {
		t.Errorf("momentum = %v, want %v", momentum(), before)
	}
}

func TestWorld_Update_ChronologicalResolution(t *testing.T) {
	// A hits B, which then hits C: a cradle passes the velocity down the line
	world := NewWorld(mgl64.Vec3{})
	a := createSphere(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{6, 0, 0}, 0.5, 1)
	b := createSphere(mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{}, 0.5, 1)
	c := createSphere(mgl64.Vec3{3, 0, 0}, mgl64.Vec3{}, 0.5, 1)
	world.AddBody(c)
	world.AddBody(b)
	world.AddBody(a)

	for i := 0; i < 120; i++ {
		world.Update(1.0 / 60.0)
	}

	if !vec3AlmostEqual(a.LinearVelocity, mgl64.Vec3{}, 1e-9) {
		t.Errorf("A velocity = %v, want 0", a.LinearVelocity)
	}
	if !vec3AlmostEqual(b.LinearVelocity, mgl64.Vec3{}, 1e-9) {
		t.Errorf("B velocity = %v, want 0", b.LinearVelocity)
	}
	if !vec3AlmostEqual(c.LinearVelocity, mgl64.Vec3{6, 0, 0}, 1e-9) {
		t.Errorf("C velocity = %v, want [6 0 0]", c.LinearVelocity)
	}

	if !vec3AlmostEqual(a.Transform.Position, mgl64.Vec3{0.5, 0, 0}, 1e-6) {
		t.Errorf("A position = %v, want [0.5 0 0]", a.Transform.Position)
	}
	if !vec3AlmostEqual(b.Transform.Position, mgl64.Vec3{2, 0, 0}, 1e-6) {
		t.Errorf("B position = %v, want [2 0 0]", b.Transform.Position)
	}
	if !vec3AlmostEqual(c.Transform.Position, mgl64.Vec3{14, 0, 0}, 1e-6) {
		t.Errorf("C position = %v, want [14 0 0]", c.Transform.Position)
	}
}

func TestWorld_Update_ContactsInTimeOrder(t *testing.T) {
	world := NewWorld(mgl64.Vec3{})
	// Late pair first in the body list
	world.AddBody(createSphere(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 0.5, 1))
	world.AddBody(createSphere(mgl64.Vec3{1.8, 0, 0}, mgl64.Vec3{}, 0.5, 1))
	world.AddBody(createSphere(mgl64.Vec3{0, 50, 0}, mgl64.Vec3{1, 0, 0}, 0.5, 1))
	world.AddBody(createSphere(mgl64.Vec3{1.2, 50, 0}, mgl64.Vec3{}, 0.5, 1))

	var times []float64
	world.Events.Subscribe(CONTACT, func(event Event) {
		times = append(times, event.(ContactEvent).TimeOfImpact)
	})

	world.Update(1.0)

	if len(times) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(times))
	}
	if !almostEqual(times[0], 0.2, 1e-9) || !almostEqual(times[1], 0.8, 1e-9) {
		t.Errorf("contact times = %v, want [0.2 0.8]", times)
	}
}

func TestWorld_Update_NoTunneling(t *testing.T) {
	const dt = 1.0 / 60.0

	world := NewWorld(mgl64.Vec3{})
	bullet := createSphere(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{600, 0, 0}, 0.5, 1)
	wall := createSphere(mgl64.Vec3{5, 0, 0}, mgl64.Vec3{}, 0.5, 0)
	world.AddBody(bullet)
	world.AddBody(wall)

	world.Update(dt)

	if bullet.LinearVelocity.X() >= 0 {
		t.Errorf("bullet went through the wall, velocity %v", bullet.LinearVelocity)
	}
	// Bounced at x=4 after 4/600 s, then travelled back for 6/600 s
	if !vec3AlmostEqual(bullet.Transform.Position, mgl64.Vec3{-2, 0, 0}, 1e-9) {
		t.Errorf("bullet position = %v, want [-2 0 0]", bullet.Transform.Position)
	}
}

func TestWorld_Update_InfiniteFrictionStaysFinite(t *testing.T) {
	for _, other := range []float64{0, 0.5} {
		world := NewWorld(mgl64.Vec3{})
		a := createSphere(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{3, 1, 0}, 0.5, 1)
		b := createSphere(mgl64.Vec3{3, 0.2, 0}, mgl64.Vec3{-3, 0, 0}, 0.5, 1)
		a.Material.Friction = math.Inf(1)
		b.Material.Friction = other
		world.AddBody(a)
		world.AddBody(b)

		world.Update(1.0)

		for _, body := range world.Bodies {
			for i := 0; i < 3; i++ {
				if math.IsNaN(body.LinearVelocity[i]) || math.IsInf(body.LinearVelocity[i], 0) ||
					math.IsNaN(body.Transform.Position[i]) || math.IsInf(body.Transform.Position[i], 0) {
					t.Fatalf("friction %v: body %d state is not finite: %v %v", other, body.Index, body.Transform.Position, body.LinearVelocity)
				}
			}
		}
	}
}

func TestWorld_Update_RestingOnStatic(t *testing.T) {
	world := NewWorld(mgl64.Vec3{0, 0, -10})
	ground := createSphere(mgl64.Vec3{0, 0, -1000}, mgl64.Vec3{}, 1000, 0)
	ball := createSphere(mgl64.Vec3{0, 0, 2}, mgl64.Vec3{}, 0.5, 1)
	ground.Material = actor.Material{Elasticity: 0.5, Friction: 0.5}
	ball.Material = actor.Material{Elasticity: 0.5, Friction: 0.5}
	world.AddBody(ground)
	world.AddBody(ball)

	for i := 0; i < 600; i++ {
		world.Update(1.0 / 60.0)
	}

	// The ball never sinks through the ground by more than one step of fall
	if z := ball.Transform.Position.Z(); z < 0.5-10.0/60.0/60.0-1e-6 {
		t.Errorf("ball sank into the ground, z = %v", z)
	}
}

// =============================================================================
// Events Through World Tests
// =============================================================================

func TestWorld_Update_CollisionEvents(t *testing.T) {
	world := NewWorld(mgl64.Vec3{})
	world.Initialize(sceneFunc(headOnScene))

	capture := &eventCapture{}
	world.Events.Subscribe(COLLISION_ENTER, capture.capture)
	world.Events.Subscribe(COLLISION_EXIT, capture.capture)

	world.Update(1.0)
	if !capture.hasEventType(COLLISION_ENTER) {
		t.Error("Expected COLLISION_ENTER on the step of the impact")
	}

	capture.reset()
	world.Update(1.0)
	if !capture.hasEventType(COLLISION_EXIT) {
		t.Error("Expected COLLISION_EXIT once the bodies are apart")
	}
}

// =============================================================================
// Helpers
// =============================================================================

type bodyState struct {
	position        mgl64.Vec3
	orientation     mgl64.Quat
	velocity        mgl64.Vec3
	angularVelocity mgl64.Vec3
}

func snapshot(bodies []*actor.Body) []bodyState {
	states := make([]bodyState, 0, len(bodies))
	for _, b := range bodies {
		states = append(states, bodyState{
			position:        b.Transform.Position,
			orientation:     b.Transform.Orientation,
			velocity:        b.LinearVelocity,
			angularVelocity: b.AngularVelocity,
		})
	}

	return states
}

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func vec3AlmostEqual(a, b mgl64.Vec3, epsilon float64) bool {
	return almostEqual(a.X(), b.X(), epsilon) &&
		almostEqual(a.Y(), b.Y(), epsilon) &&
		almostEqual(a.Z(), b.Z(), epsilon)
}
