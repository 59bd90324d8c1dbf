// Package intersect implements the continuous narrow phase: it finds whether,
// and when, two bodies touch during a step.
package intersect

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/contact"
	"github.com/go-gl/mathgl/mgl64"
)

// minRelativeSpeedSqr is the squared relative speed under which two bodies are considered at rest
const minRelativeSpeedSqr = 1e-12

// Intersect tests bodyA and bodyB for a collision within [0, dt].
// On success, the returned contact holds the earliest time of impact and the contact geometry
// at that time. Pairs of shapes with no continuous test report no collision.
func Intersect(bodyA, bodyB *actor.Body, dt float64) (contact.Contact, bool) {
	switch {
	case bodyA.Shape.Kind == actor.ShapeKindSphere && bodyB.Shape.Kind == actor.ShapeKindSphere:
		return sphereSphere(bodyA, bodyB, dt)
	}

	return contact.Contact{}, false
}

func sphereSphere(bodyA, bodyB *actor.Body, dt float64) (contact.Contact, bool) {
	radiusA := bodyA.Shape.Radius
	radiusB := bodyB.Shape.Radius
	velA := velocity(bodyA)
	velB := velocity(bodyB)

	t, ok := SphereSphereTimeOfImpact(
		bodyA.Transform.Position, bodyB.Transform.Position,
		velA, velB,
		radiusA+radiusB, dt,
	)
	if !ok {
		return contact.Contact{}, false
	}

	// Positions at the time of impact
	posA := bodyA.Transform.Position.Add(velA.Mul(t))
	posB := bodyB.Transform.Position.Add(velB.Mul(t))

	ab := posB.Sub(posA)
	distance := ab.Len()

	normal := contactNormal(ab, distance, velB.Sub(velA))
	pointOnA := posA.Add(normal.Mul(radiusA))
	pointOnB := posB.Sub(normal.Mul(radiusB))

	c := contact.Contact{
		BodyA:              bodyA,
		BodyB:              bodyB,
		PointOnA:           pointOnA,
		PointOnB:           pointOnB,
		Normal:             normal,
		SeparationDistance: distance - (radiusA + radiusB),
		TimeOfImpact:       t,
	}

	// Local points are taken with the bodies posed at the time of impact
	c.LocalPointOnA = bodyFrameAt(bodyA, posA, t).ToLocal(pointOnA)
	c.LocalPointOnB = bodyFrameAt(bodyB, posB, t).ToLocal(pointOnB)

	return c, true
}

// SphereSphereTimeOfImpact returns the earliest t in [0, dt] at which two spheres,
// moving at constant velocity, are separated by exactly radiusSum.
// Spheres already overlapping report t = 0.
func SphereSphereTimeOfImpact(posA, posB, velA, velB mgl64.Vec3, radiusSum, dt float64) (float64, bool) {
	// |d + v*t|² = R²  <=>  (v·v) t² + 2(d·v) t + (d·d - R²) = 0
	d := posB.Sub(posA)
	v := velB.Sub(velA)

	c := d.Dot(d) - radiusSum*radiusSum
	if c <= 0 {
		return 0, true
	}

	a := v.Dot(v)
	if a < minRelativeSpeedSqr {
		return 0, false
	}

	b := 2 * d.Dot(v)
	if b >= 0 {
		// Moving apart, or tangentially
		return 0, false
	}

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0, false
	}

	// q has the sign of b, avoiding the cancellation of -b + sqrt(disc)
	q := -0.5 * (b - math.Sqrt(discriminant))
	t := min(q/a, c/q)

	if t < 0 || t > dt || math.IsNaN(t) {
		return 0, false
	}

	return t, true
}

// velocity is the velocity the body is integrated with: static bodies never move
func velocity(body *actor.Body) mgl64.Vec3 {
	if body.IsStatic() {
		return mgl64.Vec3{}
	}

	return body.LinearVelocity
}

// contactNormal returns the unit vector from A to B.
// When the centres coincide, it falls back to the relative velocity, then to +Z.
func contactNormal(ab mgl64.Vec3, distance float64, relativeVelocity mgl64.Vec3) mgl64.Vec3 {
	if distance > 1e-9 {
		return ab.Mul(1.0 / distance)
	}

	if speed := relativeVelocity.Len(); speed > 1e-9 {
		return relativeVelocity.Mul(-1.0 / speed)
	}

	return mgl64.Vec3{0, 0, 1}
}

// bodyFrameAt predicts the centre of mass frame of body after t seconds
func bodyFrameAt(body *actor.Body, position mgl64.Vec3, t float64) actor.Transform {
	orientation := body.Transform.Orientation

	if !body.IsStatic() {
		dAngle := body.AngularVelocity.Mul(t)
		if angle := dAngle.Len(); angle > 1e-12 {
			orientation = mgl64.QuatRotate(angle, dAngle.Mul(1.0/angle)).Mul(orientation).Normalize()
		}
	}

	return actor.Transform{
		Position:    position.Add(orientation.Rotate(body.GetCenterOfMassBodySpace())),
		Orientation: orientation,
	}
}
