package contact

import (
	"cmp"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Contact describes a collision between two bodies inside a single step.
// It must not be kept once the step that produced it is over.
type Contact struct {
	BodyA *actor.Body
	BodyB *actor.Body

	PointOnA mgl64.Vec3 // world space, at TimeOfImpact
	PointOnB mgl64.Vec3

	LocalPointOnA mgl64.Vec3 // body space
	LocalPointOnB mgl64.Vec3

	// Normal points from BodyA towards BodyB
	Normal mgl64.Vec3
	// SeparationDistance is negative when the bodies already overlap
	SeparationDistance float64
	// TimeOfImpact is the time in seconds, from the start of the step, at which the bodies touch
	TimeOfImpact float64
}

// Compare orders contacts by ascending time of impact.
// Ties are broken by the indices of the bodies, so that sorting is reproducible.
func Compare(a, b Contact) int {
	if c := cmp.Compare(a.TimeOfImpact, b.TimeOfImpact); c != 0 {
		return c
	}
	if c := cmp.Compare(a.BodyA.Index, b.BodyA.Index); c != 0 {
		return c
	}

	return cmp.Compare(a.BodyB.Index, b.BodyB.Index)
}

// Sort orders contacts chronologically
func Sort(contacts []Contact) {
	slices.SortFunc(contacts, Compare)
}

// IsStatic reports whether neither body can respond to the contact
func (c *Contact) IsStatic() bool {
	return c.BodyA.IsStatic() && c.BodyB.IsStatic()
}

// Resolve applies the collision impulse, and the friction impulse, to both bodies.
// The bodies must have been advanced to TimeOfImpact beforehand.
// Only velocities are modified. It returns the magnitude of the normal impulse,
// zero when the bodies are separating.
func (c *Contact) Resolve() float64 {
	if c.IsStatic() {
		return 0
	}

	bodyA := c.BodyA
	bodyB := c.BodyB

	// Follow the bodies, previous contacts of this step may have changed their path
	c.PointOnA = bodyA.BodySpaceToWorldSpace(c.LocalPointOnA)
	c.PointOnB = bodyB.BodySpaceToWorldSpace(c.LocalPointOnB)

	invMassA := bodyA.InverseMass
	invMassB := bodyB.InverseMass
	IA_inv := bodyA.GetInverseInertiaTensorWorldSpace()
	IB_inv := bodyB.GetInverseInertiaTensorWorldSpace()

	n := c.Normal
	rA := c.PointOnA.Sub(bodyA.GetCenterOfMassWorldSpace())
	rB := c.PointOnB.Sub(bodyB.GetCenterOfMassWorldSpace())

	// ========== Velocities ==========
	vA := bodyA.LinearVelocity.Add(bodyA.AngularVelocity.Cross(rA))
	vB := bodyB.LinearVelocity.Add(bodyB.AngularVelocity.Cross(rB))
	vab := vA.Sub(vB)
	approachSpeed := vab.Dot(n)

	// Separating already: an impulse would pull the bodies together
	if approachSpeed <= 0 {
		return 0
	}

	// ========== NORMAL IMPULSE (restitution) ==========
	angularJA := IA_inv.Mul3x1(rA.Cross(n)).Cross(rA)
	angularJB := IB_inv.Mul3x1(rB.Cross(n)).Cross(rB)
	angularFactor := angularJA.Add(angularJB).Dot(n)

	effectiveMassNormal := invMassA + invMassB + angularFactor
	if effectiveMassNormal < 1e-10 {
		return 0
	}

	elasticity := CombineElasticity(bodyA.Material, bodyB.Material)
	lambdaNormal := (1.0 + elasticity) * approachSpeed / effectiveMassNormal

	normalImpulse := n.Mul(lambdaNormal)
	bodyA.ApplyImpulse(c.PointOnA, normalImpulse.Mul(-1))
	bodyB.ApplyImpulse(c.PointOnB, normalImpulse)

	// ========== TANGENTIAL IMPULSE (friction) ==========
	friction := CombineFriction(bodyA.Material, bodyB.Material)
	if friction <= 0 {
		return lambdaNormal
	}

	tangentVel := vab.Sub(n.Mul(approachSpeed))
	tangentSpeed := tangentVel.Len()
	if tangentSpeed < 1e-6 {
		return lambdaNormal
	}
	tangentDir := tangentVel.Mul(1.0 / tangentSpeed)

	angularTA := IA_inv.Mul3x1(rA.Cross(tangentDir)).Cross(rA)
	angularTB := IB_inv.Mul3x1(rB.Cross(tangentDir)).Cross(rB)
	effectiveMassTangent := invMassA + invMassB + angularTA.Add(angularTB).Dot(tangentDir)
	if effectiveMassTangent < 1e-10 {
		return lambdaNormal
	}

	// Coulomb's law: |J_friction| ≤ μ * |J_normal|
	lambdaTangent := min(friction*tangentSpeed/effectiveMassTangent, friction*lambdaNormal)

	frictionImpulse := tangentDir.Mul(lambdaTangent)
	bodyA.ApplyImpulse(c.PointOnA, frictionImpulse.Mul(-1))
	bodyB.ApplyImpulse(c.PointOnB, frictionImpulse)

	return lambdaNormal
}
