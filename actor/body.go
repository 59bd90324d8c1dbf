package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxAngularSpeed caps the angular velocity a body can reach through impulses (rad/s)
const MaxAngularSpeed = 30.0

type Material struct {
	Elasticity float64 // 0= no rebound, 1= perfect restitution
	Friction   float64
}

// Body represents a rigid body in the physics simulation
type Body struct {
	Name string
	// Index of the body in the owning world, maintained by the world
	Index int

	Transform Transform

	LinearVelocity  mgl64.Vec3 // m/s
	AngularVelocity mgl64.Vec3 // rad/s

	// InverseMass is 1/mass. Zero denotes an immovable body with infinite mass.
	InverseMass float64
	Material    Material

	Shape Shape
}

// NewBody creates a new body with the given properties.
// The orientation is normalized; a zero quaternion is replaced by the identity.
func NewBody(transform Transform, shape Shape, inverseMass float64) *Body {
	if transform.Orientation.Len() < 1e-12 {
		transform.Orientation = mgl64.QuatIdent()
	}
	transform.Orientation = transform.Orientation.Normalize()

	return &Body{
		Transform:   transform,
		Shape:       shape,
		InverseMass: math.Max(inverseMass, 0),
	}
}

// IsStatic reports whether the body has infinite mass
func (b *Body) IsStatic() bool {
	return b.InverseMass == 0
}

// Mass returns the mass of the body, +Inf for static bodies
func (b *Body) Mass() float64 {
	if b.IsStatic() {
		return math.Inf(1)
	}

	return 1.0 / b.InverseMass
}

func (b *Body) GetCenterOfMassWorldSpace() mgl64.Vec3 {
	return b.Transform.ToWorld(b.Shape.CenterOfMass())
}

func (b *Body) GetCenterOfMassBodySpace() mgl64.Vec3 {
	return b.Shape.CenterOfMass()
}

// WorldSpaceToBodySpace maps a world point into the body frame, centered on the center of mass
func (b *Body) WorldSpaceToBodySpace(worldPoint mgl64.Vec3) mgl64.Vec3 {
	tmp := worldPoint.Sub(b.GetCenterOfMassWorldSpace())

	return b.Transform.Orientation.Inverse().Rotate(tmp)
}

// BodySpaceToWorldSpace maps a point of the body frame, centered on the center of mass, into world space
func (b *Body) BodySpaceToWorldSpace(bodyPoint mgl64.Vec3) mgl64.Vec3 {
	return b.GetCenterOfMassWorldSpace().Add(b.Transform.Orientation.Rotate(bodyPoint))
}

func (b *Body) GetInverseInertiaTensorBodySpace() mgl64.Mat3 {
	if b.IsStatic() {
		return mgl64.Mat3{}
	}

	return b.Shape.InertiaTensor().Inv().Mul(b.InverseMass)
}

// GetInverseInertiaTensorWorldSpace returns R * I_local^(-1) * R^T
func (b *Body) GetInverseInertiaTensorWorldSpace() mgl64.Mat3 {
	if b.IsStatic() {
		return mgl64.Mat3{}
	}

	R := b.Transform.Orientation.Mat4().Mat3()
	return R.Mul3(b.GetInverseInertiaTensorBodySpace()).Mul3(R.Transpose())
}

// ApplyImpulse applies impulse at a world space point
func (b *Body) ApplyImpulse(impulsePoint mgl64.Vec3, impulse mgl64.Vec3) {
	if b.IsStatic() {
		return
	}

	b.ApplyImpulseLinear(impulse)

	r := impulsePoint.Sub(b.GetCenterOfMassWorldSpace())
	b.ApplyImpulseAngular(r.Cross(impulse))
}

// ApplyImpulseLinear changes the linear velocity by impulse * InverseMass
func (b *Body) ApplyImpulseLinear(impulse mgl64.Vec3) {
	if b.IsStatic() {
		return
	}

	b.LinearVelocity = b.LinearVelocity.Add(impulse.Mul(b.InverseMass))
}

// ApplyImpulseAngular changes the angular velocity by I^(-1) * impulse
func (b *Body) ApplyImpulseAngular(impulse mgl64.Vec3) {
	if b.IsStatic() {
		return
	}

	b.AngularVelocity = b.AngularVelocity.Add(b.GetInverseInertiaTensorWorldSpace().Mul3x1(impulse))

	if speed := b.AngularVelocity.Len(); speed > MaxAngularSpeed {
		b.AngularVelocity = b.AngularVelocity.Mul(MaxAngularSpeed / speed)
	}
}

// Update integrates the pose of the body over dt.
// Static bodies are never moved.
func (b *Body) Update(dt float64) {
	if b.IsStatic() || dt == 0 {
		return
	}

	b.Transform.Position = b.Transform.Position.Add(b.LinearVelocity.Mul(dt))

	// Rotation happens around the center of mass, which may differ from the position
	positionCM := b.GetCenterOfMassWorldSpace()
	cmToPosition := b.Transform.Position.Sub(positionCM)

	// ========== GYROSCOPIC TERM ==========
	// Torque free Euler equation: I * dω/dt = -ω × (I * ω)
	R := b.Transform.Orientation.Mat4().Mat3()
	inertia := R.Mul3(b.Shape.InertiaTensor()).Mul3(R.Transpose())
	if inertia.Det() > 1e-12 {
		alpha := inertia.Inv().Mul3x1(b.AngularVelocity.Cross(inertia.Mul3x1(b.AngularVelocity))).Mul(-1)
		b.AngularVelocity = b.AngularVelocity.Add(alpha.Mul(dt))
	}

	// ========== UPDATE QUATERNION ==========
	dAngle := b.AngularVelocity.Mul(dt)
	angle := dAngle.Len()
	if angle > 1e-12 {
		dq := mgl64.QuatRotate(angle, dAngle.Mul(1.0/angle))
		b.Transform.Orientation = dq.Mul(b.Transform.Orientation).Normalize()
		b.Transform.Position = positionCM.Add(dq.Rotate(cmToPosition))
	} else {
		b.Transform.Orientation = b.Transform.Orientation.Normalize()
	}
}

// Bounds returns the world space AABB of the body at its current pose
func (b *Body) Bounds() AABB {
	return b.Shape.Bounds(b.Transform)
}

// SweptBounds returns the AABB covering the body over the next dt seconds,
// grown by margin on every side. Static bodies do not sweep.
func (b *Body) SweptBounds(dt float64, margin float64) AABB {
	bounds := b.Bounds()
	if !b.IsStatic() {
		bounds = bounds.Union(bounds.Translate(b.LinearVelocity.Mul(dt)))
	}

	return bounds.Expand(margin)
}
