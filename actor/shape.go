package actor

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind represents the type of collision shape
type ShapeKind uint8

const (
	ShapeKindSphere ShapeKind = iota
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeKindSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// Shape describes the collision volume of a body.
// It is a tagged value: Kind selects which of the fields are meaningful.
// A Shape is held by value in its Body and never shared.
type Shape struct {
	Kind ShapeKind

	// Sphere
	Radius float64
}

// NewSphere creates a sphere shape of the given radius
func NewSphere(radius float64) Shape {
	return Shape{Kind: ShapeKindSphere, Radius: radius}
}

// CenterOfMass returns the center of mass in body space
func (s Shape) CenterOfMass() mgl64.Vec3 {
	switch s.Kind {
	case ShapeKindSphere:
		return mgl64.Vec3{0, 0, 0}
	}

	return mgl64.Vec3{}
}

// InertiaTensor returns the inertia tensor for a unit mass, in body space.
// Scale it by the body mass to get the real tensor.
func (s Shape) InertiaTensor() mgl64.Mat3 {
	switch s.Kind {
	case ShapeKindSphere:
		// Pour une sphère : I = (2/5) * m * r²
		i := (2.0 / 5.0) * s.Radius * s.Radius

		return mgl64.Mat3{
			i, 0, 0,
			0, i, 0,
			0, 0, i,
		}
	}

	return mgl64.Mat3{}
}

// Support returns the furthest point of the shape along direction, in world space,
// pushed outward by bias.
func (s Shape) Support(direction mgl64.Vec3, transform Transform, bias float64) mgl64.Vec3 {
	switch s.Kind {
	case ShapeKindSphere:
		l := direction.Len()
		if l < 1e-12 {
			return transform.Position
		}

		return transform.Position.Add(direction.Mul((s.Radius + bias) / l))
	}

	return transform.Position
}

// Bounds returns the world space axis-aligned bounding box of the shape
func (s Shape) Bounds(transform Transform) AABB {
	switch s.Kind {
	case ShapeKindSphere:
		// Sphere AABB is not affected by rotation, only by position
		radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

		return AABB{
			Min: transform.Position.Sub(radiusVec),
			Max: transform.Position.Add(radiusVec),
		}
	}

	return AABB{Min: transform.Position, Max: transform.Position}
}
