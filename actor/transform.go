package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and an orientation in 3D space
type Transform struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:    mgl64.Vec3{0, 0, 0},
		Orientation: mgl64.QuatIdent(),
	}
}

// ToWorld maps a point from local space to world space
func (t Transform) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Orientation.Rotate(local))
}

// ToLocal maps a point from world space to local space
func (t Transform) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation.Inverse().Rotate(world.Sub(t.Position))
}
