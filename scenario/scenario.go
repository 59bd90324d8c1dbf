// Package scenario describes the initial content of a world declaratively: the bodies it
// starts with, the gravity it runs under, and the triggers that act on it while it runs.
// Scenarios are read from YAML files or taken from the built-in layouts.
package scenario

import (
	"io"
	"math"
	"os"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownShape    = errors.New("unknown shape")
	ErrInvalidBody     = errors.New("invalid body")
	ErrUnknownBody     = errors.New("unknown body")
	ErrUnknownTrigger  = errors.New("unknown trigger")
	ErrImmovableTarget = errors.New("trigger targets an immovable body")
)

// DefaultGravity is used by scenarios that do not set one (m/s²)
var DefaultGravity = mgl64.Vec3{0, 0, -10}

const ShapeSphere = "sphere"

var _ impulse.Scene = (*Scenario)(nil)

type Scenario struct {
	Name     string     `yaml:"name"`
	Gravity  mgl64.Vec3 `yaml:"gravity"`
	Specs    []BodySpec `yaml:"bodies"`
	Triggers []Trigger  `yaml:"triggers,omitempty"`
}

type ShapeSpec struct {
	Kind   string  `yaml:"kind"`
	Radius float64 `yaml:"radius"`
}

// BodySpec is the initial state of one body.
// Orientation is a quaternion (w, x, y, z); left empty, it is the identity.
type BodySpec struct {
	Name            string     `yaml:"name"`
	Shape           ShapeSpec  `yaml:"shape"`
	Position        mgl64.Vec3 `yaml:"position"`
	Orientation     [4]float64 `yaml:"orientation,omitempty"`
	LinearVelocity  mgl64.Vec3 `yaml:"linearVelocity,omitempty"`
	AngularVelocity mgl64.Vec3 `yaml:"angularVelocity,omitempty"`
	// InverseMass of 0 makes the body immovable
	InverseMass float64 `yaml:"inverseMass"`
	Elasticity  float64 `yaml:"elasticity"`
	Friction    float64 `yaml:"friction"`
}

// Load decodes a YAML scenario from r, and validates it.
// Gravity defaults to DefaultGravity when the document does not set it.
func Load(r io.Reader) (*Scenario, error) {
	s := &Scenario{Gravity: DefaultGravity}

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(s); err != nil {
		return nil, errors.Wrap(err, "decoding scenario")
	}

	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "scenario %q", s.Name)
	}

	return s, nil
}

// LoadFile reads the YAML scenario stored at path
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening scenario")
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	return s, nil
}

// Save encodes the scenario as YAML into w
func (s *Scenario) Save(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(s); err != nil {
		return errors.Wrapf(err, "encoding scenario %q", s.Name)
	}

	return errors.WithStack(encoder.Close())
}

// Validate checks every body and trigger of the scenario
func (s *Scenario) Validate() error {
	names := make(map[string]bool, len(s.Specs))
	for i := range s.Specs {
		if err := s.Specs[i].Validate(); err != nil {
			return errors.Wrapf(err, "body #%d", i)
		}
		if name := s.Specs[i].Name; name != "" {
			names[name] = true
		}
	}

	triggers := make(map[string]bool, len(s.Triggers))
	for _, trigger := range s.Triggers {
		if triggers[trigger.Name] {
			return errors.Wrapf(ErrInvalidBody, "trigger %q declared twice", trigger.Name)
		}
		triggers[trigger.Name] = true

		if !isFiniteVec3(trigger.LinearVelocity) || (trigger.Position != nil && !isFiniteVec3(*trigger.Position)) {
			return errors.Wrapf(ErrInvalidBody, "trigger %q: launch state is not finite", trigger.Name)
		}
		if !names[trigger.Body] {
			return errors.Wrapf(ErrUnknownBody, "trigger %q targets %q", trigger.Name, trigger.Body)
		}
	}

	return nil
}

// Bodies builds new bodies from the scenario, in declaration order.
// It panics if a body does not validate: Load and Apply validate the scenario beforehand,
// Validate reports the error to callers building worlds by hand.
func (s *Scenario) Bodies() []*actor.Body {
	bodies := make([]*actor.Body, 0, len(s.Specs))
	for i := range s.Specs {
		body, err := s.Specs[i].Build()
		if err != nil {
			panic(errors.Wrapf(err, "scenario %q: body #%d", s.Name, i))
		}
		bodies = append(bodies, body)
	}

	return bodies
}

// Apply configures the world gravity and populates the world with the scenario.
// The world keeps the scenario, World.Reset brings it back to its initial state.
func (s *Scenario) Apply(world *impulse.World) error {
	if err := s.Validate(); err != nil {
		return errors.Wrapf(err, "scenario %q", s.Name)
	}

	world.Gravity = s.Gravity
	world.Initialize(s)

	return nil
}

// Validate checks the shape and the material of the body
func (b *BodySpec) Validate() error {
	switch b.Shape.Kind {
	case ShapeSphere, "":
		if b.Shape.Radius <= 0 || !isFinite(b.Shape.Radius) {
			return errors.Wrapf(ErrInvalidBody, "%q: radius %v", b.Name, b.Shape.Radius)
		}
	default:
		return errors.Wrapf(ErrUnknownShape, "%q: %q", b.Name, b.Shape.Kind)
	}

	if b.InverseMass < 0 || !isFinite(b.InverseMass) {
		return errors.Wrapf(ErrInvalidBody, "%q: inverse mass %v", b.Name, b.InverseMass)
	}
	if b.Elasticity < 0 || b.Elasticity > 1 || math.IsNaN(b.Elasticity) {
		return errors.Wrapf(ErrInvalidBody, "%q: elasticity %v out of [0, 1]", b.Name, b.Elasticity)
	}
	if b.Friction < 0 || !isFinite(b.Friction) {
		return errors.Wrapf(ErrInvalidBody, "%q: friction %v", b.Name, b.Friction)
	}

	vectors := []struct {
		name  string
		value mgl64.Vec3
	}{
		{"position", b.Position},
		{"linear velocity", b.LinearVelocity},
		{"angular velocity", b.AngularVelocity},
	}
	for _, v := range vectors {
		if !isFiniteVec3(v.value) {
			return errors.Wrapf(ErrInvalidBody, "%q: %s %v", b.Name, v.name, v.value)
		}
	}
	for _, q := range b.Orientation {
		if !isFinite(q) {
			return errors.Wrapf(ErrInvalidBody, "%q: orientation %v", b.Name, b.Orientation)
		}
	}

	return nil
}

// Build returns a new body in the state described by b
func (b *BodySpec) Build() (*actor.Body, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	transform := actor.Transform{
		Position: b.Position,
		Orientation: mgl64.Quat{
			W: b.Orientation[0],
			V: mgl64.Vec3{b.Orientation[1], b.Orientation[2], b.Orientation[3]},
		},
	}

	body := actor.NewBody(transform, actor.NewSphere(b.Shape.Radius), b.InverseMass)
	body.Name = b.Name
	body.LinearVelocity = b.LinearVelocity
	body.AngularVelocity = b.AngularVelocity
	body.Material = actor.Material{
		Elasticity: b.Elasticity,
		Friction:   b.Friction,
	}

	return body, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isFiniteVec3(v mgl64.Vec3) bool {
	return isFinite(v.X()) && isFinite(v.Y()) && isFinite(v.Z())
}
