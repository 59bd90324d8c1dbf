package scenario

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const earthRadius = 10000.0

var builtins = map[string]func() *Scenario{
	"rain":     Rain,
	"petanque": Petanque,
	"headon":   HeadOn,
}

// Builtin returns a new copy of the built-in scenario called name
func Builtin(name string) (*Scenario, error) {
	build, ok := builtins[name]
	if !ok {
		return nil, errors.Errorf("unknown built-in scenario %q, expected one of %v", name, BuiltinNames())
	}

	return build(), nil
}

// BuiltinNames lists the built-in scenarios, sorted
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// earth is a huge immovable sphere, its top is the plane z=0
func earth(friction float64) BodySpec {
	return BodySpec{
		Name:        "earth",
		Shape:       ShapeSpec{Kind: ShapeSphere, Radius: earthRadius},
		Position:    mgl64.Vec3{0, 0, -earthRadius},
		InverseMass: 0,
		Elasticity:  0.5,
		Friction:    friction,
	}
}

// Rain drops a 6x6 grid of balls on the earth, inside a ring of 400 immovable spheres
func Rain() *Scenario {
	s := &Scenario{
		Name:    "rain",
		Gravity: DefaultGravity,
	}

	const radius = 0.5
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			s.Specs = append(s.Specs, BodySpec{
				Name:  fmt.Sprintf("ball-%d-%d", i, j),
				Shape: ShapeSpec{Kind: ShapeSphere, Radius: radius},
				Position: mgl64.Vec3{
					float64(i-1) * radius,
					float64(j-1) * radius * 1.5,
					float64(i+1) * 3,
				},
				LinearVelocity: mgl64.Vec3{0, 0, -10},
				InverseMass:    0.09,
				Elasticity:     0.5,
				Friction:       0.05,
			})
		}
	}

	s.Specs = append(s.Specs, earth(0.5))

	const (
		arenaRadius = 5.0
		arenaGap    = 6.0
		arenaCount  = 400
	)
	for i := 0; i < arenaCount; i++ {
		angle := 2 * math.Pi * float64(i) / arenaCount
		s.Specs = append(s.Specs, BodySpec{
			Name:  fmt.Sprintf("arena-%d", i),
			Shape: ShapeSpec{Kind: ShapeSphere, Radius: arenaRadius},
			Position: mgl64.Vec3{
				math.Cos(angle) * arenaRadius * arenaGap,
				math.Sin(angle) * arenaRadius * arenaGap,
				0,
			},
			InverseMass: 0,
			Elasticity:  0.5,
			Friction:    0.05,
		})
	}

	return s
}

// Petanque lays the cochonnet and the balls of two players at the throwing line.
// The triggers throw them one after the other, the cochonnet first.
func Petanque() *Scenario {
	s := &Scenario{
		Name:    "petanque",
		Gravity: DefaultGravity,
	}

	s.Specs = append(s.Specs, earth(0.6))

	const (
		cochonnetRadius = 0.015
		ballRadius      = 0.038
		ballsCount      = 6
	)
	// Every trigger owns its position
	throwPosition := func() *mgl64.Vec3 {
		return &mgl64.Vec3{0, 0, 1}
	}

	s.Specs = append(s.Specs, BodySpec{
		Name:        "cochonnet",
		Shape:       ShapeSpec{Kind: ShapeSphere, Radius: cochonnetRadius},
		Position:    mgl64.Vec3{-1, 0, cochonnetRadius},
		InverseMass: 1 / 0.015,
		Elasticity:  0.4,
		Friction:    0.4,
	})
	s.Triggers = append(s.Triggers, Trigger{
		Name:           "throw-cochonnet",
		Body:           "cochonnet",
		LinearVelocity: mgl64.Vec3{0, 6, 3},
		Position:       throwPosition(),
	})

	for i := 0; i < ballsCount; i++ {
		name := fmt.Sprintf("ball-%d", i)
		s.Specs = append(s.Specs, BodySpec{
			Name:        name,
			Shape:       ShapeSpec{Kind: ShapeSphere, Radius: ballRadius},
			Position:    mgl64.Vec3{-1.5 - 0.1*float64(i), 0, ballRadius},
			InverseMass: 1 / 0.7,
			Elasticity:  0.2,
			Friction:    0.5,
		})

		// Players alternate, aiming a little left then a little right of the cochonnet
		aim := 0.05 * float64(i%2*2-1)
		s.Triggers = append(s.Triggers, Trigger{
			Name:           "throw-" + name,
			Body:           name,
			LinearVelocity: mgl64.Vec3{aim, 5.5 + 0.1*float64(i/2), 3.5},
			Position:       throwPosition(),
		})
	}

	return s
}

// HeadOn sends two unit spheres against each other, 3 meters apart at 3 m/s each, without gravity
func HeadOn() *Scenario {
	ball := func(name string, x, vx float64) BodySpec {
		return BodySpec{
			Name:           name,
			Shape:          ShapeSpec{Kind: ShapeSphere, Radius: 0.5},
			Position:       mgl64.Vec3{x, 0, 0},
			LinearVelocity: mgl64.Vec3{vx, 0, 0},
			InverseMass:    1,
			Elasticity:     1,
			Friction:       0,
		}
	}

	return &Scenario{
		Name:    "headon",
		Gravity: mgl64.Vec3{},
		Specs: []BodySpec{
			ball("left", 0, 3),
			ball("right", 3, -3),
		},
	}
}
