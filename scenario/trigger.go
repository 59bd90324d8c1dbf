package scenario

import (
	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Trigger is an external stimulus: firing it launches the named body.
// Position, when set, teleports the body before it is launched.
type Trigger struct {
	Name           string      `yaml:"name"`
	Body           string      `yaml:"body"`
	LinearVelocity mgl64.Vec3  `yaml:"linearVelocity"`
	Position       *mgl64.Vec3 `yaml:"position,omitempty"`
}

// Trigger returns the trigger called name
func (s *Scenario) Trigger(name string) (Trigger, bool) {
	for _, trigger := range s.Triggers {
		if trigger.Name == name {
			return trigger, true
		}
	}

	return Trigger{}, false
}

// Fire applies the trigger called name to the world.
// Immovable bodies are never targeted: ErrImmovableTarget is returned and the world is left untouched.
func (s *Scenario) Fire(world *impulse.World, name string) error {
	trigger, ok := s.Trigger(name)
	if !ok {
		return errors.Wrapf(ErrUnknownTrigger, "%q", name)
	}

	return trigger.Fire(world)
}

// Fire launches the target body of the trigger
func (t Trigger) Fire(world *impulse.World) error {
	body := findBody(world.Bodies, t.Body)
	if body == nil {
		return errors.Wrapf(ErrUnknownBody, "trigger %q targets %q", t.Name, t.Body)
	}
	if body.IsStatic() {
		return errors.Wrapf(ErrImmovableTarget, "trigger %q targets %q", t.Name, t.Body)
	}

	if t.Position != nil {
		body.Transform.Position = *t.Position
	}
	body.LinearVelocity = t.LinearVelocity
	body.AngularVelocity = mgl64.Vec3{}

	return nil
}

func findBody(bodies []*actor.Body, name string) *actor.Body {
	for _, body := range bodies {
		if body.Name == name {
			return body
		}
	}

	return nil
}
