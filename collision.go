package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/contact"
	"github.com/akmonengine/impulse/intersect"
)

// NarrowPhase runs the continuous intersection test on every candidate pair.
// Contacts are appended to buffer, which is returned.
func NarrowPhase(bodies []*actor.Body, pairs []CollisionPair, dt float64, buffer []contact.Contact) []contact.Contact {
	for _, pair := range pairs {
		bodyA := bodies[pair.A]
		bodyB := bodies[pair.B]

		// No response is possible between two immovable bodies
		if bodyA.IsStatic() && bodyB.IsStatic() {
			continue
		}

		if c, ok := intersect.Intersect(bodyA, bodyB, dt); ok {
			buffer = append(buffer, c)
		}
	}

	return buffer
}
