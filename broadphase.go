package impulse

import (
	"cmp"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultBroadphaseMargin grows the swept bounds of every body, in meters
const DefaultBroadphaseMargin = 0.01

// sweepAxis is the axis intervals are projected on. The diagonal avoids degenerate
// sweeps when bodies are laid out along a single world axis.
var sweepAxis = mgl64.Vec3{1, 1, 1}.Normalize()

// CollisionPair holds the indices of two bodies that may collide during the step, A < B
type CollisionPair struct {
	A int
	B int
}

type interval struct {
	min    float64
	max    float64
	index  int
	bounds actor.AABB
}

// SweepAndPrune is a single axis sweep and prune broad phase.
// Its buffers are reused from one step to the next.
type SweepAndPrune struct {
	intervals []interval
	pairs     []CollisionPair
}

// FindPairs returns the pairs of bodies whose swept bounds overlap over dt.
// Pairs of static bodies are pruned. The returned slice is reused on the next call.
func (sap *SweepAndPrune) FindPairs(bodies []*actor.Body, dt float64, margin float64) []CollisionPair {
	sap.intervals = sap.intervals[:0]
	sap.pairs = sap.pairs[:0]

	for i, body := range bodies {
		bounds := body.SweptBounds(dt, margin)
		min, max := bounds.Project(sweepAxis)

		sap.intervals = append(sap.intervals, interval{
			min:    min,
			max:    max,
			index:  i,
			bounds: bounds,
		})
	}

	// Ties are broken by index, the sweep must not depend on the body order
	slices.SortFunc(sap.intervals, func(a, b interval) int {
		if c := cmp.Compare(a.min, b.min); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	for i := range sap.intervals {
		a := &sap.intervals[i]

		for j := i + 1; j < len(sap.intervals); j++ {
			b := &sap.intervals[j]
			if b.min > a.max {
				break
			}

			if bodies[a.index].IsStatic() && bodies[b.index].IsStatic() {
				continue
			}
			if !a.bounds.Overlaps(b.bounds) {
				continue
			}

			pair := CollisionPair{A: a.index, B: b.index}
			if pair.A > pair.B {
				pair.A, pair.B = pair.B, pair.A
			}
			sap.pairs = append(sap.pairs, pair)
		}
	}

	return sap.pairs
}
