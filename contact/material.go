package contact

import (
	"math"

	"github.com/akmonengine/impulse/actor"
)

// CombineElasticity returns the restitution used at a contact between two materials,
// the product of both elasticities clamped to [0, 1]
func CombineElasticity(matA, matB actor.Material) float64 {
	return clamp01(matA.Elasticity) * clamp01(matB.Elasticity)

	// Option 2: Minimum
	//return math.Min(matA.Elasticity, matB.Elasticity)

	// Option 3: Average
	//return (matA.Elasticity + matB.Elasticity) / 2.0
}

// CombineFriction returns the Coulomb coefficient used at a contact between two materials.
// A coefficient that is not finite disables friction.
func CombineFriction(matA, matB actor.Material) float64 {
	friction := max(matA.Friction, 0) * max(matB.Friction, 0)
	if math.IsNaN(friction) || math.IsInf(friction, 0) {
		return 0
	}

	return friction
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return min(max(v, 0), 1)
}
