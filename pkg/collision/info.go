// Package collision implements narrow-phase contact generation, the
// persistent manifold cache, and impulse-based resolution over the
// broad-phase candidates produced by the spatial manager.
package collision

import (
	"math"

	"github.com/opd-ai/go-collider/pkg/geom"
	"github.com/opd-ai/go-collider/pkg/spatial"
)

// Body is the physical view of a collidable object consumed by the
// detector and resolver. Kinematic bodies participate in detection but
// never receive impulses.
type Body interface {
	spatial.Object

	InverseMass() float64
	Restitution() float64
	Friction() float64
	IsKinematic() bool

	ApplyImpulse(impulse geom.Vector2D)
	Translate(delta geom.Vector2D)
}

// Info is one confirmed contact between two bodies. Normal points from A
// toward B; Penetration is the overlap depth along it.
type Info struct {
	BodyA Body
	BodyB Body
	// Points are the contact points, at most two for face-face contact
	Points      []geom.Vector2D
	Normal      geom.Vector2D
	Penetration float64

	// RelativeNormalVelocity is the pair's relative velocity projected on
	// Normal at detection time; positive means the bodies are moving apart.
	RelativeNormalVelocity float64
	// Separating reports whether the bodies were moving apart when the
	// contact was detected. Separating contacts receive no impulse.
	Separating bool
	// Restitution and Friction are the combined material coefficients
	// for the pair.
	Restitution float64
	Friction    float64
}

// Contact returns the representative contact point. With two points it is
// their midpoint.
func (i Info) Contact() geom.Vector2D {
	switch len(i.Points) {
	case 0:
		return i.BodyA.Position().Lerp(i.BodyB.Position(), 0.5)
	case 1:
		return i.Points[0]
	default:
		return i.Points[0].Lerp(i.Points[1], 0.5)
	}
}

// PairKey canonicalizes a body pair into a cache key, ordered so that
// (a,b) and (b,a) collapse to the same key.
func PairKey(a, b Body) [2]uint64 {
	ka, kb := a.Handle().Key(), b.Handle().Key()
	if ka > kb {
		ka, kb = kb, ka
	}
	return [2]uint64{ka, kb}
}

// CombineRestitution mixes the restitution of two bodies. The lower bound
// wins so a perfectly inelastic body stays inelastic against anything.
func CombineRestitution(a, b Body) float64 {
	return math.Min(a.Restitution(), b.Restitution())
}

// CombineFriction mixes friction coefficients geometrically
func CombineFriction(a, b Body) float64 {
	return math.Sqrt(a.Friction() * b.Friction())
}
