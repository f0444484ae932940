// pkg/collision/resolver.go
package collision

const frictionStopFactor = 1.0

// Resolver applies impulse-based collision response to confirmed
// contacts. Positional correction is decoupled from the impulse so
// resting stacks do not gain energy from overlap resolution.
type Resolver struct {
	// penetrationSlop is the overlap depth tolerated without correction
	penetrationSlop float64
	// correctionPercent is the fraction of excess penetration corrected
	// per step
	correctionPercent float64
}

// NewResolver creates a resolver with the given correction tuning
func NewResolver(penetrationSlop, correctionPercent float64) *Resolver {
	return &Resolver{
		penetrationSlop:   penetrationSlop,
		correctionPercent: correctionPercent,
	}
}

// Resolve applies the collision impulse and positional correction for one
// contact. Pairs that are already separating receive no impulse, and
// kinematic-kinematic pairs are left untouched.
func (r *Resolver) Resolve(info Info) {
	a, b := info.BodyA, info.BodyB

	invA, invB := a.InverseMass(), b.InverseMass()
	if a.IsKinematic() {
		invA = 0
	}
	if b.IsKinematic() {
		invB = 0
	}
	invSum := invA + invB
	if invSum == 0 {
		return
	}

	// Recomputed live rather than read from the Info snapshot: earlier
	// contacts resolved this step may have changed either velocity.
	relVel := b.Velocity().Sub(a.Velocity())
	velAlongNormal := relVel.Dot(info.Normal)

	if velAlongNormal <= 0 {
		j := -(1 + info.Restitution) * velAlongNormal / invSum

		impulse := info.Normal.Scale(j)
		if !a.IsKinematic() {
			a.ApplyImpulse(impulse.Neg())
		}
		if !b.IsKinematic() {
			b.ApplyImpulse(impulse)
		}

		r.applyFriction(info, invSum, j)
	}

	r.correctPositions(info, invA, invB, invSum)
}

// applyFriction applies a tangential impulse clamped by the Coulomb cone
func (r *Resolver) applyFriction(info Info, invSum, normalImpulse float64) {
	a, b := info.BodyA, info.BodyB

	relVel := b.Velocity().Sub(a.Velocity())
	tangent := relVel.Sub(info.Normal.Scale(relVel.Dot(info.Normal)))
	if tangent.LengthSquared() < contactEpsilon {
		return
	}
	tangent = tangent.Normalize()

	jt := -relVel.Dot(tangent) / invSum
	maxFriction := info.Friction * normalImpulse * frictionStopFactor
	if jt > maxFriction {
		jt = maxFriction
	} else if jt < -maxFriction {
		jt = -maxFriction
	}

	impulse := tangent.Scale(jt)
	if !a.IsKinematic() {
		a.ApplyImpulse(impulse.Neg())
	}
	if !b.IsKinematic() {
		b.ApplyImpulse(impulse)
	}
}

// correctPositions moves the bodies apart proportionally to inverse mass,
// correcting only the penetration beyond the slop threshold.
func (r *Resolver) correctPositions(info Info, invA, invB, invSum float64) {
	depth := info.Penetration - r.penetrationSlop
	if depth <= 0 {
		return
	}

	correction := info.Normal.Scale(depth * r.correctionPercent / invSum)
	if invA > 0 {
		info.BodyA.Translate(correction.Scale(-invA))
	}
	if invB > 0 {
		info.BodyB.Translate(correction.Scale(invB))
	}
}
