// pkg/collision/narrowphase.go
package collision

import (
	"math"

	"github.com/opd-ai/go-collider/pkg/diag"
	"github.com/opd-ai/go-collider/pkg/geom"
	"github.com/opd-ai/go-collider/pkg/shape"
)

const contactEpsilon = 1e-9

// Detector runs exact contact tests on broad-phase candidate pairs.
// Degenerate shapes are reported through the diagnostics sink and their
// pairs skipped rather than failing the tick.
type Detector struct {
	reporter diag.Reporter
}

// NewDetector creates a detector. reporter may be nil.
func NewDetector(reporter diag.Reporter) *Detector {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Detector{reporter: reporter}
}

// Check performs the narrow-phase test for one candidate pair. The
// returned normal points from a toward b.
func (d *Detector) Check(a, b Body) (Info, bool) {
	sa := a.CollisionShape()
	sb := b.CollisionShape()

	if err := sa.Validate(); err != nil {
		d.reporter.ReportIssue(diag.InvalidShape, map[string]any{
			"handle": a.Handle().String(),
			"kind":   sa.Kind().String(),
			"error":  err.Error(),
		})
		return Info{}, false
	}
	if err := sb.Validate(); err != nil {
		d.reporter.ReportIssue(diag.InvalidShape, map[string]any{
			"handle": b.Handle().String(),
			"kind":   sb.Kind().String(),
			"error":  err.Error(),
		})
		return Info{}, false
	}

	points, normal, penetration, ok := checkShapes(sa, sb)
	if !ok {
		return Info{}, false
	}

	relNormal := b.Velocity().Sub(a.Velocity()).Dot(normal)
	return Info{
		BodyA:                  a,
		BodyB:                  b,
		Points:                 points,
		Normal:                 normal,
		Penetration:            penetration,
		RelativeNormalVelocity: relNormal,
		Separating:             relNormal > 0,
		Restitution:            CombineRestitution(a, b),
		Friction:               CombineFriction(a, b),
	}, true
}

// checkShapes dispatches on shape kinds. Compounds decompose into their
// sub-shapes and report the deepest contact found.
func checkShapes(a, b shape.Shape) ([]geom.Vector2D, geom.Vector2D, float64, bool) {
	if a.Kind() == shape.KindCompound {
		return checkCompound(a.Subshapes(), b, false)
	}
	if b.Kind() == shape.KindCompound {
		return checkCompound(b.Subshapes(), a, true)
	}

	aPoly, aIsPoly := a.AsPolygon()
	bPoly, bIsPoly := b.AsPolygon()

	switch {
	case a.Kind() == shape.KindCircle && b.Kind() == shape.KindCircle:
		return circleCircle(a.Center(), a.Radius(), b.Center(), b.Radius())
	case a.Kind() == shape.KindCircle && bIsPoly:
		return circlePolygon(a.Center(), a.Radius(), bPoly)
	case aIsPoly && b.Kind() == shape.KindCircle:
		points, normal, pen, ok := circlePolygon(b.Center(), b.Radius(), aPoly)
		return points, normal.Neg(), pen, ok
	case aIsPoly && bIsPoly:
		return polygonPolygon(aPoly, bPoly)
	}

	// Unsupported pairing; approximate with bounding circles
	ca, ra := a.BoundingCircle()
	cb, rb := b.BoundingCircle()
	return circleCircle(ca, ra, cb, rb)
}

// checkCompound tests every sub-shape against other and keeps the deepest
// contact. flipped indicates other is shape A in the pair.
func checkCompound(subs []shape.Shape, other shape.Shape, flipped bool) ([]geom.Vector2D, geom.Vector2D, float64, bool) {
	var (
		bestPoints []geom.Vector2D
		bestNormal geom.Vector2D
		bestPen    float64
		found      bool
	)
	for _, sub := range subs {
		var points []geom.Vector2D
		var normal geom.Vector2D
		var pen float64
		var ok bool
		if flipped {
			points, normal, pen, ok = checkShapes(other, sub)
		} else {
			points, normal, pen, ok = checkShapes(sub, other)
		}
		if ok && (!found || pen > bestPen) {
			bestPoints, bestNormal, bestPen = points, normal, pen
			found = true
		}
	}
	return bestPoints, bestNormal, bestPen, found
}

// circleCircle tests two circles. Exact touching counts as contact with
// zero penetration; coincident centers pick an arbitrary fixed normal
// with full overlap depth.
func circleCircle(ca geom.Vector2D, ra float64, cb geom.Vector2D, rb float64) ([]geom.Vector2D, geom.Vector2D, float64, bool) {
	delta := cb.Sub(ca)
	distSq := delta.LengthSquared()
	reach := ra + rb
	if distSq > reach*reach {
		return nil, geom.Vector2D{}, 0, false
	}

	dist := math.Sqrt(distSq)
	var normal geom.Vector2D
	if dist < contactEpsilon {
		normal = geom.Vector2D{X: 1, Y: 0}
		return []geom.Vector2D{ca}, normal, reach, true
	}
	normal = delta.Scale(1 / dist)
	contact := ca.Add(normal.Scale(ra))
	return []geom.Vector2D{contact}, normal, reach - dist, true
}

// circlePolygon tests a circle (shape A) against a convex polygon
// (shape B). The normal points from the circle toward the polygon.
func circlePolygon(center geom.Vector2D, radius float64, verts []geom.Vector2D) ([]geom.Vector2D, geom.Vector2D, float64, bool) {
	closest := shape.ClosestBoundaryPoint(verts, center)
	delta := closest.Sub(center)
	dist := delta.Length()
	inside := shape.PolygonContains(verts, center)

	if !inside {
		if dist >= radius {
			return nil, geom.Vector2D{}, 0, false
		}
		var normal geom.Vector2D
		if dist < contactEpsilon {
			normal = polygonCentroid(verts).Sub(center).Normalize()
		} else {
			normal = delta.Scale(1 / dist)
		}
		return []geom.Vector2D{closest}, normal, radius - dist, true
	}

	// Center is inside: push the circle out through the nearest edge
	var normal geom.Vector2D
	if dist < contactEpsilon {
		normal = center.Sub(polygonCentroid(verts)).Normalize()
	} else {
		normal = center.Sub(closest).Scale(1 / dist)
	}
	return []geom.Vector2D{closest}, normal, radius + dist, true
}

// polygonPolygon runs SAT over the edge normals of both polygons and, on
// overlap, clips the incident edge against the reference edge to produce
// up to two contact points.
func polygonPolygon(a, b []geom.Vector2D) ([]geom.Vector2D, geom.Vector2D, float64, bool) {
	axis, penetration, ok := leastSeparatingAxis(a, b)
	if !ok {
		return nil, geom.Vector2D{}, 0, false
	}

	// Orient the normal from A toward B
	if polygonCentroid(b).Sub(polygonCentroid(a)).Dot(axis) < 0 {
		axis = axis.Neg()
	}

	refA, refB := supportEdge(a, axis)
	incA, incB := supportEdge(b, axis.Neg())

	points := clipContacts(refA, refB, incA, incB, axis)
	if len(points) == 0 {
		// Clipping degenerated; fall back to the incident edge midpoint
		points = []geom.Vector2D{incA.Lerp(incB, 0.5)}
	}
	return points, axis, penetration, true
}

// leastSeparatingAxis projects both polygons on every edge normal and
// returns the axis of least overlap, or false on any separating axis.
func leastSeparatingAxis(a, b []geom.Vector2D) (geom.Vector2D, float64, bool) {
	var bestAxis geom.Vector2D
	best := math.Inf(1)

	for _, poly := range [2][]geom.Vector2D{a, b} {
		for i := range poly {
			edge := poly[(i+1)%len(poly)].Sub(poly[i])
			axis := edge.Perp().Normalize()
			if axis.LengthSquared() < contactEpsilon {
				continue
			}
			minA, maxA := projectOnto(a, axis)
			minB, maxB := projectOnto(b, axis)
			overlap := math.Min(maxA, maxB) - math.Max(minA, minB)
			if overlap <= 0 {
				return geom.Vector2D{}, 0, false
			}
			if overlap < best {
				best = overlap
				bestAxis = axis
			}
		}
	}
	return bestAxis, best, true
}

// projectOnto returns the interval of the polygon projected on axis
func projectOnto(verts []geom.Vector2D, axis geom.Vector2D) (float64, float64) {
	min := verts[0].Dot(axis)
	max := min
	for _, v := range verts[1:] {
		d := v.Dot(axis)
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}

// supportEdge returns the polygon edge most aligned with direction: the
// edge whose endpoints project furthest along it.
func supportEdge(verts []geom.Vector2D, direction geom.Vector2D) (geom.Vector2D, geom.Vector2D) {
	bestIdx := 0
	best := verts[0].Dot(direction)
	for i, v := range verts[1:] {
		if d := v.Dot(direction); d > best {
			best = d
			bestIdx = i + 1
		}
	}

	n := len(verts)
	prev := verts[(bestIdx+n-1)%n]
	curr := verts[bestIdx]
	next := verts[(bestIdx+1)%n]

	// Pick the neighboring edge more perpendicular to direction
	if math.Abs(curr.Sub(prev).Normalize().Dot(direction)) < math.Abs(next.Sub(curr).Normalize().Dot(direction)) {
		return prev, curr
	}
	return curr, next
}

// clipContacts clips the incident edge against the side planes of the
// reference edge and keeps points at or behind the reference face.
func clipContacts(refA, refB, incA, incB, normal geom.Vector2D) []geom.Vector2D {
	refDir := refB.Sub(refA).Normalize()

	points := []geom.Vector2D{incA, incB}
	points = clipAgainst(points, refDir.Neg(), -refA.Dot(refDir))
	points = clipAgainst(points, refDir, refB.Dot(refDir))

	faceOffset := refA.Dot(normal)
	kept := points[:0]
	for _, p := range points {
		if p.Dot(normal) <= faceOffset+contactEpsilon {
			kept = append(kept, p)
		}
	}
	return kept
}

// clipAgainst clips a point pair against the half-plane dot(p, dir) <= limit
func clipAgainst(points []geom.Vector2D, dir geom.Vector2D, limit float64) []geom.Vector2D {
	if len(points) < 2 {
		return points
	}
	d0 := points[0].Dot(dir) - limit
	d1 := points[1].Dot(dir) - limit

	out := make([]geom.Vector2D, 0, 2)
	if d0 <= 0 {
		out = append(out, points[0])
	}
	if d1 <= 0 {
		out = append(out, points[1])
	}
	if d0*d1 < 0 {
		t := d0 / (d0 - d1)
		out = append(out, points[0].Lerp(points[1], t))
	}
	return out
}

// polygonCentroid averages the vertices
func polygonCentroid(verts []geom.Vector2D) geom.Vector2D {
	var sum geom.Vector2D
	for _, v := range verts {
		sum = sum.Add(v)
	}
	return sum.Scale(1 / float64(len(verts)))
}
