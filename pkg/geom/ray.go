// pkg/geom/ray.go
package geom

import "math"

// Ray is a half-line with a unit direction
type Ray struct {
	Origin    Vector2D
	Direction Vector2D
}

// NewRay creates a ray, normalizing the direction
func NewRay(origin, direction Vector2D) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// PointAt returns the point at parameter t along the ray
func (r Ray) PointAt(t float64) Vector2D {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectCircle returns the smallest non-negative parameter at which the
// ray enters the circle. A ray starting inside the circle reports t = 0.
func (r Ray) IntersectCircle(center Vector2D, radius float64) (float64, bool) {
	m := r.Origin.Sub(center)
	b := m.Dot(r.Direction)
	c := m.LengthSquared() - radius*radius

	// Origin outside and pointing away
	if c > 0 && b > 0 {
		return 0, false
	}

	discriminant := b*b - c
	if discriminant < 0 {
		return 0, false
	}

	t := -b - math.Sqrt(discriminant)
	if t < 0 {
		t = 0
	}
	return t, true
}

// IntersectAABB returns the entry and exit parameters of the ray through
// the box using the slab method.
func (r Ray) IntersectAABB(box AABB) (float64, float64, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	for axis := 0; axis < 2; axis++ {
		var origin, dir, lo, hi float64
		if axis == 0 {
			origin, dir, lo, hi = r.Origin.X, r.Direction.X, box.Min.X, box.Max.X
		} else {
			origin, dir, lo, hi = r.Origin.Y, r.Direction.Y, box.Min.Y, box.Max.Y
		}

		if dir == 0 {
			if origin < lo || origin > hi {
				return 0, 0, false
			}
			continue
		}

		t1 := (lo - origin) / dir
		t2 := (hi - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, 0, false
	}
	return math.Max(tmin, 0), tmax, true
}

// SegmentBounds returns the AABB enclosing a segment from origin of length
// maxDistance along the ray.
func (r Ray) SegmentBounds(maxDistance float64) AABB {
	end := r.PointAt(maxDistance)
	return AABB{
		Min: Vector2D{X: math.Min(r.Origin.X, end.X), Y: math.Min(r.Origin.Y, end.Y)},
		Max: Vector2D{X: math.Max(r.Origin.X, end.X), Y: math.Max(r.Origin.Y, end.Y)},
	}
}
