// pkg/shape/shape.go

// Package shape defines the closed set of collision primitives used by the
// narrow phase: circles, convex polygons, axis-aligned boxes, and compounds
// of those. A Shape value is an immutable tagged variant; owners build a new
// value whenever their transform changes.
package shape

import (
	"errors"
	"fmt"
	"math"

	"github.com/opd-ai/go-collider/pkg/geom"
)

// Kind discriminates the shape variants
type Kind int

const (
	KindCircle Kind = iota
	KindPolygon
	KindBox
	KindCompound
)

// String returns a readable name for the shape kind
func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindPolygon:
		return "polygon"
	case KindBox:
		return "box"
	case KindCompound:
		return "compound"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Validation errors for degenerate shapes
var (
	ErrNonPositiveRadius  = errors.New("shape: circle radius must be positive")
	ErrDegeneratePolygon  = errors.New("shape: polygon needs at least 3 vertices")
	ErrInvertedBox        = errors.New("shape: box max must exceed min on both axes")
	ErrEmptyCompound      = errors.New("shape: compound needs at least one sub-shape")
	ErrNestedCompound     = errors.New("shape: compound sub-shapes cannot be compounds")
)

// Shape is an immutable geometric primitive. The zero value is a degenerate
// circle and fails Validate.
type Shape struct {
	kind     Kind
	center   geom.Vector2D
	radius   float64
	vertices []geom.Vector2D
	box      geom.AABB
	subs     []Shape
}

// NewCircle builds a circle shape
func NewCircle(center geom.Vector2D, radius float64) Shape {
	return Shape{kind: KindCircle, center: center, radius: radius}
}

// NewPolygon builds a convex polygon shape from vertices in counterclockwise
// order. The slice is copied.
func NewPolygon(vertices []geom.Vector2D) Shape {
	verts := make([]geom.Vector2D, len(vertices))
	copy(verts, vertices)
	return Shape{kind: KindPolygon, vertices: verts}
}

// NewBox builds an axis-aligned box shape
func NewBox(box geom.AABB) Shape {
	return Shape{kind: KindBox, box: box}
}

// NewCompound builds a compound shape from sub-shapes. The slice is copied.
func NewCompound(subs ...Shape) Shape {
	copied := make([]Shape, len(subs))
	copy(copied, subs)
	return Shape{kind: KindCompound, subs: copied}
}

// Kind returns the variant discriminator
func (s Shape) Kind() Kind { return s.kind }

// Center returns the circle center; zero for other kinds
func (s Shape) Center() geom.Vector2D { return s.center }

// Radius returns the circle radius; zero for other kinds
func (s Shape) Radius() float64 { return s.radius }

// Vertices returns the polygon vertices; nil for other kinds. Callers must
// not mutate the returned slice.
func (s Shape) Vertices() []geom.Vector2D { return s.vertices }

// Box returns the box extents; zero for other kinds
func (s Shape) Box() geom.AABB { return s.box }

// Subshapes returns the compound members; nil for other kinds. Callers must
// not mutate the returned slice.
func (s Shape) Subshapes() []Shape { return s.subs }

// Validate reports whether the shape is usable by the narrow phase
func (s Shape) Validate() error {
	switch s.kind {
	case KindCircle:
		if s.radius <= 0 {
			return ErrNonPositiveRadius
		}
	case KindPolygon:
		if len(s.vertices) < 3 {
			return ErrDegeneratePolygon
		}
	case KindBox:
		if s.box.Max.X <= s.box.Min.X || s.box.Max.Y <= s.box.Min.Y {
			return ErrInvertedBox
		}
	case KindCompound:
		if len(s.subs) == 0 {
			return ErrEmptyCompound
		}
		for _, sub := range s.subs {
			if sub.kind == KindCompound {
				return ErrNestedCompound
			}
			if err := sub.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Bounds returns the tight axis-aligned bounding box of the shape
func (s Shape) Bounds() geom.AABB {
	switch s.kind {
	case KindCircle:
		return geom.AABBFromCenter(s.center, s.radius, s.radius)
	case KindPolygon:
		if len(s.vertices) == 0 {
			return geom.AABB{}
		}
		bounds := geom.AABB{Min: s.vertices[0], Max: s.vertices[0]}
		for _, v := range s.vertices[1:] {
			bounds.Min.X = math.Min(bounds.Min.X, v.X)
			bounds.Min.Y = math.Min(bounds.Min.Y, v.Y)
			bounds.Max.X = math.Max(bounds.Max.X, v.X)
			bounds.Max.Y = math.Max(bounds.Max.Y, v.Y)
		}
		return bounds
	case KindBox:
		return s.box
	case KindCompound:
		if len(s.subs) == 0 {
			return geom.AABB{}
		}
		bounds := s.subs[0].Bounds()
		for _, sub := range s.subs[1:] {
			bounds = bounds.Union(sub.Bounds())
		}
		return bounds
	}
	return geom.AABB{}
}

// Centroid returns the geometric center of the shape
func (s Shape) Centroid() geom.Vector2D {
	switch s.kind {
	case KindCircle:
		return s.center
	case KindPolygon:
		var sum geom.Vector2D
		for _, v := range s.vertices {
			sum = sum.Add(v)
		}
		if len(s.vertices) == 0 {
			return geom.Vector2D{}
		}
		return sum.Scale(1 / float64(len(s.vertices)))
	default:
		return s.Bounds().Center()
	}
}

// BoundingCircle returns the center and radius of a circle enclosing the
// shape, used as the narrow-phase fallback for unsupported pairings.
func (s Shape) BoundingCircle() (geom.Vector2D, float64) {
	if s.kind == KindCircle {
		return s.center, s.radius
	}
	bounds := s.Bounds()
	center := bounds.Center()
	radius := 0.5 * math.Hypot(bounds.Width(), bounds.Height())
	return center, radius
}

// Translated returns a copy of the shape shifted by offset
func (s Shape) Translated(offset geom.Vector2D) Shape {
	switch s.kind {
	case KindCircle:
		return NewCircle(s.center.Add(offset), s.radius)
	case KindPolygon:
		verts := make([]geom.Vector2D, len(s.vertices))
		for i, v := range s.vertices {
			verts[i] = v.Add(offset)
		}
		return Shape{kind: KindPolygon, vertices: verts}
	case KindBox:
		return NewBox(s.box.Translated(offset))
	case KindCompound:
		subs := make([]Shape, len(s.subs))
		for i, sub := range s.subs {
			subs[i] = sub.Translated(offset)
		}
		return Shape{kind: KindCompound, subs: subs}
	}
	return s
}

// Contains reports whether the point lies inside the shape
func (s Shape) Contains(p geom.Vector2D) bool {
	switch s.kind {
	case KindCircle:
		return p.DistanceSquared(s.center) <= s.radius*s.radius
	case KindPolygon:
		return PolygonContains(s.vertices, p)
	case KindBox:
		return s.box.Contains(p)
	case KindCompound:
		for _, sub := range s.subs {
			if sub.Contains(p) {
				return true
			}
		}
		return false
	}
	return false
}

// AsPolygon converts a box to its counterclockwise 4-gon; polygons are
// returned unchanged. Other kinds return false.
func (s Shape) AsPolygon() ([]geom.Vector2D, bool) {
	switch s.kind {
	case KindPolygon:
		return s.vertices, true
	case KindBox:
		return []geom.Vector2D{
			{X: s.box.Min.X, Y: s.box.Min.Y},
			{X: s.box.Max.X, Y: s.box.Min.Y},
			{X: s.box.Max.X, Y: s.box.Max.Y},
			{X: s.box.Min.X, Y: s.box.Max.Y},
		}, true
	}
	return nil, false
}

// PolygonContains tests point containment for a convex polygon in either
// winding order by requiring a consistent cross-product sign on every edge.
func PolygonContains(vertices []geom.Vector2D, p geom.Vector2D) bool {
	if len(vertices) < 3 {
		return false
	}
	sign := 0
	for i := range vertices {
		a := vertices[i]
		b := vertices[(i+1)%len(vertices)]
		cross := b.Sub(a).Cross(p.Sub(a))
		if cross > 0 {
			if sign < 0 {
				return false
			}
			sign = 1
		} else if cross < 0 {
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}

// ClosestPointOnSegment returns the point on segment [a, b] nearest to p
func ClosestPointOnSegment(a, b, p geom.Vector2D) geom.Vector2D {
	ab := b.Sub(a)
	lengthSq := ab.LengthSquared()
	if lengthSq == 0 {
		return a
	}
	t := geom.Clamp01(p.Sub(a).Dot(ab) / lengthSq)
	return a.Add(ab.Scale(t))
}

// ClosestBoundaryPoint returns the point on the polygon boundary nearest to
// p, testing every edge and keeping the minimum.
func ClosestBoundaryPoint(vertices []geom.Vector2D, p geom.Vector2D) geom.Vector2D {
	closest := vertices[0]
	best := math.Inf(1)
	for i := range vertices {
		a := vertices[i]
		b := vertices[(i+1)%len(vertices)]
		candidate := ClosestPointOnSegment(a, b, p)
		if d := candidate.DistanceSquared(p); d < best {
			best = d
			closest = candidate
		}
	}
	return closest
}
