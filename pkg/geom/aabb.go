// pkg/geom/aabb.go
package geom

import "math"

// AABB is an axis-aligned bounding box described by its minimum and
// maximum corners. A zero AABB is a degenerate point at the origin.
type AABB struct {
	Min Vector2D
	Max Vector2D
}

// NewAABB creates a bounding box from two corner coordinates
func NewAABB(minX, minY, maxX, maxY float64) AABB {
	return AABB{
		Min: Vector2D{X: minX, Y: minY},
		Max: Vector2D{X: maxX, Y: maxY},
	}
}

// AABBFromCenter creates a bounding box from a center point and half extents
func AABBFromCenter(center Vector2D, halfWidth, halfHeight float64) AABB {
	return AABB{
		Min: Vector2D{X: center.X - halfWidth, Y: center.Y - halfHeight},
		Max: Vector2D{X: center.X + halfWidth, Y: center.Y + halfHeight},
	}
}

// Center returns the midpoint of the box
func (b AABB) Center() Vector2D {
	return Vector2D{
		X: (b.Min.X + b.Max.X) * 0.5,
		Y: (b.Min.Y + b.Max.Y) * 0.5,
	}
}

// Width returns the horizontal extent of the box
func (b AABB) Width() float64 {
	return b.Max.X - b.Min.X
}

// Height returns the vertical extent of the box
func (b AABB) Height() float64 {
	return b.Max.Y - b.Min.Y
}

// Area returns the surface area of the box
func (b AABB) Area() float64 {
	return b.Width() * b.Height()
}

// Contains reports whether the point lies inside or on the box boundary
func (b AABB) Contains(p Vector2D) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// ContainsAABB reports whether other lies entirely inside b
func (b AABB) ContainsAABB(other AABB) bool {
	return other.Min.X >= b.Min.X && other.Max.X <= b.Max.X &&
		other.Min.Y >= b.Min.Y && other.Max.Y <= b.Max.Y
}

// Intersects reports whether the two boxes overlap
func (b AABB) Intersects(other AABB) bool {
	return b.Min.X <= other.Max.X && b.Max.X >= other.Min.X &&
		b.Min.Y <= other.Max.Y && b.Max.Y >= other.Min.Y
}

// IntersectsCircle reports whether the box overlaps a circle
func (b AABB) IntersectsCircle(center Vector2D, radius float64) bool {
	closest := Vector2D{
		X: math.Max(b.Min.X, math.Min(center.X, b.Max.X)),
		Y: math.Max(b.Min.Y, math.Min(center.Y, b.Max.Y)),
	}
	return closest.DistanceSquared(center) <= radius*radius
}

// Union returns the smallest box containing both boxes
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: Vector2D{
			X: math.Min(b.Min.X, other.Min.X),
			Y: math.Min(b.Min.Y, other.Min.Y),
		},
		Max: Vector2D{
			X: math.Max(b.Max.X, other.Max.X),
			Y: math.Max(b.Max.Y, other.Max.Y),
		},
	}
}

// Translated returns the box shifted by offset
func (b AABB) Translated(offset Vector2D) AABB {
	return AABB{
		Min: b.Min.Add(offset),
		Max: b.Max.Add(offset),
	}
}

// Expanded returns the box scaled by factor about its center. A factor of
// 1.0 returns the box unchanged; 2.0 doubles each extent.
func (b AABB) Expanded(factor float64) AABB {
	return AABBFromCenter(b.Center(), b.Width()*0.5*factor, b.Height()*0.5*factor)
}

// Grown returns the box with margin added on all four sides
func (b AABB) Grown(margin float64) AABB {
	return AABB{
		Min: Vector2D{X: b.Min.X - margin, Y: b.Min.Y - margin},
		Max: Vector2D{X: b.Max.X + margin, Y: b.Max.Y + margin},
	}
}
