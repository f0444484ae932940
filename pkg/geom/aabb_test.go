// pkg/geom/aabb_test.go
package geom

import (
	"math"
	"testing"
)

func TestAABB_Contains(t *testing.T) {
	box := NewAABB(0, 0, 10, 10)

	tests := []struct {
		name     string
		point    Vector2D
		expected bool
	}{
		{
			name:     "interior_point",
			point:    Vector2D{X: 5, Y: 5},
			expected: true,
		},
		{
			name:     "boundary_point",
			point:    Vector2D{X: 10, Y: 10},
			expected: true,
		},
		{
			name:     "corner_min",
			point:    Vector2D{X: 0, Y: 0},
			expected: true,
		},
		{
			name:     "outside_x",
			point:    Vector2D{X: 11, Y: 5},
			expected: false,
		},
		{
			name:     "outside_y",
			point:    Vector2D{X: 5, Y: -1},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := box.Contains(tt.point); result != tt.expected {
				t.Errorf("Contains(%v) = %v, expected %v", tt.point, result, tt.expected)
			}
		})
	}
}

func TestAABB_Intersects(t *testing.T) {
	box := NewAABB(0, 0, 10, 10)

	tests := []struct {
		name     string
		other    AABB
		expected bool
	}{
		{
			name:     "overlapping",
			other:    NewAABB(5, 5, 15, 15),
			expected: true,
		},
		{
			name:     "contained",
			other:    NewAABB(2, 2, 8, 8),
			expected: true,
		},
		{
			name:     "touching_edge",
			other:    NewAABB(10, 0, 20, 10),
			expected: true,
		},
		{
			name:     "separated_x",
			other:    NewAABB(11, 0, 20, 10),
			expected: false,
		},
		{
			name:     "separated_y",
			other:    NewAABB(0, -20, 10, -1),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := box.Intersects(tt.other); result != tt.expected {
				t.Errorf("Intersects(%v) = %v, expected %v", tt.other, result, tt.expected)
			}
			// Intersection is symmetric
			if result := tt.other.Intersects(box); result != tt.expected {
				t.Errorf("Intersects reversed = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestAABB_ContainsAABB(t *testing.T) {
	box := NewAABB(0, 0, 10, 10)

	if !box.ContainsAABB(NewAABB(2, 2, 8, 8)) {
		t.Error("ContainsAABB() should contain interior box")
	}
	if !box.ContainsAABB(box) {
		t.Error("ContainsAABB() should contain itself")
	}
	if box.ContainsAABB(NewAABB(5, 5, 15, 15)) {
		t.Error("ContainsAABB() should not contain overlapping box")
	}
}

func TestAABB_IntersectsCircle(t *testing.T) {
	box := NewAABB(0, 0, 10, 10)

	tests := []struct {
		name     string
		center   Vector2D
		radius   float64
		expected bool
	}{
		{
			name:     "circle_inside",
			center:   Vector2D{X: 5, Y: 5},
			radius:   1,
			expected: true,
		},
		{
			name:     "circle_overlapping_edge",
			center:   Vector2D{X: 12, Y: 5},
			radius:   3,
			expected: true,
		},
		{
			name:     "circle_outside",
			center:   Vector2D{X: 15, Y: 5},
			radius:   3,
			expected: false,
		},
		{
			name:     "circle_near_corner_miss",
			center:   Vector2D{X: 12, Y: 12},
			radius:   2,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := box.IntersectsCircle(tt.center, tt.radius); result != tt.expected {
				t.Errorf("IntersectsCircle() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestAABB_Union(t *testing.T) {
	a := NewAABB(0, 0, 5, 5)
	b := NewAABB(3, -2, 10, 4)

	union := a.Union(b)
	expected := NewAABB(0, -2, 10, 5)
	if union != expected {
		t.Errorf("Union() = %v, expected %v", union, expected)
	}
}

func TestAABB_Expanded(t *testing.T) {
	box := NewAABB(0, 0, 10, 10)

	expanded := box.Expanded(2.0)
	if expanded.Width() != 20 || expanded.Height() != 20 {
		t.Errorf("Expanded(2) extents = %vx%v, expected 20x20", expanded.Width(), expanded.Height())
	}
	if expanded.Center() != box.Center() {
		t.Errorf("Expanded() moved center to %v", expanded.Center())
	}

	same := box.Expanded(1.0)
	if same != box {
		t.Errorf("Expanded(1) = %v, expected unchanged box", same)
	}
}

func TestAABB_Grown(t *testing.T) {
	box := NewAABB(0, 0, 10, 10)
	grown := box.Grown(2)
	if grown != NewAABB(-2, -2, 12, 12) {
		t.Errorf("Grown(2) = %v", grown)
	}
}

func TestAABB_Dimensions(t *testing.T) {
	box := NewAABB(-2, -3, 4, 5)

	if box.Width() != 6 {
		t.Errorf("Width() = %v, expected 6", box.Width())
	}
	if box.Height() != 8 {
		t.Errorf("Height() = %v, expected 8", box.Height())
	}
	if box.Area() != 48 {
		t.Errorf("Area() = %v, expected 48", box.Area())
	}
	if center := box.Center(); math.Abs(center.X-1) > 1e-9 || math.Abs(center.Y-1) > 1e-9 {
		t.Errorf("Center() = %v, expected (1, 1)", center)
	}
}

func TestAABBFromCenter(t *testing.T) {
	box := AABBFromCenter(Vector2D{X: 5, Y: 5}, 3, 2)
	if box != NewAABB(2, 3, 8, 7) {
		t.Errorf("AABBFromCenter() = %v", box)
	}
}
