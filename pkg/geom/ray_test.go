// pkg/geom/ray_test.go
package geom

import (
	"math"
	"testing"
)

func TestRay_IntersectCircle(t *testing.T) {
	tests := []struct {
		name      string
		origin    Vector2D
		direction Vector2D
		center    Vector2D
		radius    float64
		expectHit bool
		expectT   float64
	}{
		{
			name:      "head_on_hit",
			origin:    Vector2D{X: 0, Y: 0},
			direction: Vector2D{X: 1, Y: 0},
			center:    Vector2D{X: 10, Y: 0},
			radius:    2,
			expectHit: true,
			expectT:   8,
		},
		{
			name:      "tangent_hit",
			origin:    Vector2D{X: 0, Y: 2},
			direction: Vector2D{X: 1, Y: 0},
			center:    Vector2D{X: 10, Y: 0},
			radius:    2,
			expectHit: true,
			expectT:   10,
		},
		{
			name:      "miss_above",
			origin:    Vector2D{X: 0, Y: 5},
			direction: Vector2D{X: 1, Y: 0},
			center:    Vector2D{X: 10, Y: 0},
			radius:    2,
			expectHit: false,
		},
		{
			name:      "pointing_away",
			origin:    Vector2D{X: 0, Y: 0},
			direction: Vector2D{X: -1, Y: 0},
			center:    Vector2D{X: 10, Y: 0},
			radius:    2,
			expectHit: false,
		},
		{
			name:      "origin_inside",
			origin:    Vector2D{X: 10, Y: 0},
			direction: Vector2D{X: 1, Y: 0},
			center:    Vector2D{X: 10, Y: 0},
			radius:    2,
			expectHit: true,
			expectT:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := NewRay(tt.origin, tt.direction)
			dist, hit := ray.IntersectCircle(tt.center, tt.radius)
			if hit != tt.expectHit {
				t.Fatalf("IntersectCircle() hit = %v, expected %v", hit, tt.expectHit)
			}
			if hit && math.Abs(dist-tt.expectT) > 1e-9 {
				t.Errorf("IntersectCircle() t = %v, expected %v", dist, tt.expectT)
			}
		})
	}
}

func TestRay_IntersectAABB(t *testing.T) {
	box := NewAABB(5, -5, 15, 5)

	tests := []struct {
		name      string
		origin    Vector2D
		direction Vector2D
		expectHit bool
		expectMin float64
	}{
		{
			name:      "head_on",
			origin:    Vector2D{X: 0, Y: 0},
			direction: Vector2D{X: 1, Y: 0},
			expectHit: true,
			expectMin: 5,
		},
		{
			name:      "origin_inside",
			origin:    Vector2D{X: 10, Y: 0},
			direction: Vector2D{X: 1, Y: 0},
			expectHit: true,
			expectMin: 0,
		},
		{
			name:      "miss_parallel",
			origin:    Vector2D{X: 0, Y: 10},
			direction: Vector2D{X: 1, Y: 0},
			expectHit: false,
		},
		{
			name:      "pointing_away",
			origin:    Vector2D{X: 0, Y: 0},
			direction: Vector2D{X: -1, Y: 0},
			expectHit: false,
		},
		{
			name:      "diagonal_hit",
			origin:    Vector2D{X: 0, Y: -10},
			direction: Vector2D{X: 1, Y: 1},
			expectHit: true,
			expectMin: 5 * math.Sqrt2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := NewRay(tt.origin, tt.direction)
			tmin, tmax, hit := ray.IntersectAABB(box)
			if hit != tt.expectHit {
				t.Fatalf("IntersectAABB() hit = %v, expected %v", hit, tt.expectHit)
			}
			if !hit {
				return
			}
			if math.Abs(tmin-tt.expectMin) > 1e-9 {
				t.Errorf("IntersectAABB() tmin = %v, expected %v", tmin, tt.expectMin)
			}
			if tmax < tmin {
				t.Errorf("IntersectAABB() tmax %v < tmin %v", tmax, tmin)
			}
		})
	}
}

func TestRay_PointAt(t *testing.T) {
	ray := NewRay(Vector2D{X: 1, Y: 2}, Vector2D{X: 3, Y: 0})
	p := ray.PointAt(5)
	if math.Abs(p.X-6) > 1e-9 || math.Abs(p.Y-2) > 1e-9 {
		t.Errorf("PointAt(5) = %v, expected (6, 2)", p)
	}
}

func TestRay_SegmentBounds(t *testing.T) {
	ray := NewRay(Vector2D{X: 0, Y: 0}, Vector2D{X: -1, Y: 1})
	bounds := ray.SegmentBounds(math.Sqrt2)

	expected := NewAABB(-1, 0, 0, 1)
	if math.Abs(bounds.Min.X-expected.Min.X) > 1e-9 ||
		math.Abs(bounds.Min.Y-expected.Min.Y) > 1e-9 ||
		math.Abs(bounds.Max.X-expected.Max.X) > 1e-9 ||
		math.Abs(bounds.Max.Y-expected.Max.Y) > 1e-9 {
		t.Errorf("SegmentBounds() = %v, expected %v", bounds, expected)
	}
}
