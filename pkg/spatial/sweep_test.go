// pkg/spatial/sweep_test.go
package spatial

import (
	"math/rand"
	"testing"

	"github.com/opd-ai/go-collider/pkg/geom"
)

func TestSweepAndPrune_Pairs(t *testing.T) {
	tests := []struct {
		name     string
		objects  []*testObject
		expected int
	}{
		{
			name: "two_overlapping",
			objects: []*testObject{
				newTestCircle(1, 0, 0, 5),
				newTestCircle(2, 6, 0, 5),
			},
			expected: 1,
		},
		{
			name: "x_overlap_y_separated",
			objects: []*testObject{
				newTestCircle(1, 0, 0, 5),
				newTestCircle(2, 0, 100, 5),
			},
			expected: 0,
		},
		{
			name: "x_separated",
			objects: []*testObject{
				newTestCircle(1, 0, 0, 5),
				newTestCircle(2, 100, 0, 5),
			},
			expected: 0,
		},
		{
			name: "three_in_a_cluster",
			objects: []*testObject{
				newTestCircle(1, 0, 0, 5),
				newTestCircle(2, 4, 0, 5),
				newTestCircle(3, 8, 0, 5),
			},
			expected: 3,
		},
		{
			name: "touching_bounds_count",
			objects: []*testObject{
				newTestCircle(1, 0, 0, 5),
				newTestCircle(2, 10, 0, 5),
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSweepAndPrune()
			for _, obj := range tt.objects {
				s.Insert(obj)
			}
			pairs := s.Pairs(nil)
			if len(pairs) != tt.expected {
				t.Errorf("Pairs() = %d, expected %d", len(pairs), tt.expected)
			}
			for _, p := range pairs {
				if p.A.Handle().Key() >= p.B.Handle().Key() {
					t.Errorf("pair %v/%v not canonical", p.A.Handle(), p.B.Handle())
				}
			}
		})
	}
}

func TestSweepAndPrune_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := NewSweepAndPrune()

	objs := make([]*testObject, 0, 60)
	for i := uint32(1); i <= 60; i++ {
		obj := newTestCircle(i, rng.Float64()*400, rng.Float64()*400, 5+rng.Float64()*15)
		objs = append(objs, obj)
		s.Insert(obj)
	}

	expected := make(map[[2]uint64]bool)
	for i := 0; i < len(objs); i++ {
		for j := i + 1; j < len(objs); j++ {
			if objs[i].Bounds().Intersects(objs[j].Bounds()) {
				p := NewPair(objs[i], objs[j])
				expected[[2]uint64{p.A.Handle().Key(), p.B.Handle().Key()}] = true
			}
		}
	}

	got := make(map[[2]uint64]bool)
	for _, p := range s.Pairs(nil) {
		got[[2]uint64{p.A.Handle().Key(), p.B.Handle().Key()}] = true
	}

	if len(got) != len(expected) {
		t.Errorf("Pairs() found %d pairs, brute force found %d", len(got), len(expected))
	}
	for key := range expected {
		if !got[key] {
			t.Errorf("Pairs() missed pair %v", key)
		}
	}
	for key := range got {
		if !expected[key] {
			t.Errorf("Pairs() reported phantom pair %v", key)
		}
	}
}

func TestSweepAndPrune_PairsAfterMovement(t *testing.T) {
	s := NewSweepAndPrune()

	a := newTestCircle(1, 0, 0, 5)
	b := newTestCircle(2, 100, 0, 5)
	s.Insert(a)
	s.Insert(b)

	if pairs := s.Pairs(nil); len(pairs) != 0 {
		t.Fatalf("Pairs() before movement = %d, expected 0", len(pairs))
	}

	// Endpoints are rebuilt from current bounds every sweep
	previous := b.Bounds()
	b.moveTo(6, 0)
	s.Update(b, previous)

	if pairs := s.Pairs(nil); len(pairs) != 1 {
		t.Errorf("Pairs() after movement = %d, expected 1", len(pairs))
	}
}

func TestSweepAndPrune_SkipsInactive(t *testing.T) {
	s := NewSweepAndPrune()

	a := newTestCircle(1, 0, 0, 5)
	b := newTestCircle(2, 6, 0, 5)
	s.Insert(a)
	s.Insert(b)
	a.inactive = true

	if pairs := s.Pairs(nil); len(pairs) != 0 {
		t.Errorf("Pairs() included inactive object: %d pairs", len(pairs))
	}
	if results := s.Query(geom.NewAABB(-10, -10, 10, 10), nil); len(results) != 1 {
		t.Errorf("Query() = %d results, expected only the active object", len(results))
	}
}

func TestSweepAndPrune_RemoveAndCount(t *testing.T) {
	s := NewSweepAndPrune()
	a := newTestCircle(1, 0, 0, 5)
	s.Insert(a)

	if s.Count() != 1 {
		t.Fatalf("Count() = %d, expected 1", s.Count())
	}
	if !s.Remove(a) {
		t.Error("Remove() returned false for tracked object")
	}
	if s.Remove(a) {
		t.Error("Remove() returned true for already removed object")
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d after remove, expected 0", s.Count())
	}
}
