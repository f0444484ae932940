// pkg/spatial/grid_test.go
package spatial

import (
	"math/rand"
	"testing"

	"github.com/opd-ai/go-collider/pkg/geom"
)

func testGrid() *AdaptiveSpatialGrid {
	return NewAdaptiveSpatialGrid(DefaultGridConfig())
}

func TestGrid_InsertQuery(t *testing.T) {
	g := testGrid()

	a := newTestCircle(1, 10, 10, 5)
	b := newTestCircle(2, 500, 500, 5)
	g.Insert(a)
	g.Insert(b)

	if g.Count() != 2 {
		t.Fatalf("Count() = %d, expected 2", g.Count())
	}

	results := g.Query(geom.NewAABB(0, 0, 100, 100), nil)
	if len(results) != 1 || results[0].Handle() != a.Handle() {
		t.Errorf("Query() near origin = %d results, expected only object 1", len(results))
	}

	results = g.Query(geom.NewAABB(-1000, -1000, 1000, 1000), nil)
	if len(results) != 2 {
		t.Errorf("Query() full region = %d results, expected 2", len(results))
	}
}

func TestGrid_MultiCellObject(t *testing.T) {
	g := testGrid()

	// Radius 100 at the origin spans multiple 64-unit cells
	big := newTestCircle(1, 0, 0, 100)
	g.Insert(big)

	// Queries touching different cells must each find it exactly once
	for _, region := range []geom.AABB{
		geom.NewAABB(-90, -90, -70, -70),
		geom.NewAABB(70, 70, 90, 90),
		geom.NewAABB(-150, -150, 150, 150),
	} {
		results := g.Query(region, nil)
		count := 0
		for _, obj := range results {
			if obj.Handle() == big.Handle() {
				count++
			}
		}
		if count != 1 {
			t.Errorf("Query(%v) found object %d times, expected once", region, count)
		}
	}

	if !g.Remove(big) {
		t.Fatal("Remove() returned false for tracked object")
	}
	if results := g.Query(geom.NewAABB(-150, -150, 150, 150), nil); len(results) != 0 {
		t.Errorf("Query() after remove = %d results, expected 0", len(results))
	}
}

func TestGrid_Update(t *testing.T) {
	g := testGrid()

	obj := newTestCircle(1, 10, 10, 5)
	g.Insert(obj)

	previous := obj.Bounds()
	obj.moveTo(800, 800)
	g.Update(obj, previous)

	if results := g.Query(geom.NewAABB(0, 0, 100, 100), nil); len(results) != 0 {
		t.Errorf("Query() at old position = %d results, expected 0", len(results))
	}
	if results := g.Query(geom.NewAABB(750, 750, 850, 850), nil); len(results) != 1 {
		t.Errorf("Query() at new position = %d results, expected 1", len(results))
	}
}

func TestGrid_UpdateUntracked_Inserts(t *testing.T) {
	g := testGrid()

	obj := newTestCircle(1, 10, 10, 5)
	g.Update(obj, obj.Bounds())

	if g.Count() != 1 {
		t.Errorf("Update() on untracked object should insert, Count() = %d", g.Count())
	}
}

func TestGrid_InactiveFiltered(t *testing.T) {
	g := testGrid()

	obj := newTestCircle(1, 10, 10, 5)
	g.Insert(obj)
	obj.inactive = true

	if results := g.Query(geom.NewAABB(0, 0, 100, 100), nil); len(results) != 0 {
		t.Errorf("Query() returned %d inactive objects", len(results))
	}
}

func TestGrid_Optimize(t *testing.T) {
	t.Run("shrinks_under_heavy_load", func(t *testing.T) {
		g := NewAdaptiveSpatialGrid(GridConfig{
			CellSize: 64, MinCellSize: 4, MaxCellSize: 1024, TargetLoad: 2,
		})

		// Crowd one cell far beyond twice the target load
		for i := uint32(1); i <= 20; i++ {
			g.Insert(newTestCircle(i, 10, 10, 1))
		}

		before := g.CellSize()
		g.Optimize()
		if g.CellSize() >= before {
			t.Errorf("Optimize() cell size %v, expected smaller than %v", g.CellSize(), before)
		}
		if g.Count() != 20 {
			t.Errorf("Optimize() lost objects: Count() = %d", g.Count())
		}
	})

	t.Run("grows_when_sparse", func(t *testing.T) {
		g := NewAdaptiveSpatialGrid(GridConfig{
			CellSize: 64, MinCellSize: 4, MaxCellSize: 1024, TargetLoad: 8,
		})

		// One object per cell keeps load far below half the target
		for i := uint32(1); i <= 10; i++ {
			g.Insert(newTestCircle(i, float64(i)*500, float64(i)*500, 1))
		}

		before := g.CellSize()
		g.Optimize()
		if g.CellSize() <= before {
			t.Errorf("Optimize() cell size %v, expected larger than %v", g.CellSize(), before)
		}
	})

	t.Run("respects_bounds", func(t *testing.T) {
		g := NewAdaptiveSpatialGrid(GridConfig{
			CellSize: 4, MinCellSize: 4, MaxCellSize: 1024, TargetLoad: 1,
		})
		for i := uint32(1); i <= 20; i++ {
			g.Insert(newTestCircle(i, 1, 1, 1))
		}
		g.Optimize()
		if g.CellSize() < 4 {
			t.Errorf("Optimize() went below min cell size: %v", g.CellSize())
		}
	})

	t.Run("queries_survive_rebuild", func(t *testing.T) {
		g := NewAdaptiveSpatialGrid(GridConfig{
			CellSize: 64, MinCellSize: 4, MaxCellSize: 1024, TargetLoad: 2,
		})
		objs := make([]*testObject, 0, 30)
		for i := uint32(1); i <= 30; i++ {
			obj := newTestCircle(i, float64(i)*3, 10, 1)
			objs = append(objs, obj)
			g.Insert(obj)
		}
		g.Optimize()

		results := g.Query(geom.NewAABB(-10, -10, 200, 200), nil)
		if len(results) != len(objs) {
			t.Errorf("Query() after rebuild = %d results, expected %d", len(results), len(objs))
		}
	})
}

func TestGrid_Clear(t *testing.T) {
	g := testGrid()
	g.Insert(newTestCircle(1, 0, 0, 5))
	g.Clear()
	if g.Count() != 0 {
		t.Errorf("Clear() left Count() = %d", g.Count())
	}
	if results := g.Query(geom.NewAABB(-100, -100, 100, 100), nil); len(results) != 0 {
		t.Errorf("Clear() left %d queryable objects", len(results))
	}
}

func TestGrid_ReinsertReplaces(t *testing.T) {
	g := testGrid()
	obj := newTestCircle(1, 10, 10, 5)
	g.Insert(obj)
	obj.moveTo(500, 500)
	g.Insert(obj)

	if g.Count() != 1 {
		t.Fatalf("duplicate Insert() inflated Count() to %d", g.Count())
	}
	if results := g.Query(geom.NewAABB(0, 0, 100, 100), nil); len(results) != 0 {
		t.Errorf("stale membership survived reinsert: %d results", len(results))
	}
}

func TestGrid_PairsMatchBruteForce(t *testing.T) {
	g := testGrid()
	rng := rand.New(rand.NewSource(11))

	objs := make([]*testObject, 0, 1000)
	for i := uint32(1); i <= 1000; i++ {
		obj := newTestCircle(i, rng.Float64()*2000-1000, rng.Float64()*2000-1000, 1+rng.Float64()*8)
		objs = append(objs, obj)
		g.Insert(obj)
	}

	want := make(map[[2]uint64]bool)
	for i, a := range objs {
		for _, b := range objs[i+1:] {
			if a.Bounds().Intersects(b.Bounds()) {
				want[pairKeyOf(a, b)] = true
			}
		}
	}

	got := make(map[[2]uint64]bool)
	for _, a := range objs {
		for _, b := range g.Query(a.Bounds(), nil) {
			if b.Handle().Key() <= a.Handle().Key() {
				continue
			}
			if a.Bounds().Intersects(b.Bounds()) {
				got[pairKeyOf(a, b)] = true
			}
		}
	}

	if len(got) != len(want) {
		t.Fatalf("grid found %d pairs, brute force found %d", len(got), len(want))
	}
	for key := range want {
		if !got[key] {
			t.Errorf("grid missed pair %v", key)
		}
	}
}

func pairKeyOf(a, b Object) [2]uint64 {
	ka, kb := a.Handle().Key(), b.Handle().Key()
	if ka > kb {
		ka, kb = kb, ka
	}
	return [2]uint64{ka, kb}
}
