// pkg/spatial/grid.go
package spatial

import (
	"math"

	"github.com/opd-ai/go-collider/pkg/geom"
)

// cellKey addresses one cell of the uniform grid
type cellKey struct {
	X, Y int
}

// AdaptiveSpatialGrid is a hash-bucketed uniform grid. Objects whose bounds
// straddle cell boundaries are members of every overlapped cell; a side
// table from handle to cell list makes removal O(cells touched) without
// scanning buckets. Optimize retunes the cell size toward a target bucket
// load and rebuilds memberships.
type AdaptiveSpatialGrid struct {
	cellSize    float64
	minCellSize float64
	maxCellSize float64
	targetLoad  int

	cells      map[cellKey][]Object
	membership map[uint64][]cellKey
	objects    map[uint64]Object
}

// GridConfig tunes an AdaptiveSpatialGrid
type GridConfig struct {
	CellSize    float64 `json:"cellSize"`
	MinCellSize float64 `json:"minCellSize"`
	MaxCellSize float64 `json:"maxCellSize"`
	TargetLoad  int     `json:"targetLoad"`
}

// DefaultGridConfig returns the standard grid tuning
func DefaultGridConfig() GridConfig {
	return GridConfig{
		CellSize:    64,
		MinCellSize: 4,
		MaxCellSize: 1024,
		TargetLoad:  8,
	}
}

// NewAdaptiveSpatialGrid creates an empty grid
func NewAdaptiveSpatialGrid(cfg GridConfig) *AdaptiveSpatialGrid {
	return &AdaptiveSpatialGrid{
		cellSize:    cfg.CellSize,
		minCellSize: cfg.MinCellSize,
		maxCellSize: cfg.MaxCellSize,
		targetLoad:  cfg.TargetLoad,
		cells:       make(map[cellKey][]Object),
		membership:  make(map[uint64][]cellKey),
		objects:     make(map[uint64]Object),
	}
}

// CellSize returns the current cell edge length
func (g *AdaptiveSpatialGrid) CellSize() float64 {
	return g.cellSize
}

// cellRange returns the inclusive cell coordinates overlapped by bounds
func (g *AdaptiveSpatialGrid) cellRange(bounds geom.AABB) (cellKey, cellKey) {
	min := cellKey{
		X: int(math.Floor(bounds.Min.X / g.cellSize)),
		Y: int(math.Floor(bounds.Min.Y / g.cellSize)),
	}
	max := cellKey{
		X: int(math.Floor(bounds.Max.X / g.cellSize)),
		Y: int(math.Floor(bounds.Max.Y / g.cellSize)),
	}
	return min, max
}

// Insert adds the object to every cell its bounds overlap
func (g *AdaptiveSpatialGrid) Insert(obj Object) {
	key := obj.Handle().Key()
	if _, exists := g.membership[key]; exists {
		g.Remove(obj)
	}

	bounds := obj.Bounds()
	minCell, maxCell := g.cellRange(bounds)

	cells := make([]cellKey, 0, (maxCell.X-minCell.X+1)*(maxCell.Y-minCell.Y+1))
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			ck := cellKey{X: x, Y: y}
			g.cells[ck] = append(g.cells[ck], obj)
			cells = append(cells, ck)
		}
	}

	g.membership[key] = cells
	g.objects[key] = obj
}

// Remove detaches the object from every cell it is a member of
func (g *AdaptiveSpatialGrid) Remove(obj Object) bool {
	key := obj.Handle().Key()
	cells, ok := g.membership[key]
	if !ok {
		return false
	}

	for _, ck := range cells {
		g.cells[ck] = removeFromBucket(g.cells[ck], key)
		if len(g.cells[ck]) == 0 {
			delete(g.cells, ck)
		}
	}

	delete(g.membership, key)
	delete(g.objects, key)
	return true
}

// Update remaps the object if its cell range changed. The previous bounds
// are advisory; membership is tracked in the side table, so a missed update
// is self-healed by a full remove and reinsert.
func (g *AdaptiveSpatialGrid) Update(obj Object, previous geom.AABB) {
	key := obj.Handle().Key()
	cells, ok := g.membership[key]
	if !ok {
		g.Insert(obj)
		return
	}

	minCell, maxCell := g.cellRange(obj.Bounds())
	if sameCellRange(cells, minCell, maxCell) {
		return
	}

	g.Remove(obj)
	g.Insert(obj)
}

// Query appends the active objects whose bounds intersect region to out.
// Candidates are deduplicated across cells and filtered by precise box
// intersection so coarse cells produce no false positives.
func (g *AdaptiveSpatialGrid) Query(region geom.AABB, out []Object) []Object {
	minCell, maxCell := g.cellRange(region)
	seen := make(map[uint64]struct{})

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for _, obj := range g.cells[cellKey{X: x, Y: y}] {
				key := obj.Handle().Key()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				if obj.IsActive() && region.Intersects(obj.Bounds()) {
					out = append(out, obj)
				}
			}
		}
	}
	return out
}

// Count returns the number of tracked objects
func (g *AdaptiveSpatialGrid) Count() int {
	return len(g.objects)
}

// Clear removes all objects
func (g *AdaptiveSpatialGrid) Clear() {
	g.cells = make(map[cellKey][]Object)
	g.membership = make(map[uint64][]cellKey)
	g.objects = make(map[uint64]Object)
}

// LoadFactor returns the average number of memberships per occupied cell
func (g *AdaptiveSpatialGrid) LoadFactor() float64 {
	if len(g.cells) == 0 {
		return 0
	}
	total := 0
	for _, bucket := range g.cells {
		total += len(bucket)
	}
	return float64(total) / float64(len(g.cells))
}

// Optimize retunes the cell size toward the target load: halve when cells
// hold more than twice the target, double when they hold less than half,
// clamped to the configured bounds. A resize rebuilds all memberships.
func (g *AdaptiveSpatialGrid) Optimize() {
	load := g.LoadFactor()
	newSize := g.cellSize

	switch {
	case load > 2*float64(g.targetLoad):
		newSize = g.cellSize / 2
	case load > 0 && load < 0.5*float64(g.targetLoad):
		newSize = g.cellSize * 2
	}

	newSize = math.Max(g.minCellSize, math.Min(g.maxCellSize, newSize))
	if newSize == g.cellSize {
		return
	}

	g.cellSize = newSize
	g.rebuild()
}

// rebuild reinserts every tracked object under the current cell size
func (g *AdaptiveSpatialGrid) rebuild() {
	objects := make([]Object, 0, len(g.objects))
	for _, obj := range g.objects {
		objects = append(objects, obj)
	}

	g.cells = make(map[cellKey][]Object)
	g.membership = make(map[uint64][]cellKey)
	g.objects = make(map[uint64]Object)

	for _, obj := range objects {
		g.Insert(obj)
	}
}

// removeFromBucket deletes the object with the given handle key from a
// bucket, preserving order of the remaining entries.
func removeFromBucket(bucket []Object, key uint64) []Object {
	for i, obj := range bucket {
		if obj.Handle().Key() == key {
			return append(bucket[:i], bucket[i+1:]...)
		}
	}
	return bucket
}

// sameCellRange reports whether the tracked cell list covers exactly the
// rectangle [minCell, maxCell].
func sameCellRange(cells []cellKey, minCell, maxCell cellKey) bool {
	want := (maxCell.X - minCell.X + 1) * (maxCell.Y - minCell.Y + 1)
	if len(cells) != want {
		return false
	}
	for _, ck := range cells {
		if ck.X < minCell.X || ck.X > maxCell.X || ck.Y < minCell.Y || ck.Y > maxCell.Y {
			return false
		}
	}
	return true
}
