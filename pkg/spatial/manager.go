// pkg/spatial/manager.go
package spatial

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-collider/pkg/diag"
	"github.com/opd-ai/go-collider/pkg/geom"
	"github.com/opd-ai/go-collider/pkg/logging"
)

// routeKind identifies which structure holds an object
type routeKind int

const (
	routeGrid routeKind = iota
	routeTree
	routeLoose
	routeSweep
)

func (r routeKind) String() string {
	switch r {
	case routeGrid:
		return "grid"
	case routeTree:
		return "quadtree"
	case routeLoose:
		return "loose"
	case routeSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// Config tunes the spatial manager and its structures. All thresholds are
// tunables, not invariants; the defaults mirror common tick-rate game
// setups.
type Config struct {
	// WorldBounds is the region covered by the tree structures
	WorldBounds geom.AABB `json:"worldBounds"`
	// FastThreshold is the speed (units/sec) above which objects route to
	// the loose tree
	FastThreshold float64 `json:"fastThreshold"`
	// FastLayers route to the loose tree regardless of speed
	FastLayers Layer `json:"fastLayers"`
	// SweepLayers opt into the sweep-and-prune structure
	SweepLayers Layer `json:"sweepLayers"`
	// MaxDepth bounds quadtree subdivision
	MaxDepth int `json:"maxDepth"`
	// MaxObjectsPerNode triggers quadtree subdivision
	MaxObjectsPerNode int `json:"maxObjectsPerNode"`
	// LooseFactor expands loose-tree node bounds over their tight bounds
	LooseFactor float64 `json:"looseFactor"`
	// PredictionHorizonSeconds extrapolates loose-tree insertion bounds
	PredictionHorizonSeconds float64 `json:"predictionHorizonSeconds"`
	// Grid tunes the adaptive grid for static objects
	Grid GridConfig `json:"grid"`
	// OptimizeInterval is the rebalancing cadence in ticks
	OptimizeInterval uint64 `json:"optimizeInterval"`
	// QueryCacheTTLMillis bounds query memoization freshness
	QueryCacheTTLMillis int `json:"queryCacheTTLMillis"`
}

// DefaultConfig returns the standard manager tuning
func DefaultConfig() Config {
	return Config{
		WorldBounds:              geom.NewAABB(-10000, -10000, 10000, 10000),
		FastThreshold:            5.0,
		FastLayers:               LayerBullets | LayerParticles,
		SweepLayers:              LayerNone,
		MaxDepth:                 8,
		MaxObjectsPerNode:        10,
		LooseFactor:              2.0,
		PredictionHorizonSeconds: 0.1,
		Grid:                     DefaultGridConfig(),
		OptimizeInterval:         300,
		QueryCacheTTLMillis:      100,
	}
}

// Validate rejects configurations the manager cannot route with. A failed
// validation is the one hard error this package escalates.
func (c Config) Validate() error {
	if c.WorldBounds.Width() <= 0 || c.WorldBounds.Height() <= 0 {
		return errors.New("spatial: world bounds must have positive extent")
	}
	if c.FastThreshold < 0 {
		return errors.New("spatial: fast threshold must be non-negative")
	}
	if c.MaxDepth < 1 {
		return errors.New("spatial: max depth must be at least 1")
	}
	if c.MaxObjectsPerNode < 1 {
		return errors.New("spatial: max objects per node must be at least 1")
	}
	if c.LooseFactor < 1 {
		return errors.New("spatial: loose factor must be at least 1")
	}
	if c.Grid.CellSize <= 0 || c.Grid.MinCellSize <= 0 || c.Grid.MaxCellSize < c.Grid.MinCellSize {
		return errors.New("spatial: grid cell sizes must be positive and ordered")
	}
	if c.Grid.TargetLoad < 1 {
		return errors.New("spatial: grid target load must be at least 1")
	}
	return nil
}

// RaycastHit is one object struck by a raycast
type RaycastHit struct {
	Object   Object
	Distance float64
	Point    geom.Vector2D
}

// Statistics is a snapshot of manager load, consumed by an external
// performance monitor.
type Statistics struct {
	ObjectCount    int
	GridCount      int
	TreeCount      int
	LooseCount     int
	SweepCount     int
	GridLoadFactor float64
	GridCellSize   float64
	TreeNodeCount  int
	LooseNodeCount int
	CacheHitRate   float64
	Tick           uint64
	LastOptimize   uint64
}

// Manager routes every object to its best-fit broad-phase structure and
// multiplexes queries across all of them. Static objects live in the grid,
// fast or transient objects in the loose tree, everything else in the
// dynamic quadtree; layers may opt into sweep-and-prune. Routing is a pure
// function of current object state and is re-evaluated on every Update.
//
// All methods are single-threaded; Optimize in particular must never run
// concurrently with Insert, Remove, or Query.
type Manager struct {
	cfg   Config
	grid  *AdaptiveSpatialGrid
	tree  *DynamicQuadTree
	loose *LooseQuadTree
	sweep *SweepAndPrune

	routes  map[uint64]routeKind
	objects map[uint64]Object
	cache   *QueryCache

	breaker  *gobreaker.CircuitBreaker
	reporter diag.Reporter
	logger   *logging.Logger

	tick         uint64
	lastOptimize uint64
	scratch      []Object
}

// NewManager creates a manager. reporter and logger may be nil; issues are
// then dropped and logs discarded. Dependencies are injected explicitly;
// there is no process-wide instance.
func NewManager(cfg Config, reporter diag.Reporter, logger *logging.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	m := &Manager{
		cfg:      cfg,
		grid:     NewAdaptiveSpatialGrid(cfg.Grid),
		tree:     NewDynamicQuadTree(cfg.WorldBounds, cfg.MaxDepth, cfg.MaxObjectsPerNode),
		loose:    NewLooseQuadTree(cfg.WorldBounds, cfg.MaxDepth, cfg.MaxObjectsPerNode, cfg.LooseFactor, cfg.PredictionHorizonSeconds),
		sweep:    NewSweepAndPrune(),
		routes:   make(map[uint64]routeKind),
		objects:  make(map[uint64]Object),
		cache:    NewQueryCache(time.Duration(cfg.QueryCacheTTLMillis) * time.Millisecond),
		reporter: reporter,
		logger:   logger,
	}

	m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "spatial-optimize",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "optimize breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return m, nil
}

// structureFor maps a route to its index
func (m *Manager) structureFor(route routeKind) Index {
	switch route {
	case routeGrid:
		return m.grid
	case routeLoose:
		return m.loose
	case routeSweep:
		return m.sweep
	default:
		return m.tree
	}
}

// routeFor is the routing heuristic: static objects go to the grid, fast
// or transient ones to the loose tree, sweep layers to sweep-and-prune,
// everything else to the dynamic quadtree.
func (m *Manager) routeFor(obj Object) routeKind {
	if obj.IsStatic() {
		return routeGrid
	}
	if m.cfg.SweepLayers != LayerNone && obj.Layer().Contains(m.cfg.SweepLayers) {
		return routeSweep
	}
	if obj.Layer().Contains(m.cfg.FastLayers) {
		return routeLoose
	}
	if obj.Velocity().Length() > m.cfg.FastThreshold {
		return routeLoose
	}
	return routeTree
}

// Insert adds the object to the structure its state routes to
func (m *Manager) Insert(obj Object) {
	key := obj.Handle().Key()
	if _, exists := m.routes[key]; exists {
		m.Remove(obj)
	}

	route := m.routeFor(obj)
	m.structureFor(route).Insert(obj)
	m.routes[key] = route
	m.objects[key] = obj
	m.cache.Invalidate()
}

// Remove detaches the object from whichever structure holds it
func (m *Manager) Remove(obj Object) bool {
	key := obj.Handle().Key()
	route, ok := m.routes[key]
	if !ok {
		return false
	}

	removed := m.structureFor(route).Remove(obj)
	if !removed {
		// Tracked route diverged from structure contents; heal by purging
		// the handle from every structure.
		m.reporter.ReportIssue(diag.StructureInconsistency, map[string]any{
			"handle": obj.Handle().String(),
			"route":  route.String(),
		})
		m.grid.Remove(obj)
		m.tree.Remove(obj)
		m.loose.Remove(obj)
		m.sweep.Remove(obj)
	}

	delete(m.routes, key)
	delete(m.objects, key)
	m.cache.Invalidate()
	return true
}

// Update re-evaluates routing for the object and moves it between
// structures when its state changed class. Inactive objects are purged
// lazily here as well as being filtered at query time.
func (m *Manager) Update(obj Object, previous geom.AABB) {
	key := obj.Handle().Key()

	if !obj.IsActive() {
		if _, tracked := m.routes[key]; tracked {
			m.reporter.ReportIssue(diag.StaleReference, map[string]any{
				"handle": obj.Handle().String(),
			})
			m.Remove(obj)
		}
		return
	}

	oldRoute, tracked := m.routes[key]
	newRoute := m.routeFor(obj)

	if !tracked {
		m.Insert(obj)
		return
	}

	if oldRoute != newRoute {
		// Atomic hand-off: remove from the old structure, insert into the
		// new one, nothing observes the object in both.
		m.structureFor(oldRoute).Remove(obj)
		m.structureFor(newRoute).Insert(obj)
		m.routes[key] = newRoute
	} else {
		m.structureFor(oldRoute).Update(obj, previous)
	}
	m.objects[key] = obj
	m.cache.Invalidate()
}

// queryAll unions results across every structure without consulting the
// cache. Results are deduplicated by handle.
func (m *Manager) queryAll(region geom.AABB, out []Object) []Object {
	start := len(out)
	out = m.grid.Query(region, out)
	out = m.tree.Query(region, out)
	out = m.loose.Query(region, out)
	out = m.sweep.Query(region, out)

	seen := make(map[uint64]struct{}, len(out)-start)
	dedup := out[:start]
	for _, obj := range out[start:] {
		key := obj.Handle().Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dedup = append(dedup, obj)
	}
	return dedup
}

// Query returns the active objects whose bounds intersect region and whose
// layer matches mask. Repeated identical queries within the cache TTL are
// served from memo.
func (m *Manager) Query(region geom.AABB, mask Layer) []Object {
	if cached, ok := m.cache.Get(region, mask); ok {
		return cached
	}

	results := m.queryAll(region, nil)
	filtered := results[:0]
	for _, obj := range results {
		if obj.Layer().Contains(mask) {
			filtered = append(filtered, obj)
		}
	}

	m.cache.Put(region, mask, filtered)
	return filtered
}

// QueryRadius returns the active objects whose bounding circle intersects
// the given circle.
func (m *Manager) QueryRadius(center geom.Vector2D, radius float64, mask Layer) []Object {
	region := geom.AABBFromCenter(center, radius, radius)
	candidates := m.Query(region, mask)

	results := make([]Object, 0, len(candidates))
	for _, obj := range candidates {
		reach := radius + obj.BoundingRadius()
		if obj.Position().DistanceSquared(center) <= reach*reach {
			results = append(results, obj)
		}
	}
	return results
}

// Raycast returns every object whose bounding circle the ray strikes
// within maxDistance, sorted ascending by entry distance.
func (m *Manager) Raycast(origin, direction geom.Vector2D, maxDistance float64, mask Layer) []RaycastHit {
	ray := geom.NewRay(origin, direction)
	region := ray.SegmentBounds(maxDistance).Grown(1)
	candidates := m.Query(region, mask)

	hits := make([]RaycastHit, 0, len(candidates))
	for _, obj := range candidates {
		t, ok := ray.IntersectCircle(obj.Position(), obj.BoundingRadius())
		if !ok || t > maxDistance {
			continue
		}
		hits = append(hits, RaycastHit{
			Object:   obj,
			Distance: t,
			Point:    ray.PointAt(t),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

// FindNearest returns the active object closest to point within
// maxDistance, or nil when none qualifies.
func (m *Manager) FindNearest(point geom.Vector2D, maxDistance float64, mask Layer) Object {
	candidates := m.QueryRadius(point, maxDistance, mask)

	var nearest Object
	best := maxDistance * maxDistance
	for _, obj := range candidates {
		if d := obj.Position().DistanceSquared(point); d <= best {
			best = d
			nearest = obj
		}
	}
	return nearest
}

// GetCollisionPairs generates the broad-phase candidate set: every pair of
// active objects whose bounds overlap and whose layers the matrix allows.
// Pairs are canonicalized and deduplicated; static-static pairs are
// skipped. Sweep-routed objects pair among themselves through the endpoint
// sweep; every other object collects candidates with a bounds query
// fan-out. The result is a superset of the truly colliding pairs.
func (m *Manager) GetCollisionPairs(matrix *LayerMatrix) []Pair {
	var pairs []Pair
	for _, pair := range m.sweep.Pairs(nil) {
		if pair.A.IsStatic() && pair.B.IsStatic() {
			continue
		}
		if matrix != nil && !matrix.CanCollide(pair.A.Layer(), pair.B.Layer()) {
			continue
		}
		pairs = append(pairs, pair)
	}

	keys := make([]uint64, 0, len(m.objects))
	for key := range m.objects {
		if m.routes[key] != routeSweep {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		a := m.objects[key]
		if !a.IsActive() {
			continue
		}

		m.scratch = m.queryAll(a.Bounds(), m.scratch[:0])
		for _, b := range m.scratch {
			bKey := b.Handle().Key()
			if bKey == key {
				continue
			}
			// Sweep-routed candidates never take an outer turn, so they
			// pair here regardless of key order.
			if m.routes[bKey] != routeSweep && bKey <= key {
				continue
			}
			if a.IsStatic() && b.IsStatic() {
				continue
			}
			if matrix != nil && !matrix.CanCollide(a.Layer(), b.Layer()) {
				continue
			}
			if a.Bounds().Intersects(b.Bounds()) {
				pairs = append(pairs, NewPair(a, b))
			}
		}
	}
	return pairs
}

// Tick advances the manager's tick counter and runs the rebalancing pass
// on its cadence. Called once per simulation tick in between frames.
func (m *Manager) Tick() {
	m.tick++
	if m.cfg.OptimizeInterval > 0 && m.tick%m.cfg.OptimizeInterval == 0 {
		m.Optimize()
	}
}

// Optimize rebalances the grid cell size and the tree structures. The pass
// runs through a circuit breaker: repeated failures open the breaker and
// the manager keeps operating at its prior configuration until the breaker
// allows another attempt.
func (m *Manager) Optimize() {
	_, err := m.breaker.Execute(func() (result interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("rebalance panic: %v", r)
			}
		}()
		m.grid.Optimize()
		m.tree.Rebalance()
		m.loose.Rebalance()
		return nil, nil
	})
	if err != nil {
		m.reporter.ReportIssue(diag.OptimizationFailure, map[string]any{
			"tick":  m.tick,
			"error": err.Error(),
		})
		m.logger.Error(context.Background(), "spatial optimize failed", err, "tick", m.tick)
		return
	}
	m.lastOptimize = m.tick
	m.cache.Invalidate()
}

// ObjectCount returns the number of tracked objects
func (m *Manager) ObjectCount() int {
	return len(m.objects)
}

// GetStatistics returns a load snapshot across the structures
func (m *Manager) GetStatistics() Statistics {
	return Statistics{
		ObjectCount:    len(m.objects),
		GridCount:      m.grid.Count(),
		TreeCount:      m.tree.Count(),
		LooseCount:     m.loose.Count(),
		SweepCount:     m.sweep.Count(),
		GridLoadFactor: m.grid.LoadFactor(),
		GridCellSize:   m.grid.CellSize(),
		TreeNodeCount:  m.tree.NodeCount(),
		LooseNodeCount: m.loose.NodeCount(),
		CacheHitRate:   m.cache.HitRate(),
		Tick:           m.tick,
		LastOptimize:   m.lastOptimize,
	}
}
