// pkg/sim/world.go
package sim

import (
	"context"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-collider/pkg/collision"
	"github.com/opd-ai/go-collider/pkg/config"
	"github.com/opd-ai/go-collider/pkg/diag"
	"github.com/opd-ai/go-collider/pkg/event"
	"github.com/opd-ai/go-collider/pkg/logging"
	"github.com/opd-ai/go-collider/pkg/spatial"
)

// World owns the body pool, the spatial manager, and the collision
// pipeline, and steps them together. All methods are single-threaded.
type World struct {
	pool     *HandlePool
	bodies   map[uint64]*Body
	manager  *spatial.Manager
	pipeline *collision.Pipeline
	bus      *event.Bus
	matrix   *spatial.LayerMatrix
	logger   *logging.Logger
}

// NewWorld creates a world from the given configuration. logger may be
// nil.
func NewWorld(cfg *config.EngineConfig, logger *logging.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	reporter := diag.NewLogReporter(logger)
	manager, err := spatial.NewManager(cfg.Spatial, reporter, logger)
	if err != nil {
		return nil, err
	}

	bus := event.NewEventBus()
	matrix := spatial.NewLayerMatrix()
	pipeline := collision.NewPipeline(cfg.Collision, manager, bus, matrix, reporter, logger)

	return &World{
		pool:     NewHandlePool(),
		bodies:   make(map[uint64]*Body),
		manager:  manager,
		pipeline: pipeline,
		bus:      bus,
		matrix:   matrix,
		logger:   logger,
	}, nil
}

// Bus returns the event bus collision events are published on
func (w *World) Bus() *event.Bus {
	return w.bus
}

// Matrix returns the layer compatibility matrix for game setup
func (w *World) Matrix() *spatial.LayerMatrix {
	return w.matrix
}

// Manager exposes the spatial manager for direct queries
func (w *World) Manager() *spatial.Manager {
	return w.manager
}

// Spawn creates a body from the spec and registers it for collision
func (w *World) Spawn(spec BodySpec) *Body {
	handle := w.pool.Allocate()
	body := newBody(handle, spec)
	w.bodies[handle.Key()] = body
	w.pipeline.Register(body)
	return body
}

// Despawn removes the body synchronously: it leaves every spatial
// structure before Despawn returns, and its handle generation is retired.
func (w *World) Despawn(body *Body) bool {
	key := body.handle.Key()
	if _, ok := w.bodies[key]; !ok {
		return false
	}
	body.active = false
	w.pipeline.Unregister(body)
	delete(w.bodies, key)
	w.pool.Release(body.handle)
	return true
}

// Lookup resolves a handle to its body, or nil when the handle is stale
func (w *World) Lookup(handle spatial.Handle) *Body {
	if !w.pool.Valid(handle) {
		return nil
	}
	return w.bodies[handle.Key()]
}

// BodyCount returns the number of live bodies
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// Step integrates every body and runs one collision frame
func (w *World) Step(deltaTime float64) collision.StepStatistics {
	for _, body := range w.bodies {
		body.Integrate(deltaTime)
	}
	return w.pipeline.Step(deltaTime)
}

// CollisionSystem adapts a World to the ecs.System interface so the
// collision step can run inside an entity-component scheduler.
type CollisionSystem struct {
	world *World
}

// NewCollisionSystem wraps the world for an ecs scheduler
func NewCollisionSystem(world *World) *CollisionSystem {
	return &CollisionSystem{world: world}
}

// Update runs one collision frame
func (s *CollisionSystem) Update(dt float32) {
	s.world.Step(float64(dt))
}

// Remove despawns the body backing the ecs entity, if any
func (s *CollisionSystem) Remove(basic ecs.BasicEntity) {
	for _, body := range s.world.bodies {
		if body.BasicEntity.ID() == basic.ID() {
			s.world.Despawn(body)
			return
		}
	}
	s.world.logger.Debug(context.Background(), "remove for unknown entity", "ecsID", basic.ID())
}
