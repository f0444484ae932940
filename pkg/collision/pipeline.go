// pkg/collision/pipeline.go
package collision

import (
	"context"
	"errors"

	"github.com/opd-ai/go-collider/pkg/diag"
	"github.com/opd-ai/go-collider/pkg/event"
	"github.com/opd-ai/go-collider/pkg/geom"
	"github.com/opd-ai/go-collider/pkg/logging"
	"github.com/opd-ai/go-collider/pkg/spatial"
)

// Config tunes the collision pipeline
type Config struct {
	// TriggerLayers marks layers whose contacts emit trigger events and
	// receive no physical response
	TriggerLayers spatial.Layer `json:"triggerLayers"`
	// EvictionFrames is how many frames a stale manifold survives before
	// its contact is considered ended
	EvictionFrames uint64 `json:"evictionFrames"`
	// PenetrationSlop is the overlap depth tolerated without positional
	// correction
	PenetrationSlop float64 `json:"penetrationSlop"`
	// CorrectionPercent is the fraction of excess penetration corrected
	// per step
	CorrectionPercent float64 `json:"correctionPercent"`
}

// DefaultConfig returns the standard pipeline tuning
func DefaultConfig() Config {
	return Config{
		TriggerLayers:     spatial.LayerTriggers,
		EvictionFrames:    3,
		PenetrationSlop:   0.01,
		CorrectionPercent: 0.8,
	}
}

// Validate rejects tunings the resolver cannot run with
func (c Config) Validate() error {
	if c.PenetrationSlop < 0 {
		return errors.New("collision: penetration slop must be non-negative")
	}
	if c.CorrectionPercent < 0 || c.CorrectionPercent > 1 {
		return errors.New("collision: correction percent must be within [0, 1]")
	}
	return nil
}

// withDefaults fills zero-valued tunables with the standard values so a
// partially specified configuration behaves sensibly.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.EvictionFrames == 0 {
		c.EvictionFrames = d.EvictionFrames
	}
	if c.PenetrationSlop == 0 {
		c.PenetrationSlop = d.PenetrationSlop
	}
	if c.CorrectionPercent == 0 {
		c.CorrectionPercent = d.CorrectionPercent
	}
	return c
}

// StepStatistics summarizes one pipeline step
type StepStatistics struct {
	PairsTested    int
	PairsConfirmed int
	ManifoldCount  int
	Frame          uint64
}

// Pipeline runs the per-tick collision sequence: broad-phase candidates,
// narrow-phase confirmation, manifold lifecycle, event dispatch, and
// impulse resolution. It owns the body registry and keeps the spatial
// manager synchronized with body movement.
type Pipeline struct {
	cfg      Config
	manager  *spatial.Manager
	detector *Detector
	cache    *ManifoldCache
	resolver *Resolver
	bus      *event.Bus
	matrix   *spatial.LayerMatrix
	logger   *logging.Logger

	bodies     map[uint64]Body
	prevBounds map[uint64]geom.AABB

	frame uint64
	stats StepStatistics
}

// NewPipeline creates a pipeline over an existing spatial manager. bus,
// matrix, reporter, and logger may be nil; a nil matrix allows all layer
// pairings.
func NewPipeline(cfg Config, manager *spatial.Manager, bus *event.Bus, matrix *spatial.LayerMatrix, reporter diag.Reporter, logger *logging.Logger) *Pipeline {
	cfg = cfg.withDefaults()
	if bus == nil {
		bus = event.NewEventBus()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pipeline{
		cfg:        cfg,
		manager:    manager,
		detector:   NewDetector(reporter),
		cache:      NewManifoldCache(cfg.EvictionFrames),
		resolver:   NewResolver(cfg.PenetrationSlop, cfg.CorrectionPercent),
		bus:        bus,
		matrix:     matrix,
		logger:     logger,
		bodies:     make(map[uint64]Body),
		prevBounds: make(map[uint64]geom.AABB),
	}
}

// Bus returns the event bus contacts are published on
func (p *Pipeline) Bus() *event.Bus {
	return p.bus
}

// Register adds a body to the pipeline and the spatial manager
func (p *Pipeline) Register(body Body) {
	key := body.Handle().Key()
	p.bodies[key] = body
	p.prevBounds[key] = body.Bounds()
	p.manager.Insert(body)
}

// Unregister removes a body. Its open contacts end on the next step's
// sweep with the usual exit events.
func (p *Pipeline) Unregister(body Body) {
	key := body.Handle().Key()
	delete(p.bodies, key)
	delete(p.prevBounds, key)
	p.manager.Remove(body)
}

// Step runs one collision frame over the registered bodies. deltaTime is
// the simulated step in seconds.
func (p *Pipeline) Step(deltaTime float64) StepStatistics {
	p.frame++

	for key, body := range p.bodies {
		prev := p.prevBounds[key]
		p.manager.Update(body, prev)
		p.prevBounds[key] = body.Bounds()
	}

	pairs := p.manager.GetCollisionPairs(p.matrix)
	confirmed := 0

	for _, pair := range pairs {
		a, okA := p.bodies[pair.A.Handle().Key()]
		b, okB := p.bodies[pair.B.Handle().Key()]
		if !okA || !okB {
			continue
		}

		info, hit := p.detector.Check(a, b)
		if !hit {
			continue
		}
		confirmed++

		key := PairKey(a, b)
		manifold := p.cache.Touch(key, info, deltaTime, p.frame)
		isTrigger := p.isTrigger(a, b)

		switch {
		case manifold.State == ManifoldNew && isTrigger:
			p.bus.Publish(event.NewTriggerEvent(event.TriggerEnter, a.Handle(), b.Handle()))
		case manifold.State == ManifoldNew:
			p.bus.Publish(event.NewCollisionEvent(event.CollisionEnter,
				a.Handle(), b.Handle(), info.Contact(), info.Normal, info.Penetration))
		case !isTrigger:
			p.bus.Publish(event.NewCollisionEvent(event.CollisionStay,
				a.Handle(), b.Handle(), info.Contact(), info.Normal, info.Penetration))
		}

		if !isTrigger {
			p.resolver.Resolve(info)
		}
	}

	for _, m := range p.cache.Sweep(p.frame) {
		a, b := m.Info.BodyA, m.Info.BodyB
		if p.isTrigger(a, b) {
			p.bus.Publish(event.NewTriggerEvent(event.TriggerExit, a.Handle(), b.Handle()))
		} else {
			p.bus.Publish(event.NewCollisionEvent(event.CollisionExit,
				a.Handle(), b.Handle(), m.Info.Contact(), m.Info.Normal, 0))
		}
	}

	p.manager.Tick()

	p.stats = StepStatistics{
		PairsTested:    len(pairs),
		PairsConfirmed: confirmed,
		ManifoldCount:  p.cache.Len(),
		Frame:          p.frame,
	}
	if p.frame%600 == 0 {
		p.logger.Debug(context.Background(), "collision step",
			"frame", p.frame,
			"pairsTested", p.stats.PairsTested,
			"pairsConfirmed", p.stats.PairsConfirmed,
			"manifolds", p.stats.ManifoldCount,
		)
	}
	return p.stats
}

// Statistics returns the most recent step summary
func (p *Pipeline) Statistics() StepStatistics {
	return p.stats
}

// isTrigger reports whether either body sits on a trigger layer
func (p *Pipeline) isTrigger(a, b Body) bool {
	combined := a.Layer() | b.Layer()
	return combined.Contains(p.cfg.TriggerLayers)
}
