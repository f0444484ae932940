// cmd/collider-sim/main.go
package main

import (
	"context"
	"flag"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/opd-ai/go-collider/pkg/config"
	"github.com/opd-ai/go-collider/pkg/event"
	"github.com/opd-ai/go-collider/pkg/geom"
	"github.com/opd-ai/go-collider/pkg/logging"
	"github.com/opd-ai/go-collider/pkg/shape"
	"github.com/opd-ai/go-collider/pkg/sim"
	"github.com/opd-ai/go-collider/pkg/spatial"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "config.json", "Path to configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	ticks := flag.Int("ticks", 600, "Number of simulation ticks to run")
	bodies := flag.Int("bodies", 200, "Number of dynamic bodies to spawn")
	seed := flag.Int64("seed", 1, "Random seed for body placement")
	flag.Parse()

	// Create default configuration file if requested
	if *createDefault {
		defaultConfig := config.DefaultConfig()
		if err := config.SaveConfig(defaultConfig, *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	// Load configuration
	var engineConfig *config.EngineConfig

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", *configPath,
		)
		engineConfig = config.DefaultConfig()
		engineConfig.ApplyEnv()
	} else {
		engineConfig, err = config.LoadConfig(*configPath)
		if err != nil {
			logger.Error(ctx, "Failed to load configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
	}

	world, err := sim.NewWorld(engineConfig, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create world", err)
		os.Exit(1)
	}

	// Count collision transitions as the simulation runs
	var enters, stays, exits int
	world.Bus().Subscribe(event.CollisionEnter, func(event.Event) { enters++ })
	world.Bus().Subscribe(event.CollisionStay, func(event.Event) { stays++ })
	world.Bus().Subscribe(event.CollisionExit, func(event.Event) { exits++ })

	spawnArena(world, engineConfig.Spatial.WorldBounds)
	spawnBodies(world, engineConfig.Spatial.WorldBounds, *bodies, *seed)

	logger.Info(ctx, "Simulation starting",
		"ticks", *ticks,
		"bodies", world.BodyCount(),
	)

	const deltaTime = 1.0 / 60.0
	start := time.Now()
	for i := 0; i < *ticks; i++ {
		world.Step(deltaTime)
	}
	elapsed := time.Since(start)

	stats := world.Manager().GetStatistics()
	logger.Info(ctx, "Simulation finished",
		"elapsed", elapsed.String(),
		"ticks", *ticks,
		"enters", enters,
		"stays", stays,
		"exits", exits,
		"grid_objects", stats.GridCount,
		"tree_objects", stats.TreeCount,
		"loose_objects", stats.LooseCount,
		"cache_hit_rate", stats.CacheHitRate,
	)
}

// spawnArena places four static walls just inside the world bounds
func spawnArena(world *sim.World, bounds geom.AABB) {
	const thickness = 10.0
	walls := []geom.AABB{
		geom.NewAABB(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+thickness),
		geom.NewAABB(bounds.Min.X, bounds.Max.Y-thickness, bounds.Max.X, bounds.Max.Y),
		geom.NewAABB(bounds.Min.X, bounds.Min.Y, bounds.Min.X+thickness, bounds.Max.Y),
		geom.NewAABB(bounds.Max.X-thickness, bounds.Min.Y, bounds.Max.X, bounds.Max.Y),
	}
	for _, wall := range walls {
		center := wall.Center()
		local := geom.NewAABB(
			wall.Min.X-center.X, wall.Min.Y-center.Y,
			wall.Max.X-center.X, wall.Max.Y-center.Y,
		)
		world.Spawn(sim.BodySpec{
			Shape:    shape.NewBox(local),
			Position: center,
			Layer:    spatial.LayerTerrain,
			Static:   true,
		})
	}
}

// spawnBodies scatters moving circles across the interior of the world
func spawnBodies(world *sim.World, bounds geom.AABB, count int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	width := bounds.Width() - 100
	height := bounds.Height() - 100

	for i := 0; i < count; i++ {
		pos := geom.Vector2D{
			X: bounds.Min.X + 50 + rng.Float64()*width,
			Y: bounds.Min.Y + 50 + rng.Float64()*height,
		}
		vel := geom.FromAngle(rng.Float64()*2*math.Pi, 1+rng.Float64()*9)
		world.Spawn(sim.BodySpec{
			Shape:       shape.NewCircle(geom.Vector2D{}, 2+rng.Float64()*6),
			Position:    pos,
			Velocity:    vel,
			Layer:       spatial.LayerUnits,
			Mass:        1 + rng.Float64()*4,
			Restitution: 0.5,
			Friction:    0.3,
		})
	}
}
