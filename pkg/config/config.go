// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/opd-ai/go-collider/pkg/collision"
	"github.com/opd-ai/go-collider/pkg/spatial"
)

// EngineConfig contains configuration for a collision engine instance
type EngineConfig struct {
	Spatial   spatial.Config   `json:"spatial"`
	Collision collision.Config `json:"collision"`
}

// LoadConfig loads a configuration from a JSON file and applies any
// environment overrides on top.
func LoadConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *EngineConfig, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default engine configuration
func DefaultConfig() *EngineConfig {
	return &EngineConfig{
		Spatial:   spatial.DefaultConfig(),
		Collision: collision.DefaultConfig(),
	}
}

// ApplyEnv overrides tunables from COLLIDER_* environment variables.
// Unset or malformed variables leave the current value in place.
func (c *EngineConfig) ApplyEnv() {
	c.Spatial.FastThreshold = getEnvAsFloatOrDefault("COLLIDER_FAST_THRESHOLD", c.Spatial.FastThreshold)
	c.Spatial.Grid.CellSize = getEnvAsFloatOrDefault("COLLIDER_CELL_SIZE", c.Spatial.Grid.CellSize)
	c.Spatial.MaxDepth = getEnvAsIntOrDefault("COLLIDER_MAX_DEPTH", c.Spatial.MaxDepth)
	c.Spatial.MaxObjectsPerNode = getEnvAsIntOrDefault("COLLIDER_MAX_OBJECTS_PER_NODE", c.Spatial.MaxObjectsPerNode)
	c.Spatial.LooseFactor = getEnvAsFloatOrDefault("COLLIDER_LOOSE_FACTOR", c.Spatial.LooseFactor)
	c.Spatial.QueryCacheTTLMillis = getEnvAsIntOrDefault("COLLIDER_QUERY_CACHE_TTL_MS", c.Spatial.QueryCacheTTLMillis)

	if interval := getEnvAsIntOrDefault("COLLIDER_OPTIMIZE_INTERVAL", int(c.Spatial.OptimizeInterval)); interval >= 0 {
		c.Spatial.OptimizeInterval = uint64(interval)
	}
}

// Validate checks the composed configuration for usability
func (c *EngineConfig) Validate() error {
	if err := c.Spatial.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Collision.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// getEnvOrDefault returns the environment value or the default when unset
func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault parses an integer environment value, falling back
// on the default when unset or malformed.
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvAsFloatOrDefault parses a float environment value, falling back
// on the default when unset or malformed.
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
