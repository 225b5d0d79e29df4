package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"

	"shipnav/route"
	"shipnav/search"
	"shipnav/tables"
)

// Granularity selects the search used for curved movement.
type Granularity string

const (
	// Plain8 plans a coarse 8-direction path first and then searches for
	// a curved path restricted to it.
	Plain8 Granularity = "plain8"
	// Directional48 runs the full 48-neighbour curved search.
	Directional48 Granularity = "directional48"
)

// Smoothing selects the post-processing of the waypoints.
type Smoothing string

const (
	SmoothMerge Smoothing = "merge"
	SmoothCurve Smoothing = "curve"
)

type Config struct {
	Curved      bool        `json:"curved"`
	Granularity Granularity `json:"granularity"`
	Smoothing   Smoothing   `json:"smoothing"`
	Discretize  bool        `json:"discretize"`

	TurnRadius float64 `json:"turn_radius"` // tiles
	Width      float64 `json:"width"`       // tiles
	RayStep    float64 `json:"ray_step"`    // tiles

	// WindowSize is the side of the square search neighbourhood in tiles.
	WindowSize   int     `json:"window_size"`
	OOBPolicy    string  `json:"oob_policy"` // block, allow or tolerate
	OOBTolerance float64 `json:"oob_tolerance"`
	MaxWaypoints int     `json:"max_waypoints"`
	MaxBridge    float64 `json:"max_bridge"` // tiles

	CacheSize     int           `json:"cache_size"`
	CacheTTL      time.Duration `json:"cache_ttl"`
	PoolSize      int           `json:"pool_size"`
	TableCacheDir string        `json:"table_cache_dir"`
}

func DefaultConfig() Config {
	return Config{
		Curved:       true,
		Granularity:  Plain8,
		Smoothing:    SmoothCurve,
		TurnRadius:   2,
		Width:        0.8,
		RayStep:      route.DefaultRayStep,
		WindowSize:   search.DefaultWindowSize,
		OOBPolicy:    route.OOBBlock.String(),
		MaxWaypoints: search.DefaultMaxWaypoints,
		MaxBridge:    12,
		CacheSize:    256,
		CacheTTL:     10 * time.Minute,
		PoolSize:     4,
	}
}

// LoadConfig reads a JSON config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

var errConfig = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errConfig, fmt.Sprintf(format, args...))
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var err error
	switch c.Granularity {
	case Plain8, Directional48:
	default:
		err = multierr.Append(err, invalid("granularity %q", c.Granularity))
	}
	switch c.Smoothing {
	case SmoothMerge, SmoothCurve:
	default:
		err = multierr.Append(err, invalid("smoothing %q", c.Smoothing))
	}
	if c.TurnRadius < 0 {
		err = multierr.Append(err, invalid("turn_radius %v < 0", c.TurnRadius))
	}
	// the ship must fit in the sub-path window
	if c.Width < 0 || c.Width > 2*tables.Reach {
		err = multierr.Append(err, invalid("width %v outside [0, %d]", c.Width, 2*tables.Reach))
	}
	if c.RayStep <= 0 {
		err = multierr.Append(err, invalid("ray_step %v <= 0", c.RayStep))
	}
	if c.WindowSize < search.MinWindowSize {
		err = multierr.Append(err, invalid("window_size %d < %d", c.WindowSize, search.MinWindowSize))
	}
	if _, ok := route.ParseOOBPolicy(c.OOBPolicy); !ok {
		err = multierr.Append(err, invalid("oob_policy %q", c.OOBPolicy))
	}
	if c.OOBTolerance < 0 {
		err = multierr.Append(err, invalid("oob_tolerance %v < 0", c.OOBTolerance))
	}
	if c.MaxWaypoints < 2 {
		err = multierr.Append(err, invalid("max_waypoints %d < 2", c.MaxWaypoints))
	}
	if c.MaxBridge <= 0 {
		err = multierr.Append(err, invalid("max_bridge %v <= 0", c.MaxBridge))
	}
	if c.CacheSize < 0 || c.PoolSize < 1 {
		err = multierr.Append(err, invalid("cache_size %d, pool_size %d", c.CacheSize, c.PoolSize))
	}
	return err
}

func (c Config) policy() route.OOBPolicy {
	p, _ := route.ParseOOBPolicy(c.OOBPolicy)
	return p
}

func (c Config) tableParams() tables.Params {
	return tables.Params{TurnRadius: c.TurnRadius, Width: c.Width, Discretize: c.Discretize}
}

func (c Config) engineOptions() search.Options {
	return search.Options{
		WindowSize:   c.WindowSize,
		MaxWaypoints: c.MaxWaypoints,
		RayStep:      c.RayStep,
		Policy:       c.policy(),
		Tolerance:    c.OOBTolerance,
	}
}
