// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// Everything here is construction-time configuration; the engine never re-reads it.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Particles ParticlesConfig `yaml:"particles"`
	Grid      GridConfig      `yaml:"grid"`
	Fluid     FluidConfig     `yaml:"fluid"`
	Distance  DistanceConfig  `yaml:"distance"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Scene     SceneConfig     `yaml:"scene"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds integration parameters.
type PhysicsConfig struct {
	DT          float64    `yaml:"dt"`
	Gravity     [3]float64 `yaml:"gravity"`
	Passes      int        `yaml:"passes"`       // parallel constraint passes per tick (must be 1)
	ClampBounds bool       `yaml:"clamp_bounds"` // keep predicted positions inside the grid box
}

// ParticlesConfig sizes the particle index space.
type ParticlesConfig struct {
	Count  int     `yaml:"count"`
	Mass   float64 `yaml:"mass"`   // rest mass used by density summation
	Radius float64 `yaml:"radius"` // solid contact radius; contact distance is 2*radius
}

// GridConfig describes the uniform neighbor grid.
type GridConfig struct {
	Resolution [3]int     `yaml:"resolution"`
	CellWidth  float64    `yaml:"cell_width"`
	Origin     [3]float64 `yaml:"origin"`
}

// FluidConfig holds Position-Based Fluids parameters.
type FluidConfig struct {
	RestDensity  float64 `yaml:"rest_density"`
	Radius       float64 `yaml:"radius"`        // interaction radius h
	Relaxation   float64 `yaml:"relaxation"`    // epsilon added to the lambda denominator
	TensileK     float64 `yaml:"tensile_k"`     // artificial pressure strength
	TensileN     float64 `yaml:"tensile_n"`     // artificial pressure exponent
	TensileDQ    float64 `yaml:"tensile_dq"`    // fraction of h for the reference distance
	Vorticity    float64 `yaml:"vorticity"`     // confinement epsilon
	Viscosity    float64 `yaml:"viscosity"`     // XSPH blend c
	ClampDensity bool    `yaml:"clamp_density"` // ignore under-dense constraint violations
}

// DistanceConfig holds host distance-constraint solver settings.
type DistanceConfig struct {
	Iterations int     `yaml:"iterations"`
	Stiffness  float64 `yaml:"stiffness"`
}

// ExecutorConfig selects the parallel dispatch backend.
type ExecutorConfig struct {
	Backend   string `yaml:"backend"`   // "pool" or "serial"
	Workers   int    `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int    `yaml:"threshold"` // below this many items the pool runs inline
}

// SceneConfig describes the demo scene built by the scene package.
type SceneConfig struct {
	FluidBlock    [3]int     `yaml:"fluid_block"`    // lattice dimensions of the liquid block
	FluidOrigin   [3]float64 `yaml:"fluid_origin"`   // lower corner of the liquid block
	SphereCenter  [3]float64 `yaml:"sphere_center"`  // deformable solid sphere
	SphereRadius  float64    `yaml:"sphere_radius"`  // 0 disables the sphere
	FloorSize     [2]int     `yaml:"floor_size"`     // static floor lattice (x, z)
	Spacing       float64    `yaml:"spacing"`        // lattice spacing for all bodies
	ConveyorSpeed float64    `yaml:"conveyor_speed"` // world-shift per second along x
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // ticks per stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32        float32    // Physics.DT as float32
	H32         float32    // Fluid.Radius as float32
	Gravity32   [3]float32 // Physics.Gravity as float32
	CellCount   int        // product of grid resolution
	WorldMin    [3]float32 // grid origin
	WorldMax    [3]float32 // grid origin + resolution*cell_width
	ContactDist float32    // 2 * particle radius
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()

	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// ComputeDerived recalculates values derived from the loaded config.
// Call it after mutating a Config in code.
func (c *Config) ComputeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.H32 = float32(c.Fluid.Radius)
	c.Derived.ContactDist = float32(2 * c.Particles.Radius)

	cells := 1
	for axis := 0; axis < 3; axis++ {
		c.Derived.Gravity32[axis] = float32(c.Physics.Gravity[axis])
		cells *= c.Grid.Resolution[axis]
		c.Derived.WorldMin[axis] = float32(c.Grid.Origin[axis])
		c.Derived.WorldMax[axis] = float32(c.Grid.Origin[axis] + float64(c.Grid.Resolution[axis])*c.Grid.CellWidth)
	}
	c.Derived.CellCount = cells
}

// ConfigurationError reports a construction-time configuration the engine
// cannot run with. It is fatal: nothing is clamped or repaired.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the construction-time rules the engine relies on.
// Grid geometry is checked by grid.New, which knows the interaction radius.
func (c *Config) Validate() error {
	switch {
	case c.Particles.Count <= 0:
		return invalid("particles.count", "must be positive, got %d", c.Particles.Count)
	case c.Particles.Mass <= 0:
		return invalid("particles.mass", "must be positive, got %g", c.Particles.Mass)
	case c.Physics.DT <= 0:
		return invalid("physics.dt", "must be positive, got %g", c.Physics.DT)
	case c.Physics.Passes != 1:
		return invalid("physics.passes", "is fixed at 1 per tick, got %d", c.Physics.Passes)
	case c.Fluid.RestDensity <= 0:
		return invalid("fluid.rest_density", "must be positive, got %g", c.Fluid.RestDensity)
	case c.Fluid.Relaxation <= 0:
		return invalid("fluid.relaxation", "must be positive, got %g", c.Fluid.Relaxation)
	case c.Fluid.TensileDQ <= 0 || c.Fluid.TensileDQ >= 1:
		return invalid("fluid.tensile_dq", "must be in (0,1), got %g", c.Fluid.TensileDQ)
	case c.Distance.Iterations < 1:
		return invalid("distance.iterations", "must be at least 1, got %d", c.Distance.Iterations)
	case c.Distance.Stiffness < 0 || c.Distance.Stiffness > 1:
		return invalid("distance.stiffness", "must be in [0,1], got %g", c.Distance.Stiffness)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
