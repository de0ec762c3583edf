// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
//
// A Config is a plain value: components receive it at construction and the
// engine takes a copy at the start of every tick, so a live update never
// tears across the sub-steps of a tick.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Neural     NeuralConfig     `yaml:"neural"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings. Width and height also normalize
// segment positions in the observation vector.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds rigid-body world and actuation parameters.
type PhysicsConfig struct {
	Gravity          float64 `yaml:"gravity"`            // Downward (+y) acceleration
	Step             float64 `yaml:"step"`               // Fixed simulation step in seconds
	MaxTorque        float64 `yaml:"max_torque"`         // Motor max force
	MaxMotorVelocity float64 `yaml:"max_motor_velocity"` // Motor rate at |action| = 1
	GroundOffset     float64 `yaml:"ground_offset"`      // Ground line sits this far above the screen bottom
}

// NeuralConfig holds controller architecture parameters.
type NeuralConfig struct {
	HiddenSize int `yaml:"hidden_size"` // Width of both hidden layers

	// LearningRate is accepted for settings-file compatibility only.
	// Nothing reads it: there is no gradient path.
	LearningRate float64 `yaml:"learning_rate"`
}

// EvolutionConfig holds generational loop parameters.
type EvolutionConfig struct {
	BatchSize     int     `yaml:"batch_size"`     // Population size, applied at the next rebuild
	IterationTime float64 `yaml:"iteration_time"` // Generation length in wall-clock seconds
	MutationRate  float64 `yaml:"mutation_rate"`  // Per-weight mutation probability
	Seed          int64   `yaml:"seed"`           // RNG seed (0 = time-based)
}

// CheckpointConfig holds checkpoint store settings.
type CheckpointConfig struct {
	Dir string `yaml:"dir"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	OutputDir           string  `yaml:"output_dir"`            // CSV output directory (empty = disabled)
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Ticks per perf window
	PerfLogInterval     float64 `yaml:"perf_log_interval"`     // Seconds between perf log lines (0 = off)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	StepDuration  time.Duration // Physics.Step as a duration
	IterationTime time.Duration // Evolution.IterationTime as a duration
	TickInterval  time.Duration // Wall-clock interval between driver ticks
	GroundY       float64       // Ground line y coordinate
}

// Sentinel validation errors.
var (
	ErrInvalidScreen      = errors.New("screen dimensions must be positive")
	ErrInvalidStep        = errors.New("physics step must be positive")
	ErrInvalidGravity     = errors.New("gravity and ground offset must be finite")
	ErrInvalidTorque      = errors.New("max torque must be positive")
	ErrInvalidVelocity    = errors.New("max motor velocity must be finite and not negative")
	ErrInvalidHidden      = errors.New("hidden size must be positive")
	ErrInvalidBatch       = errors.New("batch size must be positive")
	ErrInvalidIteration   = errors.New("iteration time must be positive")
	ErrInvalidMutation    = errors.New("mutation rate must be within [0, 1]")
	ErrInvalidTargetFPS   = errors.New("target fps must be positive")
	ErrEmptyCheckpointDir = errors.New("checkpoint dir must not be empty")
)

// Default returns the embedded default configuration.
func Default() Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return *cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks that every parameter is inside its usable range. Float
// checks are written so that NaN fails them.
func (c *Config) Validate() error {
	switch {
	case c.Screen.Width <= 0 || c.Screen.Height <= 0:
		return ErrInvalidScreen
	case c.Screen.TargetFPS <= 0:
		return ErrInvalidTargetFPS
	case !finitePositive(c.Physics.Step):
		return ErrInvalidStep
	case !finite(c.Physics.Gravity) || !finite(c.Physics.GroundOffset):
		return ErrInvalidGravity
	case !finitePositive(c.Physics.MaxTorque):
		return ErrInvalidTorque
	case !finite(c.Physics.MaxMotorVelocity) || c.Physics.MaxMotorVelocity < 0:
		return ErrInvalidVelocity
	case c.Neural.HiddenSize <= 0:
		return ErrInvalidHidden
	case c.Evolution.BatchSize <= 0:
		return ErrInvalidBatch
	case !finitePositive(c.Evolution.IterationTime):
		return ErrInvalidIteration
	case !(c.Evolution.MutationRate >= 0 && c.Evolution.MutationRate <= 1):
		return ErrInvalidMutation
	case c.Checkpoint.Dir == "":
		return ErrEmptyCheckpointDir
	}
	return nil
}

// Refresh validates the config and recomputes derived values. Callers that
// edit a Config in place (live settings updates) call this before handing
// it to the engine.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.StepDuration = seconds(c.Physics.Step)
	c.Derived.IterationTime = seconds(c.Evolution.IterationTime)
	c.Derived.TickInterval = time.Second / time.Duration(c.Screen.TargetFPS)
	c.Derived.GroundY = float64(c.Screen.Height) - c.Physics.GroundOffset
}

// seconds rounds to the nearest nanosecond, so 3600 steps of 1/60 s reach
// a 60 s generation.
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func finitePositive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
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
