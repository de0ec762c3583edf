package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Screen.Width != 800 || cfg.Screen.Height != 600 {
		t.Errorf("screen = %dx%d, want 800x600", cfg.Screen.Width, cfg.Screen.Height)
	}
	if cfg.Evolution.BatchSize != 32 {
		t.Errorf("batch_size = %d, want 32", cfg.Evolution.BatchSize)
	}
	if cfg.Evolution.MutationRate != 0.05 {
		t.Errorf("mutation_rate = %v, want 0.05", cfg.Evolution.MutationRate)
	}
	if cfg.Neural.HiddenSize != 128 {
		t.Errorf("hidden_size = %d, want 128", cfg.Neural.HiddenSize)
	}
	if cfg.Checkpoint.Dir != "models" {
		t.Errorf("checkpoint dir = %q, want models", cfg.Checkpoint.Dir)
	}

	// Derived values
	if cfg.Derived.IterationTime != 60*time.Second {
		t.Errorf("derived iteration time = %v, want 60s", cfg.Derived.IterationTime)
	}
	if cfg.Derived.GroundY != 550 {
		t.Errorf("derived ground y = %v, want 550", cfg.Derived.GroundY)
	}
	if cfg.Derived.TickInterval != time.Second/60 {
		t.Errorf("derived tick interval = %v, want %v", cfg.Derived.TickInterval, time.Second/60)
	}
	// 1/60 s rounds up, so 3600 steps reach 60 s and 3599 do not.
	if cfg.Derived.StepDuration != 16666667*time.Nanosecond {
		t.Errorf("derived step = %v, want 16.666667ms", cfg.Derived.StepDuration)
	}
	if n := 3600 * cfg.Derived.StepDuration; n < cfg.Derived.IterationTime {
		t.Errorf("3600 steps = %v, short of %v", n, cfg.Derived.IterationTime)
	}
	if n := 3599 * cfg.Derived.StepDuration; n >= cfg.Derived.IterationTime {
		t.Errorf("3599 steps = %v, already %v", n, cfg.Derived.IterationTime)
	}
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("evolution:\n  batch_size: 8\n  iteration_time: 5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Evolution.BatchSize != 8 {
		t.Errorf("batch_size = %d, want 8", cfg.Evolution.BatchSize)
	}
	if cfg.Derived.IterationTime != 5*time.Second {
		t.Errorf("iteration time = %v, want 5s", cfg.Derived.IterationTime)
	}
	// Untouched fields keep their defaults
	if cfg.Evolution.MutationRate != 0.05 {
		t.Errorf("mutation_rate = %v, want default 0.05", cfg.Evolution.MutationRate)
	}
	if cfg.Physics.Gravity != 1000 {
		t.Errorf("gravity = %v, want default 1000", cfg.Physics.Gravity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"zero batch", func(c *Config) { c.Evolution.BatchSize = 0 }, ErrInvalidBatch},
		{"negative hidden", func(c *Config) { c.Neural.HiddenSize = -1 }, ErrInvalidHidden},
		{"mutation above one", func(c *Config) { c.Evolution.MutationRate = 1.5 }, ErrInvalidMutation},
		{"mutation one", func(c *Config) { c.Evolution.MutationRate = 1 }, nil},
		{"zero step", func(c *Config) { c.Physics.Step = 0 }, ErrInvalidStep},
		{"zero iteration", func(c *Config) { c.Evolution.IterationTime = 0 }, ErrInvalidIteration},
		{"zero torque", func(c *Config) { c.Physics.MaxTorque = 0 }, ErrInvalidTorque},
		{"negative velocity", func(c *Config) { c.Physics.MaxMotorVelocity = -1 }, ErrInvalidVelocity},
		{"empty checkpoint dir", func(c *Config) { c.Checkpoint.Dir = "" }, ErrEmptyCheckpointDir},
		{"nan step", func(c *Config) { c.Physics.Step = math.NaN() }, ErrInvalidStep},
		{"infinite step", func(c *Config) { c.Physics.Step = math.Inf(1) }, ErrInvalidStep},
		{"nan iteration", func(c *Config) { c.Evolution.IterationTime = math.NaN() }, ErrInvalidIteration},
		{"nan torque", func(c *Config) { c.Physics.MaxTorque = math.NaN() }, ErrInvalidTorque},
		{"nan velocity", func(c *Config) { c.Physics.MaxMotorVelocity = math.NaN() }, ErrInvalidVelocity},
		{"infinite velocity", func(c *Config) { c.Physics.MaxMotorVelocity = math.Inf(1) }, ErrInvalidVelocity},
		{"nan gravity", func(c *Config) { c.Physics.Gravity = math.NaN() }, ErrInvalidGravity},
		{"infinite gravity", func(c *Config) { c.Physics.Gravity = math.Inf(-1) }, ErrInvalidGravity},
		{"negative gravity", func(c *Config) { c.Physics.Gravity = -500 }, nil},
		{"nan mutation", func(c *Config) { c.Evolution.MutationRate = math.NaN() }, ErrInvalidMutation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRefreshRecomputesDerived(t *testing.T) {
	cfg := Default()
	cfg.Evolution.IterationTime = 2.5
	cfg.Screen.Height = 1000

	if err := cfg.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if cfg.Derived.IterationTime != 2500*time.Millisecond {
		t.Errorf("iteration time = %v, want 2.5s", cfg.Derived.IterationTime)
	}
	if cfg.Derived.GroundY != 950 {
		t.Errorf("ground y = %v, want 950", cfg.Derived.GroundY)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Evolution.BatchSize = 12
	path := filepath.Join(t.TempDir(), "out.yaml")

	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Evolution.BatchSize != 12 {
		t.Errorf("batch_size = %d, want 12", loaded.Evolution.BatchSize)
	}
}
