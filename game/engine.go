// Package game runs the generational loop: it steps every walker, times each
// generation, selects the champion, checkpoints it and repopulates.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/strider/checkpoint"
	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/physics"
	"github.com/pthm-cable/strider/telemetry"
)

// State is the engine's run state.
type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrInvalidTransition rejects a command that does not apply in the current
// state. The engine is left unchanged.
var ErrInvalidTransition = errors.New("invalid state transition")

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Seed  int64  // RNG seed (0 = cfg.Evolution.Seed, then time-based)
	RunID string // empty = random UUID
	Clock Clock  // nil = SystemClock

	Store  *checkpoint.Store        // nil = store at cfg.Checkpoint.Dir
	Output *telemetry.OutputManager // nil = no CSV output

	Workers          int // inference workers (0 = GOMAXPROCS, 1 = serial)
	MaxGenerations   int // stop Run after this many transitions (0 = unlimited)
	HallOfFameSize   int // 0 = 10
	StagnationWindow int // generations without a record before a bookmark (0 = 10)
}

// Engine owns the world, the population and the generation timer.
//
// The direct methods (Start, Pause, Tick, ...) must all be called from one
// goroutine. Run makes the calling goroutine that owner and accepts
// commands from others through Post and Do.
type Engine struct {
	cfg   config.Config
	world *physics.World
	store *checkpoint.Store
	clock Clock
	rng   *rand.Rand
	runID string

	pop        *Population
	state      State
	generation int
	champion   *Champion

	// Generation timer: elapsed = accumulated + (now - epoch) while hasEpoch.
	accumulated time.Duration
	epoch       time.Time
	hasEpoch    bool

	ticks          int64 // physics steps over the engine's lifetime
	genSteps       int64 // physics steps in the current generation
	transitions    int
	maxGenerations int

	pool        *inferPool
	output      *telemetry.OutputManager
	perf        *telemetry.PerfCollector
	bookmarks   *telemetry.BookmarkDetector
	hall        *telemetry.HallOfFame
	lastPerfLog time.Time

	cmds chan request
	snap atomic.Pointer[Snapshot]
}

// NewEngine validates cfg, builds the world and a fresh population, and
// returns an Idle engine. The first generation is 1, or one past the
// highest checkpoint already in the store.
func NewEngine(cfg config.Config, opts Options) (*Engine, error) {
	if err := cfg.Refresh(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Evolution.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	store := opts.Store
	if store == nil {
		store = checkpoint.NewStore(cfg.Checkpoint.Dir)
	}
	hallSize := opts.HallOfFameSize
	if hallSize <= 0 {
		hallSize = 10
	}
	stagnation := opts.StagnationWindow
	if stagnation <= 0 {
		stagnation = 10
	}

	e := &Engine{
		cfg:            cfg,
		world:          physics.NewWorld(cfg.Physics.Gravity, cfg.Derived.GroundY),
		store:          store,
		clock:          clock,
		rng:            rand.New(rand.NewSource(seed)),
		runID:          runID,
		maxGenerations: opts.MaxGenerations,
		pool:           newInferPool(opts.Workers),
		output:         opts.Output,
		perf:           telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks:      telemetry.NewBookmarkDetector(10, stagnation),
		hall:           telemetry.NewHallOfFame(hallSize),
		lastPerfLog:    clock.Now(),
		cmds:           make(chan request, commandQueueSize),
	}

	e.generation = e.nextFreeGeneration(1)

	if _, err := e.rebuild(freshSeed(), cfg); err != nil {
		return nil, err
	}
	e.publish()

	slog.Info("engine_ready",
		"run_id", runID,
		"seed", seed,
		"generation", e.generation,
		"population", cfg.Evolution.BatchSize,
		"hidden_size", cfg.Neural.HiddenSize,
		"checkpoint_dir", store.Dir(),
	)
	return e, nil
}

// nextFreeGeneration returns the smallest generation >= from that lies above
// every checkpoint in the store, so saves never collide with files written
// by an earlier run.
func (e *Engine) nextFreeGeneration(from int) int {
	latest, err := e.store.Latest()
	if err != nil {
		return from
	}
	if latest.Generation >= from {
		slog.Info("checkpoint_dir_in_use",
			"dir", e.store.Dir(),
			"latest", latest.Generation,
			"next_generation", latest.Generation+1,
		)
		return latest.Generation + 1
	}
	return from
}

// Close stops the inference workers and removes the population from the
// world. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.pool.stop()
	if e.pop != nil {
		e.pop.Destroy()
		e.pop = nil
	}
}

// RunID identifies this engine's run in logs and CSV rows.
func (e *Engine) RunID() string { return e.runID }

// State returns the current run state.
func (e *Engine) State() State { return e.state }

// Generation returns the number of the generation being evaluated.
func (e *Engine) Generation() int { return e.generation }

// Champion returns the last selected champion, or nil.
func (e *Engine) Champion() *Champion { return e.champion }

// Population returns the live population.
func (e *Engine) Population() *Population { return e.pop }

// World returns the physics world.
func (e *Engine) World() *physics.World { return e.world }

// Config returns the active configuration.
func (e *Engine) Config() config.Config { return e.cfg }

// Elapsed returns the time spent in the current generation, excluding pauses.
func (e *Engine) Elapsed() time.Duration { return e.elapsed(e.clock.Now()) }

// Finished reports whether MaxGenerations transitions have completed.
func (e *Engine) Finished() bool {
	return e.maxGenerations > 0 && e.transitions >= e.maxGenerations
}

func (e *Engine) elapsed(now time.Time) time.Duration {
	d := e.accumulated
	if e.hasEpoch {
		d += now.Sub(e.epoch)
	}
	return d
}

func (e *Engine) resetTimer(running bool) {
	e.accumulated = 0
	e.genSteps = 0
	e.hasEpoch = running
	if running {
		e.epoch = e.clock.Now()
	}
}

// Start begins evaluation. From Paused it behaves like Resume. A missing
// population (after a failed rebuild) is rebuilt fresh first.
func (e *Engine) Start() error {
	switch e.state {
	case Running:
		return fmt.Errorf("start while %s: %w", e.state, ErrInvalidTransition)
	case Paused:
		return e.Resume()
	}

	if e.pop == nil {
		if _, err := e.rebuild(freshSeed(), e.cfg); err != nil {
			return err
		}
	}
	if !e.hasEpoch {
		e.accumulated = 0
		e.epoch = e.clock.Now()
		e.hasEpoch = true
	}
	e.state = Running
	slog.Info("engine_start", "run_id", e.runID, "generation", e.generation)
	return nil
}

// Pause freezes the generation timer and physics.
func (e *Engine) Pause() error {
	if e.state != Running {
		return fmt.Errorf("pause while %s: %w", e.state, ErrInvalidTransition)
	}
	now := e.clock.Now()
	e.accumulated += now.Sub(e.epoch)
	e.hasEpoch = false
	e.state = Paused
	slog.Info("engine_pause", "generation", e.generation, "elapsed", e.accumulated)
	return nil
}

// Resume continues a paused generation.
func (e *Engine) Resume() error {
	if e.state != Paused {
		return fmt.Errorf("resume while %s: %w", e.state, ErrInvalidTransition)
	}
	e.epoch = e.clock.Now()
	e.hasEpoch = true
	e.state = Running
	slog.Info("engine_resume", "generation", e.generation, "elapsed", e.accumulated)
	return nil
}

// TogglePause pauses a running engine or resumes a paused one.
func (e *Engine) TogglePause() error {
	if e.state == Paused {
		return e.Resume()
	}
	return e.Pause()
}

// Stop returns to Idle with a fresh, unmutated population and a cleared
// timer. The generation counter and champion are kept.
func (e *Engine) Stop() error {
	e.state = Idle
	e.resetTimer(false)
	if _, err := e.rebuild(freshSeed(), e.cfg); err != nil {
		return err
	}
	slog.Info("engine_stop", "generation", e.generation)
	return nil
}

// Load replaces the population with exact copies of a checkpoint and goes
// Idle. The next generation evaluated is the checkpoint's generation + 1,
// moved past any later checkpoint in the store. Any failure leaves the
// engine untouched.
func (e *Engine) Load(path string) error {
	gen, w, err := checkpoint.Load(path)
	if err != nil {
		return err
	}
	if _, err := e.rebuild(exactSeed(w), e.cfg); err != nil {
		return err
	}
	e.generation = e.nextFreeGeneration(gen + 1)
	e.state = Idle
	e.resetTimer(false)
	slog.Info("checkpoint_loaded", "path", path, "checkpoint_generation", gen, "generation", e.generation)
	return nil
}

// UpdateConfig applies a live parameter change. Gravity and motor torque
// take effect immediately; batch size, hidden size and screen size apply at
// the next rebuild; the rest are read on the next tick or transition.
func (e *Engine) UpdateConfig(cfg config.Config) error {
	if err := cfg.Refresh(); err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	if cfg.Checkpoint.Dir != e.cfg.Checkpoint.Dir {
		e.store = checkpoint.NewStore(cfg.Checkpoint.Dir)
		e.generation = e.nextFreeGeneration(e.generation)
	}
	e.world.SetGravity(cfg.Physics.Gravity)
	if e.pop != nil && cfg.Physics.MaxTorque != e.cfg.Physics.MaxTorque {
		e.pop.SetMaxTorque(cfg.Physics.MaxTorque)
	}
	e.cfg = cfg
	slog.Info("config_updated",
		"batch_size", cfg.Evolution.BatchSize,
		"mutation_rate", cfg.Evolution.MutationRate,
		"iteration_time", cfg.Evolution.IterationTime,
		"gravity", cfg.Physics.Gravity,
		"max_torque", cfg.Physics.MaxTorque,
	)
	return nil
}

// Tick advances a Running engine by one fixed physics step and runs the
// generation transition when the generation's time is up. It does nothing
// in other states. An error means the transition could not rebuild the
// population; the engine is then Idle.
func (e *Engine) Tick() error {
	if e.state != Running {
		return nil
	}
	cfg := e.cfg

	e.perf.StartTick()
	e.perf.StartPhase(telemetry.PhaseInference)
	e.pool.step(e.pop.Agents(), cfg.Physics.MaxMotorVelocity, parallelThreshold)

	e.perf.StartPhase(telemetry.PhasePhysics)
	e.world.Step(cfg.Physics.Step)
	e.ticks++
	e.genSteps++

	var err error
	now := e.clock.Now()
	if e.elapsed(now) >= cfg.Derived.IterationTime {
		e.perf.StartPhase(telemetry.PhaseTransition)
		err = e.transition(cfg, now)
	}
	e.perf.EndTick()
	e.maybeLogPerf(now)
	return err
}

// transition ranks the population, checkpoints the champion and replaces
// the population with mutated copies of it.
func (e *Engine) transition(cfg config.Config, now time.Time) error {
	ranked := e.pop.Rank()
	champ := crown(e.generation, ranked)
	e.champion = &champ

	path, err := e.store.Save(champ.Generation, champ.Weights)
	if err != nil {
		slog.Error("checkpoint_save_failed", "generation", champ.Generation, "error", err)
		path = ""
	}

	stats := e.generationStats(ranked, e.elapsed(now), path)

	e.generation++
	mutated, err := e.rebuild(mutatedSeed(champ.Weights), cfg)
	if err != nil {
		e.state = Idle
		e.resetTimer(false)
		e.pop.Destroy()
		e.pop = nil
		slog.Error("generation_rebuild_failed", "generation", e.generation, "error", err)
		return fmt.Errorf("generation %d: %w", e.generation, err)
	}
	e.transitions++
	e.resetTimer(true)

	stats.MutatedParams = mutated
	e.recordGeneration(stats, champ)
	return nil
}
