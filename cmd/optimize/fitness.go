package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/game"
	"github.com/pthm-cable/strider/telemetry"
)

// FitnessEvaluator runs headless evolution runs and scores them.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	baseConfig  config.Config

	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastProgress   float64 // mean champion gain of the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, baseCfg config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastProgress returns the mean champion gain from the most recent evaluation.
func (fe *FitnessEvaluator) LastProgress() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastProgress
}

// runResult holds the outcome of one seeded run.
type runResult struct {
	champions  []float64 // champion fitness per generation
	hallOfFame *telemetry.HallOfFame
	err        error
}

// Evaluate scores a raw parameter vector (lower = better). Every seed runs
// in parallel; a failed run scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	scores := make([]float64, 0, len(results))
	gains := make([]float64, 0, len(results))
	bestSeed := math.Inf(1)
	var bestHall *telemetry.HallOfFame
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "run failed: %v\n", r.err)
			return math.Inf(1)
		}
		s := computeFitness(r.champions)
		scores = append(scores, s)
		gains = append(gains, progress(r.champions))
		if s < bestSeed {
			bestSeed = s
			bestHall = r.hallOfFame
		}
	}
	avg := stat.Mean(scores, nil)

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestHallOfFame = bestHall
	}
	fe.lastProgress = stat.Mean(gains, nil)
	fe.mu.Unlock()

	return avg
}

// runSimulation evolves one population for fe.generations on a manual
// clock and collects every generation's champion.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) runResult {
	cfg := fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)
	cfg.Telemetry.PerfLogInterval = 0

	dir, err := os.MkdirTemp("", "strider-tune-*")
	if err != nil {
		return runResult{err: err}
	}
	defer os.RemoveAll(dir)
	cfg.Checkpoint.Dir = dir
	if err := cfg.Refresh(); err != nil {
		return runResult{err: err}
	}

	clock := game.NewManualClock(time.Unix(0, 0))
	eng, err := game.NewEngine(cfg, game.Options{
		Seed:           seed,
		Clock:          clock,
		Workers:        1,
		MaxGenerations: fe.generations,
		HallOfFameSize: fe.generations,
	})
	if err != nil {
		return runResult{err: err}
	}
	defer eng.Close()

	if err := eng.RunFast(context.Background(), clock); err != nil {
		return runResult{err: err}
	}
	hof := eng.HallOfFame()
	return runResult{champions: championCurve(hof), hallOfFame: hof}
}

// championCurve returns the champion fitness of every recorded generation
// in generation order. The hall must be sized to hold the whole run.
func championCurve(hof *telemetry.HallOfFame) []float64 {
	entries := hof.Entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Generation < entries[j].Generation
	})
	curve := make([]float64, len(entries))
	for i, e := range entries {
		curve[i] = e.Fitness
	}
	return curve
}

// computeFitness turns a champion curve into a score (lower = better): the
// negated mean of the best and the final champion.
func computeFitness(champions []float64) float64 {
	if len(champions) == 0 {
		return math.Inf(1)
	}
	best := champions[0]
	for _, f := range champions[1:] {
		best = math.Max(best, f)
	}
	return -(best + champions[len(champions)-1]) / 2
}

// progress is the champion gain from the first to the last generation.
func progress(champions []float64) float64 {
	if len(champions) < 2 {
		return 0
	}
	return champions[len(champions)-1] - champions[0]
}
