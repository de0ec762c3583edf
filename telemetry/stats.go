// Package telemetry records per-generation statistics, timing and
// milestones, and writes them as CSV/JSON run output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarizes one completed generation.
type GenerationStats struct {
	RunID      string  `csv:"run_id"`
	Generation int     `csv:"generation"`
	Population int     `csv:"population"`
	ElapsedSec float64 `csv:"elapsed_sec"`
	Steps      int64   `csv:"steps"`

	// Fitness distribution at the end of the generation
	BestAgent    int     `csv:"best_agent"`
	BestFitness  float64 `csv:"best_fitness"`
	MeanFitness  float64 `csv:"mean_fitness"`
	StdFitness   float64 `csv:"std_fitness"`
	P10Fitness   float64 `csv:"p10_fitness"`
	P50Fitness   float64 `csv:"p50_fitness"`
	P90Fitness   float64 `csv:"p90_fitness"`
	WorstFitness float64 `csv:"worst_fitness"`

	// Repopulation
	MutatedParams int    `csv:"mutated_params"`
	Checkpoint    string `csv:"checkpoint"`
}

// FitnessStats holds the distribution summary of a fitness sample.
type FitnessStats struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Min, Max      float64
}

// ComputeFitnessStats summarizes values. Std is the unbiased sample
// standard deviation (0 for fewer than two values). Quantiles use the
// empirical CDF.
func ComputeFitnessStats(values []float64) FitnessStats {
	n := len(values)
	if n == 0 {
		return FitnessStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	fs := FitnessStats{
		Mean: stat.Mean(sorted, nil),
		P10:  stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, sorted, nil),
		Min:  sorted[0],
		Max:  sorted[n-1],
	}
	if n > 1 {
		fs.Std = stat.StdDev(sorted, nil)
	}
	return fs
}

// Apply copies the distribution into the generation record.
func (fs FitnessStats) Apply(gs *GenerationStats) {
	gs.MeanFitness = fs.Mean
	gs.StdFitness = fs.Std
	gs.P10Fitness = fs.P10
	gs.P50Fitness = fs.P50
	gs.P90Fitness = fs.P90
	gs.WorstFitness = fs.Min
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Float64("elapsed_sec", s.ElapsedSec),
		slog.Int64("steps", s.Steps),
		slog.Int("best_agent", s.BestAgent),
		slog.Float64("best_fitness", s.BestFitness),
		slog.Float64("mean_fitness", s.MeanFitness),
		slog.Float64("std_fitness", s.StdFitness),
		slog.Float64("p10_fitness", s.P10Fitness),
		slog.Float64("p50_fitness", s.P50Fitness),
		slog.Float64("p90_fitness", s.P90Fitness),
		slog.Float64("worst_fitness", s.WorstFitness),
		slog.Int("mutated_params", s.MutatedParams),
		slog.String("checkpoint", s.Checkpoint),
	)
}

// LogStats logs the generation summary using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation_complete",
		"run_id", s.RunID,
		"generation", s.Generation,
		"population", s.Population,
		"steps", s.Steps,
		"best_agent", s.BestAgent,
		"best_fitness", s.BestFitness,
		"mean_fitness", s.MeanFitness,
		"p50_fitness", s.P50Fitness,
		"mutated_params", s.MutatedParams,
		"checkpoint", s.Checkpoint,
	)
}
