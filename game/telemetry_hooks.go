package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/strider/telemetry"
)

// generationStats summarizes the finished generation from its ranking.
func (e *Engine) generationStats(ranked []*Agent, elapsed time.Duration, checkpointPath string) telemetry.GenerationStats {
	fitness := make([]float64, len(ranked))
	for i, a := range ranked {
		fitness[i] = a.Fitness()
	}

	stats := telemetry.GenerationStats{
		RunID:      e.runID,
		Generation: e.generation,
		Population: len(ranked),
		ElapsedSec: elapsed.Seconds(),
		Steps:      e.genSteps,
		Checkpoint: checkpointPath,
	}
	if len(ranked) > 0 {
		stats.BestAgent = ranked[0].ID
		stats.BestFitness = fitness[0]
	}
	telemetry.ComputeFitnessStats(fitness).Apply(&stats)
	return stats
}

// recordGeneration logs the generation, appends it to the run output and
// updates bookmarks and the hall of fame.
func (e *Engine) recordGeneration(stats telemetry.GenerationStats, champ Champion) {
	stats.LogStats()

	if err := e.output.WriteGeneration(stats); err != nil {
		slog.Error("failed to write generation stats", "error", err)
	}

	for _, bm := range e.bookmarks.Check(stats) {
		bm.LogBookmark()
		if err := e.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}

	added := e.hall.Consider(telemetry.HallEntry{
		Generation: champ.Generation,
		AgentID:    champ.AgentID,
		Fitness:    champ.Fitness,
		Weights:    champ.Weights,
	})
	if added {
		if err := e.output.WriteHallOfFame(e.hall); err != nil {
			slog.Error("failed to write hall of fame", "error", err)
		}
	}
}

// maybeLogPerf emits the perf window every PerfLogInterval seconds.
func (e *Engine) maybeLogPerf(now time.Time) {
	interval := e.cfg.Telemetry.PerfLogInterval
	if interval <= 0 || now.Sub(e.lastPerfLog).Seconds() < interval {
		return
	}
	e.lastPerfLog = now

	stats := e.perf.Stats()
	stats.LogStats()
	if err := e.output.WritePerf(stats.ToCSV(e.runID, e.generation, e.ticks)); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// HallOfFame returns the run's best champions.
func (e *Engine) HallOfFame() *telemetry.HallOfFame { return e.hall }
