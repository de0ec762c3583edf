package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/game"
	"github.com/pthm-cable/strider/telemetry"
	"github.com/pthm-cable/strider/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics, stepping as fast as possible")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (overrides config)")
	checkpointDir := flag.String("checkpoint-dir", "", "Checkpoint directory (overrides config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	load := flag.String("load", "", `Checkpoint to load at startup ("latest" = newest in the checkpoint dir)`)
	maxGenerations := flag.Int("max-generations", 0, "Stop after N generations (0 = unlimited)")
	workers := flag.Int("workers", 0, "Inference workers (0 = GOMAXPROCS, 1 = serial)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *checkpointDir != "" {
		cfg.Checkpoint.Dir = *checkpointDir
	}

	if err := run(*cfg, *headless, *seed, *load, *maxGenerations, *workers); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, headless bool, seed int64, load string, maxGenerations, workers int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	om, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(&cfg); err != nil {
		return err
	}

	opts := game.Options{
		Seed:           seed,
		Output:         om,
		MaxGenerations: maxGenerations,
		Workers:        workers,
	}
	var clock *game.ManualClock
	if headless {
		clock = game.NewManualClock(time.Now())
		opts.Clock = clock
	}

	eng, err := game.NewEngine(cfg, opts)
	if err != nil {
		return err
	}
	defer eng.Close()

	switch load {
	case "":
	case "latest":
		err = eng.LoadLatest()
	default:
		err = eng.Load(load)
	}
	if err != nil {
		return err
	}

	if headless {
		slog.Info("starting headless run",
			"run_id", eng.RunID(),
			"max_generations", maxGenerations,
			"output_dir", om.Dir(),
		)
		return eng.RunFast(ctx, clock)
	}

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Strider")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	ctx, cancel := context.WithCancel(ctx)
	errc := make(chan error, 1)
	go func() {
		errc <- eng.Run(ctx)
	}()

	ui.NewViewer(eng, int32(cfg.Screen.Width), int32(cfg.Screen.Height)).Run(ctx)
	cancel()
	return <-errc
}
