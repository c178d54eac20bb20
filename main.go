package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/sim"
	"github.com/pthm-cable/biosim/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML or .ini parameter file (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	outputDir := flag.String("output-dir", "", "Output directory for epoch/perf CSV, genome exports and config snapshot")
	maxGenerations := flag.Int("max-generations", 0, "Stop at generation N (0 = use config)")
	challengeID := flag.Int("challenge", -1, "Challenge id (-1 = use config)")
	workers := flag.Int("workers", 0, "Decision workers (0 = GOMAXPROCS)")
	epochDB := flag.String("epoch-db", "", "SQLite database to append epochs to")
	logFormat := flag.String("log-format", "json", "Log format: json or text")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	if *logFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))

	if err := run(*configPath, *seed, *outputDir, *maxGenerations, *challengeID, *workers, *epochDB); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, seed int64, outputDir string, maxGenerations, challengeID, workers int, epochDB string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if maxGenerations > 0 {
		cfg.Population.MaxGenerations = maxGenerations
	}
	if challengeID >= 0 {
		cfg.Challenge.ID = challengeID
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runID := uuid.NewString()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	sinks := telemetry.Fanout{out}
	if epochDB != "" {
		db := telemetry.NewSQLiteEpochLog(epochDB)
		if err := db.Init(ctx); err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	s, err := sim.New(cfg, sim.Options{
		Seed:    seed,
		Workers: workers,
		RunID:   runID,
		Sink:    sinks,
		Output:  out,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	slog.Info("run configured",
		"run_id", runID,
		"seed", seed,
		"config", configPath,
		"output_dir", out.Dir(),
		"epoch_db", epochDB,
	)

	if err := s.Run(ctx); err != nil {
		if ctx.Err() != nil {
			slog.Info("interrupted", "generation", s.Generation())
			return nil
		}
		return err
	}
	return nil
}
