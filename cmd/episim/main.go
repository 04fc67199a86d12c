// Command episim runs the individual-based epidemic simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/talgya/epiworld/internal/config"
	"github.com/talgya/epiworld/internal/engine"
	"github.com/talgya/epiworld/internal/persistence"
)

func main() {
	var (
		configPath = flag.String("config", "", "scenario YAML file (empty = default scenario)")
		dbPath     = flag.String("db", "data/epiworld.db", "results database path")
		seed       = flag.Int64("seed", 0, "override scenario seed (0 = keep)")
		years      = flag.Int("years", 0, "override simulated years (0 = keep)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load scenario", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *years != 0 {
		cfg.Years = *years
	}

	slog.Info("scenario loaded",
		"seed", cfg.Seed,
		"years", cfg.Years,
		"population", humanize.Comma(int64(cfg.PopulationSize)),
		"locations", cfg.Locations,
		"age_bands", cfg.AgeBands,
		"socio_behaviours", cfg.SocioBehaviours,
		"eligibility_window", fmt.Sprintf("[%d, %d]", cfg.MinAge, cfg.MaxAge),
	)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(*dbPath), 0755)
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", *dbPath)

	runID, err := db.CreateRun(cfg)
	if err != nil {
		slog.Error("failed to register run", "error", err)
		os.Exit(1)
	}
	slog.Info("run registered", "run_id", runID)

	// ── Simulation ────────────────────────────────────────────────────
	sim, err := engine.NewSimulation(cfg)
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}
	slog.Info("population spawned", "persons", humanize.Comma(int64(sim.Store.Len())))

	if err := sim.Run(); err != nil {
		slog.Error("simulation failed", "step", sim.CurrentStep(), "error", err)
		os.Exit(1)
	}

	// ── Diagnostics & persistence ─────────────────────────────────────
	sim.Env.Index.DescribePopulation()
	sim.Env.Observed.Log()

	if err := db.SaveRun(runID, sim); err != nil {
		slog.Error("failed to save results", "error", err)
		os.Exit(1)
	}

	last := sim.Stats.Last()
	fmt.Printf("\nRun %s finished: %s persons after %d years, prevalence %.4f.\n",
		runID, humanize.Comma(int64(sim.Store.Len())), sim.CurrentStep(), last["prevalence"])
	fmt.Printf("Results saved to %s\n", *dbPath)
}
