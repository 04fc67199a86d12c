package persistence_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/epiworld/internal/config"
	"github.com/talgya/epiworld/internal/engine"
	"github.com/talgya/epiworld/internal/persistence"
)

func openTestDB(t *testing.T) *persistence.DB {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tinyRun(t *testing.T) (config.Config, *engine.Simulation) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Years = 2
	cfg.PopulationSize = 300
	cfg.Locations = 2
	cfg.Workers = 1
	cfg.MixingPolicy = nil
	cfg.Normalize()
	require.NoError(t, cfg.Validate())

	sim, err := engine.NewSimulation(cfg)
	require.NoError(t, err)
	require.NoError(t, sim.Run())
	return cfg, sim
}

func TestCreateRun_UniqueIDs(t *testing.T) {
	db := openTestDB(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	a, err := db.CreateRun(cfg)
	require.NoError(t, err)
	b, err := db.CreateRun(cfg)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSaveRun_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	cfg, sim := tinyRun(t)

	runID, err := db.CreateRun(cfg)
	require.NoError(t, err)
	require.NoError(t, db.SaveRun(runID, sim))

	for _, name := range sim.Stats.Names() {
		got, err := db.SeriesValues(runID, name)
		require.NoError(t, err)
		require.Equal(t, sim.Stats.Values(name), got, "series %s", name)
	}
}

func TestSeriesValues_UnknownSeries(t *testing.T) {
	db := openTestDB(t)

	values, err := db.SeriesValues("no-such-run", "prevalence")
	require.NoError(t, err)
	require.Empty(t, values)
}
