package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/epiworld/internal/agents"
	"github.com/talgya/epiworld/internal/config"
	"github.com/talgya/epiworld/internal/engine"
	"github.com/talgya/epiworld/internal/population"
)

func smallScenario(t *testing.T) config.Config {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Seed = 1234
	cfg.Years = 5
	cfg.PopulationSize = 2000
	cfg.Locations = 3
	cfg.SocioBehaviours = 2
	cfg.Workers = 2
	cfg.InitialPrevalence = 0.05
	// Dimensions changed after Load: rebuild the derived defaults.
	cfg.MixingPolicy = nil
	cfg.PartnerRates = nil
	cfg.Normalize()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestEnvironment_UpdateRebuildsBoth(t *testing.T) {
	t.Parallel()

	cfg := smallScenario(t)
	env, err := engine.NewEnvironment(cfg)
	require.NoError(t, err)

	store := population.New([]agents.Person{
		{ID: 1, Age: 20, Sex: agents.SexFemale, Location: 0, Alive: true},
		{ID: 2, Age: 30, Sex: agents.SexFemale, Location: 2, Alive: true},
	})
	require.NoError(t, env.Update(store))

	require.Equal(t, []int{1, 0, 1}, env.Index.LocationCounts())
	// Location 1 is empty: no row may keep probability mass there.
	for own := 0; own < cfg.Locations; own++ {
		require.False(t, env.Table.Degenerate(own))
		row := env.Table.Row(own)
		require.InDelta(t, row[0], row[1], 1e-9, "no mass on the empty location in row %d", own)
		require.InDelta(t, 1.0, row[2], 1e-9)
	}
}

func TestSimulation_StepAdvances(t *testing.T) {
	t.Parallel()

	sim, err := engine.NewSimulation(smallScenario(t))
	require.NoError(t, err)
	require.Equal(t, 2000, sim.Store.Len())

	require.NoError(t, sim.Step())
	require.Equal(t, uint64(1), sim.CurrentStep())

	require.Equal(t, []uint64{1}, sim.Stats.Steps())
	last := sim.Stats.Last()
	require.NotZero(t, last["population"])
	require.Equal(t, last["population"], last["healthy"]+last["infected"])
	require.InDelta(t,
		last["infected"]/last["population"], last["prevalence"], 1e-9)
}

func TestSimulation_RunCollectsEverySeries(t *testing.T) {
	t.Parallel()

	cfg := smallScenario(t)
	sim, err := engine.NewSimulation(cfg)
	require.NoError(t, err)
	require.NoError(t, sim.Run())

	require.Equal(t, uint64(cfg.Years), sim.CurrentStep())
	require.Len(t, sim.Stats.Steps(), cfg.Years)
	for _, name := range sim.Stats.Names() {
		require.Len(t, sim.Stats.Values(name), cfg.Years, "series %s", name)
	}

	// The epidemic was seeded, so some pairings must have been realized.
	var pairings int64
	for _, row := range sim.Env.Observed.Raw() {
		for _, c := range row {
			pairings += c
		}
	}
	require.NotZero(t, pairings)
}

// A fixed seed and a fixed worker count make the whole run reproducible:
// workers own disjoint row ranges with their own streams, and proposals are
// merged in worker order.
func TestSimulation_Deterministic(t *testing.T) {
	t.Parallel()

	run := func() (map[string]float64, [][]int64) {
		sim, err := engine.NewSimulation(smallScenario(t))
		require.NoError(t, err)
		require.NoError(t, sim.Run())
		return sim.Stats.Last(), sim.Env.Observed.Raw()
	}

	stats1, mixing1 := run()
	stats2, mixing2 := run()
	require.Equal(t, stats1, stats2)
	require.Equal(t, mixing1, mixing2)
}

func TestTimeSeries_Accumulators(t *testing.T) {
	t.Parallel()

	ts := engine.NewTimeSeries()
	cfg := smallScenario(t)

	store := population.New([]agents.Person{
		{ID: 1, Age: 20, Sex: agents.SexFemale, State: agents.StateAcute, Route: agents.RouteCasual, Alive: true},
		{ID: 2, Age: 30, Sex: agents.SexMale, State: agents.StateHealthy, Alive: true},
		{ID: 3, Age: 40, Sex: agents.SexFemale, State: agents.StateTreated, Route: agents.RouteBirth, Alive: true},
		{ID: 4, Age: 10, Sex: agents.SexMale, State: agents.StateHealthy, Alive: true},
	})
	dead := agents.Person{ID: 5, State: agents.StateChronic, Alive: false}
	store.Add(dead)

	ts.Collect(1, store, cfg)

	last := ts.Last()
	require.Equal(t, 4.0, last["population"], "the dead are not counted")
	require.Equal(t, 2.0, last["healthy"])
	require.Equal(t, 2.0, last["infected"])
	require.Equal(t, 1.0, last["acute"])
	require.Equal(t, 1.0, last["treated"])
	require.Equal(t, 1.0, last["mtct_transmission"])
	require.Equal(t, 1.0, last["casual_transmission"])
	require.Equal(t, 0.5, last["prevalence"])
	require.Equal(t, 1.0, last["prevalence_women"])
}
