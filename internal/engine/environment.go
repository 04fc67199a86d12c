// Package engine drives the bulk-synchronous step loop: an exclusive build
// phase rebuilds the partner index and the mixing table, a concurrent query
// phase samples partners, a demographic phase applies transmissions, stage
// progression, births and deaths.
package engine

import (
	"fmt"

	"github.com/talgya/epiworld/internal/config"
	"github.com/talgya/epiworld/internal/index"
	"github.com/talgya/epiworld/internal/mixing"
	"github.com/talgya/epiworld/internal/population"
)

// Environment owns the categorical index, the mixing table, and the observed
// pairing counters for the lifetime of a run.
type Environment struct {
	Index    *index.CategoricalIndex
	Table    *mixing.Table
	Observed *mixing.Observed

	policy [][]float64
}

// NewEnvironment constructs the environment from a validated scenario.
func NewEnvironment(cfg config.Config) (*Environment, error) {
	idx, err := index.New(index.Config{
		AgeBands:        cfg.AgeBands,
		Locations:       cfg.Locations,
		SocioBehaviours: cfg.SocioBehaviours,
		MinAge:          cfg.MinAge,
		MaxAge:          cfg.MaxAge,
	})
	if err != nil {
		return nil, err
	}
	tbl, err := mixing.NewTable(cfg.Locations, cfg.Fallback())
	if err != nil {
		return nil, err
	}
	obs, err := mixing.NewObserved(cfg.Locations)
	if err != nil {
		return nil, err
	}
	return &Environment{
		Index:    idx,
		Table:    tbl,
		Observed: obs,
		policy:   cfg.MixingPolicy,
	}, nil
}

// Update runs the exclusive build phase: rebuild the index from the current
// population, then recompute the mixing table from the policy and the fresh
// per-location eligible counts. Must complete before any query in the step;
// the driver enforces this by calling it from the single step goroutine.
func (e *Environment) Update(store *population.Store) error {
	e.Index.Rebuild(store)
	if err := e.Table.Rebuild(e.policy, e.Index.LocationCounts()); err != nil {
		return fmt.Errorf("engine: mixing rebuild: %w", err)
	}
	return nil
}
