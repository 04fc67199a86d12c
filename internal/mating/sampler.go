// Package mating provides partner selection for the query phase: the
// two-stage sampler composing the mixing table with the categorical index,
// and the casual-mating behavior that drives transmission.
package mating

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/talgya/epiworld/internal/index"
	"github.com/talgya/epiworld/internal/mixing"
	"github.com/talgya/epiworld/internal/population"
)

// ErrNoEligiblePartner is returned when no partner can be sampled this step.
// Errors from FindPartner always match it; when the cause is a degenerate
// mixing row they additionally match mixing.ErrDegenerateRow, so callers can
// tell a population collapse from a single-bucket miss.
var ErrNoEligiblePartner = errors.New("mating: no eligible partner")

// Sampler answers "given agent X, find an eligible partner". It reads the
// index and the table, never mutates them; its only side effect is recording
// realized pairings. Safe for concurrent use during the query phase.
type Sampler struct {
	Index    *index.CategoricalIndex
	Table    *mixing.Table
	Observed *mixing.Observed
}

// NewSampler wires the two sampling stages together. Observed may be nil to
// disable pairing diagnostics.
func NewSampler(idx *index.CategoricalIndex, tbl *mixing.Table, obs *mixing.Observed) *Sampler {
	return &Sampler{Index: idx, Table: tbl, Observed: obs}
}

// FindPartner draws a uniform value, picks the partner's location by
// inverse-CDF over the agent's mixing row, then picks uniformly within the
// (location, ageBand, sb) bucket. No retry on failure: the caller decides
// whether to redraw, widen, or skip the agent this step.
func (s *Sampler) FindPartner(ownLocation, ageBand, sb int, rng *rand.Rand) (population.Handle, error) {
	loc, err := s.Table.SampleLocation(ownLocation, rng.Float64())
	if err != nil {
		return population.NoHandle, fmt.Errorf("%w: %w", ErrNoEligiblePartner, err)
	}

	h, err := s.Index.SampleAt(loc, ageBand, sb, rng)
	if err != nil {
		return population.NoHandle, fmt.Errorf("%w: location %d age_band %d socio_behaviour %d: %w",
			ErrNoEligiblePartner, loc, ageBand, sb, err)
	}

	if s.Observed != nil {
		s.Observed.Record(ownLocation, loc)
	}
	return h, nil
}
