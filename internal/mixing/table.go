// Package mixing provides the location mixing table — per-row cumulative
// distributions over a partner's location — and the observed mixing
// frequency counters used to compare realized pairings against the policy.
package mixing

import (
	"errors"
	"fmt"
)

// ErrDegenerateRow is returned when sampling a row whose entire policy weight
// points at locations with zero eligible partners. It is distinct from a
// single empty bucket so population-collapse scenarios are recognizable.
var ErrDegenerateRow = errors.New("mixing: degenerate row, no viable destination")

// Fallback selects what happens to a row whose every weighted destination has
// zero eligible partners. The redistribution formula is a scenario choice,
// so it stays configurable.
type Fallback uint8

const (
	// FallbackUniform spreads the row uniformly over locations that still
	// have eligible partners.
	FallbackUniform Fallback = iota
	// FallbackNone leaves the row degenerate; sampling it fails.
	FallbackNone
)

// Table is an L×L matrix of cumulative probabilities. Row i answers
// P(partner location ≤ j | own location = i). Rebuilt once per step from the
// static policy matrix and the current per-location eligible counts; read
// concurrently during the query phase, never mutated by queries.
type Table struct {
	locations  int
	fallback   Fallback
	cumulative [][]float64
	degenerate []bool
}

// NewTable creates an empty table for the given number of locations. Every
// row is degenerate until the first Rebuild.
func NewTable(locations int, fallback Fallback) (*Table, error) {
	if locations <= 0 {
		return nil, fmt.Errorf("mixing: locations must be positive, got %d", locations)
	}
	cum := make([][]float64, locations)
	deg := make([]bool, locations)
	for i := range cum {
		cum[i] = make([]float64, locations)
		deg[i] = true
	}
	return &Table{
		locations:  locations,
		fallback:   fallback,
		cumulative: cum,
		degenerate: deg,
	}, nil
}

// Locations returns the matrix dimension.
func (t *Table) Locations() int { return t.locations }

// Rebuild recomputes every row from the policy weights and the current
// per-location eligible counts. For each row: weights into zero-count
// locations are dropped; an all-zero row falls back per the configured
// policy; surviving weights are normalized and converted to a running sum.
// Rows are independent. Must run in the exclusive build phase.
func (t *Table) Rebuild(policy [][]float64, counts []int) error {
	if len(policy) != t.locations {
		return fmt.Errorf("mixing: policy has %d rows, want %d", len(policy), t.locations)
	}
	if len(counts) != t.locations {
		return fmt.Errorf("mixing: counts has %d entries, want %d", len(counts), t.locations)
	}

	for i := 0; i < t.locations; i++ {
		row := policy[i]
		if len(row) != t.locations {
			return fmt.Errorf("mixing: policy row %d has %d columns, want %d", i, len(row), t.locations)
		}

		weights := make([]float64, t.locations)
		sum := 0.0
		for j, w := range row {
			if w < 0 {
				return fmt.Errorf("mixing: negative policy weight %g at [%d][%d]", w, i, j)
			}
			if counts[j] == 0 {
				continue
			}
			weights[j] = w
			sum += w
		}

		if sum == 0 && t.fallback == FallbackUniform {
			// All weighted destinations are empty: spread uniformly over
			// whatever locations still have eligible partners.
			for j := range weights {
				if counts[j] > 0 {
					weights[j] = 1
					sum++
				}
			}
		}

		if sum == 0 {
			// Nobody is eligible anywhere this row can reach. Leave the row
			// degenerate; sampling against it fails explicitly.
			t.degenerate[i] = true
			for j := range t.cumulative[i] {
				t.cumulative[i][j] = 0
			}
			continue
		}

		t.degenerate[i] = false
		running := 0.0
		for j := range weights {
			running += weights[j] / sum
			t.cumulative[i][j] = running
		}
		// Pin the final entry so a draw of 1-ε can never fall off the row.
		t.cumulative[i][t.locations-1] = 1.0
	}
	return nil
}

// SampleLocation returns the smallest column j with cumulative[own][j] ≥ draw
// (inverse-CDF sampling; exact ties resolve to the lower index). draw must be
// in [0, 1). Returns ErrDegenerateRow when the row has no viable destination.
// An out-of-range own location is a caller bug and panics.
func (t *Table) SampleLocation(own int, draw float64) (int, error) {
	if own < 0 || own >= t.locations {
		panic(fmt.Sprintf("mixing: own location %d out of range [0, %d)", own, t.locations))
	}
	if t.degenerate[own] {
		return -1, ErrDegenerateRow
	}
	row := t.cumulative[own]
	for j, c := range row {
		if c >= draw {
			return j, nil
		}
	}
	// Unreachable for draw < 1: the last entry is pinned to 1.0.
	return t.locations - 1, nil
}

// Degenerate reports whether the row for the given location has no viable
// destination.
func (t *Table) Degenerate(own int) bool {
	if own < 0 || own >= t.locations {
		panic(fmt.Sprintf("mixing: own location %d out of range [0, %d)", own, t.locations))
	}
	return t.degenerate[own]
}

// Row returns a copy of the cumulative distribution for the given location.
func (t *Table) Row(own int) []float64 {
	if own < 0 || own >= t.locations {
		panic(fmt.Sprintf("mixing: own location %d out of range [0, %d)", own, t.locations))
	}
	out := make([]float64, t.locations)
	copy(out, t.cumulative[own])
	return out
}
