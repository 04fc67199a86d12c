package mixing

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Observed accumulates realized (own location, partner location) pair counts
// across steps. Increments are atomic: any number of query-phase workers may
// record selections concurrently, with only the aggregate guaranteed. Counts
// persist across rebuilds and reset only explicitly.
type Observed struct {
	locations int
	counts    []atomic.Int64 // flat L×L, row-major
}

// NewObserved creates a zeroed counter matrix.
func NewObserved(locations int) (*Observed, error) {
	if locations <= 0 {
		return nil, fmt.Errorf("mixing: locations must be positive, got %d", locations)
	}
	return &Observed{
		locations: locations,
		counts:    make([]atomic.Int64, locations*locations),
	}, nil
}

// Record increments the counter for a realized pairing. Safe for concurrent
// use. Out-of-range locations are a caller bug and panic.
func (o *Observed) Record(own, partner int) {
	o.counts[o.flat(own, partner)].Add(1)
}

// Raw returns a snapshot copy of the counter matrix.
func (o *Observed) Raw() [][]int64 {
	out := make([][]int64, o.locations)
	for i := range out {
		out[i] = make([]int64, o.locations)
		for j := range out[i] {
			out[i][j] = o.counts[o.flat(i, j)].Load()
		}
	}
	return out
}

// Normalize returns a row-stochastic copy: each row divided by its row sum,
// directly comparable to the mixing policy matrix. Rows with no recorded
// pairings stay all-zero.
func (o *Observed) Normalize() [][]float64 {
	raw := o.Raw()
	out := make([][]float64, o.locations)
	for i, row := range raw {
		out[i] = make([]float64, o.locations)
		var sum int64
		for _, c := range row {
			sum += c
		}
		if sum == 0 {
			continue
		}
		for j, c := range row {
			out[i][j] = float64(c) / float64(sum)
		}
	}
	return out
}

// Reset zeroes every counter. Not safe concurrently with Record; call it
// between steps.
func (o *Observed) Reset() {
	for i := range o.counts {
		o.counts[i].Store(0)
	}
}

// Log writes the normalized frequency matrix to the structured log, one row
// per line.
func (o *Observed) Log() {
	norm := o.Normalize()
	for i, row := range norm {
		slog.Info("observed mixing", "own_location", i, "frequencies", fmt.Sprintf("%.4f", row))
	}
}

func (o *Observed) flat(own, partner int) int {
	if own < 0 || own >= o.locations {
		panic(fmt.Sprintf("mixing: own location %d out of range [0, %d)", own, o.locations))
	}
	if partner < 0 || partner >= o.locations {
		panic(fmt.Sprintf("mixing: partner location %d out of range [0, %d)", partner, o.locations))
	}
	return own*o.locations + partner
}
