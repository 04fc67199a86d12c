// Package index provides the categorical partner index: the population
// partitioned by (location, age band, socio-behaviour) into flat buckets of
// handles, rebuilt once per step and sampled concurrently during the step's
// query phase.
package index

import (
	"math/rand"

	"github.com/talgya/epiworld/internal/population"
)

// Bucket holds the handles of every eligible person in one category. It is a
// building block of the CategoricalIndex, which keeps one bucket per compound
// key.
type Bucket struct {
	handles []population.Handle
}

// Len returns the number of handles in the bucket.
func (b *Bucket) Len() int {
	return len(b.handles)
}

// Add appends a handle.
func (b *Bucket) Add(h population.Handle) {
	b.handles = append(b.handles, h)
}

// Random returns a uniformly random handle from the bucket.
// Returns ErrEmptyBucket if the bucket has no entries; callers must treat
// that as "no eligible partner", never substitute a default handle.
func (b *Bucket) Random(rng *rand.Rand) (population.Handle, error) {
	if len(b.handles) == 0 {
		return population.NoHandle, ErrEmptyBucket
	}
	return b.handles[rng.Intn(len(b.handles))], nil
}

// Reset empties the bucket, keeping its capacity so the per-step rebuild
// does not reallocate.
func (b *Bucket) Reset() {
	b.handles = b.handles[:0]
}
