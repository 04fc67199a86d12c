package index

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/dustin/go-humanize"

	"github.com/talgya/epiworld/internal/agents"
	"github.com/talgya/epiworld/internal/population"
)

// ErrEmptyBucket is returned when sampling a category with no eligible
// persons. It is an expected runtime condition, not a bug: the caller decides
// whether to retry elsewhere or skip the agent this step.
var ErrEmptyBucket = errors.New("index: empty bucket")

// Config fixes the index dimensions and the initial eligibility window.
type Config struct {
	AgeBands        int
	Locations       int
	SocioBehaviours int
	MinAge          int
	MaxAge          int
}

// CategoricalIndex partitions the eligible female population into a flat
// array of buckets addressed by CompoundIndex. Dimensions are immutable after
// construction; the eligibility window may be adjusted between steps.
//
// Rebuild is single-writer and must complete before any CountAt/SampleAt in
// the same step; queries never mutate bucket contents, so the query phase may
// run them from any number of goroutines.
type CategoricalIndex struct {
	minAge int
	maxAge int

	ageBands        int
	locations       int
	socioBehaviours int

	buckets []Bucket
}

// New constructs an index. Zero or negative dimensions and an inverted age
// window are construction errors.
func New(cfg Config) (*CategoricalIndex, error) {
	if cfg.AgeBands <= 0 || cfg.Locations <= 0 || cfg.SocioBehaviours <= 0 {
		return nil, fmt.Errorf("index: dimensions must be positive, got age_bands=%d locations=%d socio_behaviours=%d",
			cfg.AgeBands, cfg.Locations, cfg.SocioBehaviours)
	}
	if cfg.MinAge < 0 || cfg.MaxAge < cfg.MinAge {
		return nil, fmt.Errorf("index: invalid eligibility window [%d, %d]", cfg.MinAge, cfg.MaxAge)
	}
	return &CategoricalIndex{
		minAge:          cfg.MinAge,
		maxAge:          cfg.MaxAge,
		ageBands:        cfg.AgeBands,
		locations:       cfg.Locations,
		socioBehaviours: cfg.SocioBehaviours,
		buckets:         make([]Bucket, cfg.AgeBands*cfg.Locations*cfg.SocioBehaviours),
	}, nil
}

// AgeBands returns the number of age bands.
func (x *CategoricalIndex) AgeBands() int { return x.ageBands }

// Locations returns the number of locations.
func (x *CategoricalIndex) Locations() int { return x.locations }

// SocioBehaviours returns the number of socio-behavioural categories.
func (x *CategoricalIndex) SocioBehaviours() int { return x.socioBehaviours }

// MinAge returns the lower bound of the eligibility window.
func (x *CategoricalIndex) MinAge() int { return x.minAge }

// MaxAge returns the upper bound of the eligibility window.
func (x *CategoricalIndex) MaxAge() int { return x.maxAge }

// SetMinAge adjusts the eligibility window. Takes effect at the next Rebuild.
func (x *CategoricalIndex) SetMinAge(age int) { x.minAge = age }

// SetMaxAge adjusts the eligibility window. Takes effect at the next Rebuild.
func (x *CategoricalIndex) SetMaxAge(age int) { x.maxAge = age }

// CompoundIndex maps (location, ageBand, sb) to the flat bucket position:
//
//	ageBand + A·location + A·L·sb
//
// The mapping is a bijection over [0,A)×[0,L)×[0,S). An out-of-range
// component is a caller bug and panics; it is never clamped.
func (x *CategoricalIndex) CompoundIndex(location, ageBand, sb int) int {
	if location < 0 || location >= x.locations {
		panic(fmt.Sprintf("index: location %d out of range [0, %d)", location, x.locations))
	}
	if ageBand < 0 || ageBand >= x.ageBands {
		panic(fmt.Sprintf("index: age band %d out of range [0, %d)", ageBand, x.ageBands))
	}
	if sb < 0 || sb >= x.socioBehaviours {
		panic(fmt.Sprintf("index: socio-behaviour %d out of range [0, %d)", sb, x.socioBehaviours))
	}
	return ageBand + x.ageBands*location + x.ageBands*x.locations*sb
}

// AgeBand maps an age inside the eligibility window to its band, or -1 when
// the age falls outside the window. The window is split into equal-width
// bands; with one band every eligible age maps to band 0.
func (x *CategoricalIndex) AgeBand(age float32) int {
	if age < float32(x.minAge) || age > float32(x.maxAge) {
		return -1
	}
	span := x.maxAge - x.minAge + 1
	band := int(age-float32(x.minAge)) * x.ageBands / span
	if band >= x.ageBands {
		band = x.ageBands - 1
	}
	return band
}

// Eligible reports whether a person belongs in the index: female, alive, and
// inside the eligibility window.
func (x *CategoricalIndex) Eligible(p *agents.Person) bool {
	return p.Alive && p.IsFemale() &&
		p.Age >= float32(x.minAge) && p.Age <= float32(x.maxAge)
}

// Rebuild clears every bucket and repopulates the index with a single scan of
// the population. It must run as an exclusive build phase: no concurrent
// query, exactly once per step before the first sample. Calling it twice with
// an unchanged population yields identical bucket contents.
func (x *CategoricalIndex) Rebuild(store *population.Store) {
	for i := range x.buckets {
		x.buckets[i].Reset()
	}
	store.ForEach(func(h population.Handle, p *agents.Person) {
		if !x.Eligible(p) {
			return
		}
		band := x.AgeBand(p.Age)
		key := x.CompoundIndex(p.Location, band, p.SocialBehaviour)
		x.buckets[key].Add(h)
	})
}

// CountAt returns the bucket size at the given category.
func (x *CategoricalIndex) CountAt(location, ageBand, sb int) int {
	return x.buckets[x.CompoundIndex(location, ageBand, sb)].Len()
}

// SampleAt returns a uniformly random handle from the given category, or
// ErrEmptyBucket when the category has no eligible persons.
func (x *CategoricalIndex) SampleAt(location, ageBand, sb int, rng *rand.Rand) (population.Handle, error) {
	return x.buckets[x.CompoundIndex(location, ageBand, sb)].Random(rng)
}

// LocationCounts returns the eligible population total per location, summed
// over age bands and socio-behaviour categories. Feeds the mixing table
// rebuild.
func (x *CategoricalIndex) LocationCounts() []int {
	counts := make([]int, x.locations)
	for loc := 0; loc < x.locations; loc++ {
		for band := 0; band < x.ageBands; band++ {
			for sb := 0; sb < x.socioBehaviours; sb++ {
				counts[loc] += x.CountAt(loc, band, sb)
			}
		}
	}
	return counts
}

// DescribePopulation logs the eligible population breakdown per category.
func (x *CategoricalIndex) DescribePopulation() {
	total := 0
	for loc := 0; loc < x.locations; loc++ {
		for band := 0; band < x.ageBands; band++ {
			for sb := 0; sb < x.socioBehaviours; sb++ {
				n := x.CountAt(loc, band, sb)
				total += n
				slog.Info("eligible population",
					"location", loc,
					"age_band", band,
					"socio_behaviour", sb,
					"count", humanize.Comma(int64(n)),
				)
			}
		}
	}
	slog.Info("eligible population total",
		"window_min_age", x.minAge,
		"window_max_age", x.maxAge,
		"count", humanize.Comma(int64(total)),
	)
}
