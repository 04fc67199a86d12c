package mating

import (
	"math"
	"math/rand"

	"github.com/talgya/epiworld/internal/agents"
	"github.com/talgya/epiworld/internal/population"
)

// Transmission proposes infecting a partner found during the query phase.
// Workers buffer proposals instead of writing partner state directly; the
// driver applies them after the phase barrier.
type Transmission struct {
	Partner population.Handle
	Source  agents.State
}

// Behavior runs the casual-mating pass for one male agent. The number of
// casual partners per step is Poisson-distributed with a mean set by the
// agent's socio-behavioural category.
type Behavior struct {
	Sampler      *Sampler
	Disease      agents.DiseaseParams
	PartnerRates []float64 // mean casual partners per step, indexed by sb category
}

// Act samples casual partners for p and returns transmission proposals for
// partners p infected. p itself may be infected in place: each worker owns a
// disjoint slice of males, and partner states are frozen until the barrier.
func (b *Behavior) Act(store *population.Store, p *agents.Person, rng *rand.Rand) []Transmission {
	if !p.Alive || !p.IsMale() {
		return nil
	}
	if p.Age < float32(b.Sampler.Index.MinAge()) || p.Age > float32(b.Sampler.Index.MaxAge()) {
		return nil
	}

	partners := poisson(rng, b.PartnerRates[p.SocialBehaviour])
	if partners == 0 {
		return nil
	}

	var proposals []Transmission
	for i := 0; i < partners; i++ {
		// Partner age band is drawn uniformly; the partner's risk category
		// matches the agent's own (assortative mixing on behaviour).
		band := rng.Intn(b.Sampler.Index.AgeBands())
		h, err := b.Sampler.FindPartner(p.Location, band, p.SocialBehaviour, rng)
		if err != nil {
			// No eligible partner for this draw; skip, never retry here.
			continue
		}
		p.CasualPartners++

		mate := store.Get(h)
		switch {
		case p.IsInfected() && mate.IsHealthy():
			if rng.Float64() < b.Disease.TransmissionProbability(p.State) {
				proposals = append(proposals, Transmission{Partner: h, Source: p.State})
			}
		case mate.IsInfected() && p.IsHealthy():
			if rng.Float64() < b.Disease.TransmissionProbability(mate.State) {
				agents.Infect(p, mate.State, agents.RouteCasual)
			}
		}
	}
	return proposals
}

// poisson draws from Poisson(lambda) with Knuth's method. Rates here are
// small (a handful of partners per step) so the loop stays short.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	threshold := math.Exp(-lambda)
	product := 1.0
	for k := 0; ; k++ {
		product *= rng.Float64()
		if product < threshold {
			return k
		}
	}
}
