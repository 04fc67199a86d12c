// Synthetic population spawning. Location assignment uses a simplex noise
// density surface so settlement sizes vary smoothly with the seed instead of
// being uniform.
package agents

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// SpawnConfig controls initial population generation.
type SpawnConfig struct {
	Seed              int64
	Locations         int
	SocioBehaviours   int
	Biomedicals       int
	InitialPrevalence float64 // fraction of adults seeded infected
	MinAdultAge       int     // infections are only seeded at or above this age
	MaxAge            int
}

// Spawner creates persons for the simulation.
type Spawner struct {
	rng       *rand.Rand
	nextID    PersonID
	locWeight []float64 // cumulative location density
}

// NewSpawner creates a spawner with the given configuration. The per-location
// density surface is sampled once from seeded simplex noise.
func NewSpawner(cfg SpawnConfig) *Spawner {
	noise := opensimplex.NewNormalized(cfg.Seed)

	// Sample a 1-D slice of the noise field, one point per location, and
	// build a cumulative weight vector. The floor keeps every location
	// populated.
	cum := make([]float64, cfg.Locations)
	total := 0.0
	for i := 0; i < cfg.Locations; i++ {
		w := 0.2 + noise.Eval2(float64(i)*0.35, 0.5)
		total += w
		cum[i] = total
	}
	for i := range cum {
		cum[i] /= total
	}

	return &Spawner{
		rng:       rand.New(rand.NewSource(cfg.Seed + 300)),
		nextID:    1,
		locWeight: cum,
	}
}

// SetNextID sets the next person ID to be issued.
func (s *Spawner) SetNextID(id PersonID) {
	s.nextID = id
}

// SpawnPopulation creates the initial population and seeds infections among
// adults according to the configured prevalence.
func (s *Spawner) SpawnPopulation(count int, cfg SpawnConfig) []Person {
	people := make([]Person, 0, count)
	for i := 0; i < count; i++ {
		p := s.spawnOne(cfg)
		if p.Age >= float32(cfg.MinAdultAge) && s.rng.Float64() < cfg.InitialPrevalence {
			p.State = StateChronic
			p.SourceState = StateChronic
			p.Route = RouteCasual
		}
		people = append(people, p)
	}
	return people
}

func (s *Spawner) spawnOne(cfg SpawnConfig) Person {
	id := s.nextID
	s.nextID++

	sex := SexMale
	if s.rng.Float64() < 0.5 {
		sex = SexFemale
	}

	return Person{
		ID:              id,
		Age:             s.weightedAge(cfg.MaxAge),
		Sex:             sex,
		Location:        s.randomLocation(),
		SocialBehaviour: s.riskCategory(cfg.SocioBehaviours),
		Biomedical:      s.riskCategory(cfg.Biomedicals),
		State:           StateHealthy,
		Alive:           true,
	}
}

// SpawnChild creates a newborn at the mother's location. Mother-to-child
// transmission is decided by the caller, which knows the disease parameters.
func (s *Spawner) SpawnChild(mother *Person, step uint64) Person {
	id := s.nextID
	s.nextID++

	sex := SexMale
	if s.rng.Float64() < 0.5 {
		sex = SexFemale
	}

	return Person{
		ID:              id,
		Age:             0,
		Sex:             sex,
		Location:        mother.Location,
		SocialBehaviour: mother.SocialBehaviour,
		Biomedical:      mother.Biomedical,
		State:           StateHealthy,
		BornStep:        step,
		Alive:           true,
	}
}

// weightedAge draws an age skewed toward the young, roughly matching a
// developing-country pyramid: half the population under 20, a thin tail up
// to maxAge.
func (s *Spawner) weightedAge(maxAge int) float32 {
	age := s.rng.ExpFloat64() * 20.0
	if age >= float64(maxAge) {
		age = s.rng.Float64() * float64(maxAge)
	}
	return float32(age)
}

// randomLocation picks a location from the noise-derived density surface.
func (s *Spawner) randomLocation() int {
	draw := s.rng.Float64()
	for i, c := range s.locWeight {
		if draw <= c {
			return i
		}
	}
	return len(s.locWeight) - 1
}

// riskCategory draws a category with geometric decay: most persons sit in
// the lowest-risk category, each higher category is half as likely.
func (s *Spawner) riskCategory(categories int) int {
	if categories <= 1 {
		return 0
	}
	for c := 0; c < categories-1; c++ {
		if s.rng.Float64() < 0.5 {
			return c
		}
	}
	return categories - 1
}
