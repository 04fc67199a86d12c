package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/epiworld/internal/agents"
	"github.com/talgya/epiworld/internal/config"
	"github.com/talgya/epiworld/internal/mating"
	"github.com/talgya/epiworld/internal/population"
	"github.com/talgya/epiworld/internal/rng"
)

// Simulation holds the complete run state and wires the subsystems together.
type Simulation struct {
	Cfg      config.Config
	Store    *population.Store
	Env      *Environment
	Spawner  *agents.Spawner
	Behavior *mating.Behavior
	Stats    *TimeSeries

	step    uint64
	workers int
	root    *rng.Stream   // demographic phase
	streams []*rng.Stream // one per query-phase worker
}

// NewSimulation spawns the initial population and builds every subsystem
// from the scenario.
func NewSimulation(cfg config.Config) (*Simulation, error) {
	env, err := NewEnvironment(cfg)
	if err != nil {
		return nil, err
	}

	spawnCfg := agents.SpawnConfig{
		Seed:              cfg.Seed,
		Locations:         cfg.Locations,
		SocioBehaviours:   cfg.SocioBehaviours,
		Biomedicals:       cfg.Biomedicals,
		InitialPrevalence: cfg.InitialPrevalence,
		MinAdultAge:       cfg.MinAge,
		MaxAge:            cfg.LifeExpectancy,
	}
	spawner := agents.NewSpawner(spawnCfg)
	store := population.New(spawner.SpawnPopulation(cfg.PopulationSize, spawnCfg))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	streams := make([]*rng.Stream, workers)
	for w := range streams {
		streams[w] = rng.Worker(cfg.Seed, w)
	}

	sampler := mating.NewSampler(env.Index, env.Table, env.Observed)
	return &Simulation{
		Cfg:     cfg,
		Store:   store,
		Env:     env,
		Spawner: spawner,
		Behavior: &mating.Behavior{
			Sampler:      sampler,
			Disease:      cfg.Disease,
			PartnerRates: cfg.PartnerRates,
		},
		Stats:   NewTimeSeries(),
		workers: workers,
		root:    rng.New(cfg.Seed),
		streams: streams,
	}, nil
}

// CurrentStep returns the most recently completed step.
func (s *Simulation) CurrentStep() uint64 { return s.step }

// Step advances the simulation by one year. Phases are strictly ordered:
// build (exclusive), query (concurrent, read-only over index and table),
// apply + demographics (exclusive again), statistics.
func (s *Simulation) Step() error {
	s.step++

	// Build phase. Nothing samples until this returns.
	if err := s.Env.Update(s.Store); err != nil {
		return fmt.Errorf("step %d: %w", s.step, err)
	}

	// Query phase: workers own disjoint row ranges, write only their own
	// rows, and buffer partner transmissions for after the barrier.
	proposals := s.queryPhase()

	// Apply buffered transmissions now that no reader is in flight.
	for _, t := range proposals {
		agents.Infect(s.Store.Get(t.Partner), t.Source, agents.RouteCasual)
	}

	s.demographics()
	s.Stats.Collect(s.step, s.Store, s.Cfg)
	return nil
}

// queryPhase fans the population out over the worker pool and merges the
// per-worker transmission buffers after the WaitGroup barrier.
func (s *Simulation) queryPhase() []mating.Transmission {
	n := s.Store.Len()
	buffers := make([][]mating.Transmission, s.workers)

	var wg sync.WaitGroup
	chunk := (n + s.workers - 1) / s.workers
	for w := 0; w < s.workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			stream := s.streams[w]
			for i := lo; i < hi; i++ {
				p := s.Store.Get(population.Handle(i))
				buffers[w] = append(buffers[w], s.Behavior.Act(s.Store, p, stream.Rand)...)
			}
		}(w, lo, hi)
	}
	wg.Wait()

	var merged []mating.Transmission
	for _, b := range buffers {
		merged = append(merged, b...)
	}
	return merged
}

// demographics runs stage progression, aging, mortality, and births, then
// compacts the dead out of the store. Handles are invalid afterwards until
// the next rebuild.
func (s *Simulation) demographics() {
	var newborns []agents.Person

	s.Store.ForEach(func(_ population.Handle, p *agents.Person) {
		if !p.Alive {
			return
		}
		s.Cfg.Disease.Progress(p, s.root.Rand)
		p.Age++

		if p.Age > float32(s.Cfg.LifeExpectancy) || s.root.Float64() < s.Cfg.MortalityRate {
			p.Alive = false
			return
		}

		if p.IsFemale() && p.Age >= float32(s.Cfg.MinAge) && p.Age <= float32(s.Cfg.MaxAge) {
			if s.root.Float64() < s.Cfg.BirthRate {
				child := s.Spawner.SpawnChild(p, s.step)
				if p.IsInfected() && s.root.Float64() < s.Cfg.Disease.MotherToChild {
					agents.Infect(&child, p.State, agents.RouteBirth)
				}
				newborns = append(newborns, child)
			}
		}
	})

	deaths := s.Store.Compact()
	for _, child := range newborns {
		s.Store.Add(child)
	}

	slog.Debug("demographics",
		"step", s.step,
		"deaths", deaths,
		"births", len(newborns),
		"population", humanize.Comma(int64(s.Store.Len())),
	)
}

// Run executes the configured number of yearly steps, logging a report each
// decade.
func (s *Simulation) Run() error {
	for i := 0; i < s.Cfg.Years; i++ {
		if err := s.Step(); err != nil {
			return err
		}
		if s.step%10 == 0 {
			s.logReport()
		}
	}
	return nil
}

func (s *Simulation) logReport() {
	last := s.Stats.Last()
	slog.Info("step report",
		"step", s.step,
		"population", humanize.Comma(int64(s.Store.Len())),
		"healthy", humanize.Comma(int64(last["healthy"])),
		"infected", humanize.Comma(int64(last["infected"])),
		"prevalence", fmt.Sprintf("%.4f", last["prevalence"]),
		"prevalence_15_49", fmt.Sprintf("%.4f", last["prevalence_15_49"]),
	)
}
