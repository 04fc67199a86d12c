package engine

import (
	"github.com/talgya/epiworld/internal/agents"
	"github.com/talgya/epiworld/internal/config"
	"github.com/talgya/epiworld/internal/population"
)

// TimeSeries accumulates per-step population statistics for reporting and
// persistence.
type TimeSeries struct {
	steps  []uint64
	order  []string
	series map[string][]float64
}

// NewTimeSeries creates an empty collector set.
func NewTimeSeries() *TimeSeries {
	return &TimeSeries{series: make(map[string][]float64)}
}

// Steps returns the recorded step numbers.
func (ts *TimeSeries) Steps() []uint64 { return ts.steps }

// Names returns the series names in collection order.
func (ts *TimeSeries) Names() []string { return ts.order }

// Values returns the recorded values for a series, nil if unknown.
func (ts *TimeSeries) Values(name string) []float64 { return ts.series[name] }

// Last returns the most recent value of every series.
func (ts *TimeSeries) Last() map[string]float64 {
	out := make(map[string]float64, len(ts.order))
	for _, name := range ts.order {
		vals := ts.series[name]
		if len(vals) > 0 {
			out[name] = vals[len(vals)-1]
		}
	}
	return out
}

func (ts *TimeSeries) add(name string, v float64) {
	if _, ok := ts.series[name]; !ok {
		ts.order = append(ts.order, name)
	}
	ts.series[name] = append(ts.series[name], v)
}

// Collect scans the population once and appends every series for the step.
func (ts *TimeSeries) Collect(step uint64, store *population.Store, cfg config.Config) {
	var (
		total, healthy, acute, chronic, treated, failing int
		women, infectedWomen                             int
		adults1549, infected1549                         int
		mtct, casual                                     int
		menLowSB, menHighSB                              int
		casualLowSB, casualHighSB                        uint64
	)

	store.ForEach(func(_ population.Handle, p *agents.Person) {
		if !p.Alive {
			return
		}
		total++
		switch p.State {
		case agents.StateHealthy:
			healthy++
		case agents.StateAcute:
			acute++
		case agents.StateChronic:
			chronic++
		case agents.StateTreated:
			treated++
		case agents.StateFailing:
			failing++
		}
		if p.IsFemale() {
			women++
			if p.IsInfected() {
				infectedWomen++
			}
		}
		if p.Age >= 15 && p.Age <= 49 {
			adults1549++
			if p.IsInfected() {
				infected1549++
			}
		}
		if p.IsInfected() {
			switch p.Route {
			case agents.RouteBirth:
				mtct++
			case agents.RouteCasual:
				casual++
			}
		}
		if p.IsMale() && p.Age >= float32(cfg.MinAge) && p.Age < 50 {
			if p.HasHighRiskSocioBehav(cfg.SocioBehaviours) {
				menHighSB++
				casualHighSB += uint64(p.CasualPartners)
			} else if p.SocialBehaviour == 0 {
				menLowSB++
				casualLowSB += uint64(p.CasualPartners)
			}
		}
	})

	infected := total - healthy

	ts.steps = append(ts.steps, step)
	ts.add("population", float64(total))
	ts.add("healthy", float64(healthy))
	ts.add("infected", float64(infected))
	ts.add("acute", float64(acute))
	ts.add("chronic", float64(chronic))
	ts.add("treated", float64(treated))
	ts.add("failing", float64(failing))
	ts.add("mtct_transmission", float64(mtct))
	ts.add("casual_transmission", float64(casual))
	ts.add("prevalence", ratio(infected, total))
	ts.add("prevalence_women", ratio(infectedWomen, women))
	ts.add("prevalence_15_49", ratio(infected1549, adults1549))
	ts.add("incidence", ratio(acute, total))
	ts.add("mean_casual_low_sb", ratio64(casualLowSB, menLowSB))
	ts.add("mean_casual_high_sb", ratio64(casualHighSB, menHighSB))
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func ratio64(num uint64, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
