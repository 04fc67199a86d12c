// Infection stage transitions and per-stage transmission probabilities.
// Stages follow acute → chronic → treated/failing; probabilities are
// scenario parameters, not a clinically validated model.
package agents

import "math/rand"

// DiseaseParams holds the per-step transition and transmission probabilities.
type DiseaseParams struct {
	// Stage transitions, evaluated once per step.
	AcuteToChronic   float64 `yaml:"acute_to_chronic"`
	ChronicToTreated float64 `yaml:"chronic_to_treated"`
	TreatedToFailing float64 `yaml:"treated_to_failing"`
	FailingToTreated float64 `yaml:"failing_to_treated"`

	// Per-act transmission probability by the infected partner's stage.
	TransmissionAcute   float64 `yaml:"transmission_acute"`
	TransmissionChronic float64 `yaml:"transmission_chronic"`
	TransmissionTreated float64 `yaml:"transmission_treated"`
	TransmissionFailing float64 `yaml:"transmission_failing"`

	// Probability a newborn of an infected mother is infected at birth.
	MotherToChild float64 `yaml:"mother_to_child"`
}

// DefaultDiseaseParams returns the baseline scenario probabilities.
func DefaultDiseaseParams() DiseaseParams {
	return DiseaseParams{
		AcuteToChronic:      0.95,
		ChronicToTreated:    0.20,
		TreatedToFailing:    0.05,
		FailingToTreated:    0.30,
		TransmissionAcute:   0.12,
		TransmissionChronic: 0.03,
		TransmissionTreated: 0.002,
		TransmissionFailing: 0.05,
		MotherToChild:       0.25,
	}
}

// TransmissionProbability returns the per-act probability that a person in
// the given stage infects a healthy partner. Healthy sources never transmit.
func (d DiseaseParams) TransmissionProbability(source State) float64 {
	switch source {
	case StateAcute:
		return d.TransmissionAcute
	case StateChronic:
		return d.TransmissionChronic
	case StateTreated:
		return d.TransmissionTreated
	case StateFailing:
		return d.TransmissionFailing
	default:
		return 0
	}
}

// Progress advances a person's infection stage by one step. Healthy persons
// are untouched; transitions draw from the caller's stream.
func (d DiseaseParams) Progress(p *Person, rng *rand.Rand) {
	switch p.State {
	case StateAcute:
		if rng.Float64() < d.AcuteToChronic {
			p.State = StateChronic
		}
	case StateChronic:
		if rng.Float64() < d.ChronicToTreated {
			p.State = StateTreated
		}
	case StateTreated:
		if rng.Float64() < d.TreatedToFailing {
			p.State = StateFailing
		}
	case StateFailing:
		if rng.Float64() < d.FailingToTreated {
			p.State = StateTreated
		}
	}
}

// Infect marks a healthy person as newly infected (acute stage), recording
// the source stage and route for the transmission time series.
func Infect(p *Person, source State, route Route) {
	if p.State != StateHealthy {
		return
	}
	p.State = StateAcute
	p.SourceState = source
	p.Route = route
}
