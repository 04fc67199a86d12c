// Package agents provides the person data model, the infection state
// machine, and synthetic population spawning.
package agents

// PersonID is a unique identifier for a person.
type PersonID uint64

// Sex represents biological sex for demographic simulation.
type Sex uint8

const (
	SexMale   Sex = 0
	SexFemale Sex = 1
)

// State is the infection stage of a person.
type State uint8

const (
	StateHealthy State = iota
	StateAcute
	StateChronic
	StateTreated
	StateFailing // treatment failure
)

// NumStates is the total number of infection stages.
const NumStates = 5

// StateName returns a human-readable stage name for logs and reports.
func StateName(s State) string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateAcute:
		return "acute"
	case StateChronic:
		return "chronic"
	case StateTreated:
		return "treated"
	case StateFailing:
		return "failing"
	default:
		return "unknown"
	}
}

// Route records how a person acquired their infection.
type Route uint8

const (
	RouteNone   Route = iota
	RouteCasual       // casual partner during a step
	RouteBirth        // mother-to-child at birth
)

// Person is the core entity of the simulation. Persons live by value inside
// the population store; everything else refers to them through handles, never
// pointers.
type Person struct {
	ID  PersonID `json:"id"`
	Age float32  `json:"age"` // sim-years, fractional after births mid-run
	Sex Sex      `json:"sex"`

	// Categorical position in the partner index.
	Location        int `json:"location"`
	SocialBehaviour int `json:"social_behaviour"` // risk category, 0 = lowest
	Biomedical      int `json:"biomedical"`       // biomedical risk factor

	// Infection state and bookkeeping.
	State       State `json:"state"`
	SourceState State `json:"source_state,omitempty"` // partner's stage at transmission
	Route       Route `json:"route,omitempty"`

	// Casual partners accumulated over the run (diagnostic).
	CasualPartners uint32 `json:"casual_partners"`

	BornStep uint64 `json:"born_step"`
	Alive    bool   `json:"alive"`
}

// IsHealthy reports whether the person is uninfected.
func (p *Person) IsHealthy() bool { return p.State == StateHealthy }

// IsInfected reports whether the person carries any infection stage.
func (p *Person) IsInfected() bool { return p.State != StateHealthy }

// IsFemale reports whether the person is female.
func (p *Person) IsFemale() bool { return p.Sex == SexFemale }

// IsMale reports whether the person is male.
func (p *Person) IsMale() bool { return p.Sex == SexMale }

// HasHighRiskSocioBehav reports whether the person is in the highest risk
// category of the configured range.
func (p *Person) HasHighRiskSocioBehav(numCategories int) bool {
	return p.SocialBehaviour == numCategories-1
}
