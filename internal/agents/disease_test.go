package agents_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/epiworld/internal/agents"
)

func TestTransmissionProbability(t *testing.T) {
	t.Parallel()

	d := agents.DefaultDiseaseParams()

	require.Zero(t, d.TransmissionProbability(agents.StateHealthy))
	require.Equal(t, d.TransmissionAcute, d.TransmissionProbability(agents.StateAcute))
	require.Equal(t, d.TransmissionChronic, d.TransmissionProbability(agents.StateChronic))
	require.Equal(t, d.TransmissionTreated, d.TransmissionProbability(agents.StateTreated))
	require.Equal(t, d.TransmissionFailing, d.TransmissionProbability(agents.StateFailing))
}

func TestProgress_DeterministicTransitions(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(1))

	certain := agents.DiseaseParams{
		AcuteToChronic:   1,
		ChronicToTreated: 1,
		TreatedToFailing: 1,
		FailingToTreated: 1,
	}

	p := agents.Person{State: agents.StateAcute, Alive: true}
	certain.Progress(&p, r)
	require.Equal(t, agents.StateChronic, p.State)
	certain.Progress(&p, r)
	require.Equal(t, agents.StateTreated, p.State)
	certain.Progress(&p, r)
	require.Equal(t, agents.StateFailing, p.State)
	certain.Progress(&p, r)
	require.Equal(t, agents.StateTreated, p.State)

	never := agents.DiseaseParams{}
	p = agents.Person{State: agents.StateAcute, Alive: true}
	for i := 0; i < 10; i++ {
		never.Progress(&p, r)
	}
	require.Equal(t, agents.StateAcute, p.State)

	healthy := agents.Person{State: agents.StateHealthy, Alive: true}
	certain.Progress(&healthy, r)
	require.Equal(t, agents.StateHealthy, healthy.State, "progression never infects")
}

func TestInfect(t *testing.T) {
	t.Parallel()

	p := agents.Person{State: agents.StateHealthy, Alive: true}
	agents.Infect(&p, agents.StateChronic, agents.RouteCasual)
	require.Equal(t, agents.StateAcute, p.State)
	require.Equal(t, agents.StateChronic, p.SourceState)
	require.Equal(t, agents.RouteCasual, p.Route)

	// A second exposure never rewrites the bookkeeping.
	agents.Infect(&p, agents.StateFailing, agents.RouteBirth)
	require.Equal(t, agents.StateChronic, p.SourceState)
	require.Equal(t, agents.RouteCasual, p.Route)
}

func TestStateName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "healthy", agents.StateName(agents.StateHealthy))
	require.Equal(t, "failing", agents.StateName(agents.StateFailing))
	require.Equal(t, "unknown", agents.StateName(agents.State(99)))
}
