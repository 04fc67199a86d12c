package population_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/epiworld/internal/agents"
	"github.com/talgya/epiworld/internal/population"
)

func alive(id uint64) agents.Person {
	return agents.Person{ID: agents.PersonID(id), Alive: true}
}

func TestStore_AddAndGet(t *testing.T) {
	t.Parallel()

	store := population.New(nil)
	require.Zero(t, store.Len())

	h := store.Add(alive(1))
	require.Equal(t, 1, store.Len())
	require.Equal(t, agents.PersonID(1), store.Get(h).ID)
}

func TestStore_ForEachVisitsEveryRow(t *testing.T) {
	t.Parallel()

	store := population.New([]agents.Person{alive(1), alive(2), alive(3)})

	var ids []agents.PersonID
	store.ForEach(func(h population.Handle, p *agents.Person) {
		require.Equal(t, p, store.Get(h))
		ids = append(ids, p.ID)
	})
	require.ElementsMatch(t, []agents.PersonID{1, 2, 3}, ids)
}

func TestStore_CompactRemovesDead(t *testing.T) {
	t.Parallel()

	people := []agents.Person{alive(1), alive(2), alive(3), alive(4)}
	people[1].Alive = false
	people[3].Alive = false
	store := population.New(people)

	removed := store.Compact()
	require.Equal(t, 2, removed)
	require.Equal(t, 2, store.Len())

	var ids []agents.PersonID
	store.ForEach(func(_ population.Handle, p *agents.Person) {
		require.True(t, p.Alive)
		ids = append(ids, p.ID)
	})
	require.ElementsMatch(t, []agents.PersonID{1, 3}, ids)
}

func TestStore_CompactHandlesDeadRun(t *testing.T) {
	t.Parallel()

	// Adjacent dead rows, including first and last positions.
	people := []agents.Person{alive(1), alive(2), alive(3)}
	people[0].Alive = false
	people[2].Alive = false
	store := population.New(people)

	require.Equal(t, 2, store.Compact())
	require.Equal(t, 1, store.Len())
	require.Equal(t, agents.PersonID(2), store.Get(0).ID)
}

func TestStore_CompactAllDead(t *testing.T) {
	t.Parallel()

	people := []agents.Person{alive(1), alive(2)}
	people[0].Alive = false
	people[1].Alive = false
	store := population.New(people)

	require.Equal(t, 2, store.Compact())
	require.Zero(t, store.Len())
}
