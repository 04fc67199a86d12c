// Package population provides the agent store: a value-slice arena owning
// every person in the simulation. All other subsystems refer to persons by
// Handle — a row index into the arena — never by pointer, so a removal can
// never leave a dangling reference; the partner index bounds staleness by
// rebuilding from the store once per step.
package population

import "github.com/talgya/epiworld/internal/agents"

// Handle is a weak reference to a person: the row index in the store.
// Handles are only valid until the next Compact.
type Handle int32

// NoHandle is returned by lookups that found nobody. It is never a valid row.
const NoHandle Handle = -1

// Store owns the population arena.
type Store struct {
	people []agents.Person
}

// New creates a store seeded with an initial population. The slice is taken
// over by the store; callers must not retain it.
func New(people []agents.Person) *Store {
	return &Store{people: people}
}

// Len returns the number of persons currently in the store, dead included
// until the next Compact.
func (s *Store) Len() int {
	return len(s.people)
}

// Get returns the person at the given handle. The pointer is only stable
// until the next Add or Compact.
func (s *Store) Get(h Handle) *agents.Person {
	return &s.people[h]
}

// Add appends a person and returns its handle.
func (s *Store) Add(p agents.Person) Handle {
	s.people = append(s.people, p)
	return Handle(len(s.people) - 1)
}

// ForEach calls fn for every person in the store, alive or not.
func (s *Store) ForEach(fn func(h Handle, p *agents.Person)) {
	for i := range s.people {
		fn(Handle(i), &s.people[i])
	}
}

// Compact removes dead persons with swap-delete and returns how many were
// removed. Every outstanding handle is invalidated; the caller must rebuild
// any index before sampling again.
func (s *Store) Compact() int {
	removed := 0
	for i := 0; i < len(s.people); {
		if s.people[i].Alive {
			i++
			continue
		}
		last := len(s.people) - 1
		s.people[i] = s.people[last]
		s.people = s.people[:last]
		removed++
	}
	return removed
}
