// Package deck owns the in-memory mirror of the nine-position Bravo deck.
//
// The store is the single authority for deck contents. The TUI update loop is
// the only writer in the client; the sim server shares one store across its
// connection goroutines, so all access is serialized behind one mutex either
// way. Readers always get copies, never live references.
package deck

import (
	"sort"
	"sync"

	"github.com/deckwatch/deckwatch/internal/model"
)

// Store holds the current deck state and the transient highlight overlay.
type Store struct {
	mu    sync.Mutex
	state model.DeckState
	glow  map[int]int // position -> outstanding highlight count
}

// NewStore returns a store with all nine positions vacant.
func NewStore() *Store {
	return &Store{
		state: model.NewDeckState(),
		glow:  make(map[int]int),
	}
}

// Apply overwrites the supplied positions and leaves the rest untouched.
// Labware tags are not validated; whatever the server sent is stored and
// rendered verbatim. It returns the touched position ids in ascending order,
// which callers use as the render batch.
func (s *Store) Apply(update map[int]model.Position) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make([]int, 0, len(update))
	for id, pos := range update {
		if _, ok := s.state[id]; !ok {
			continue // not a deck position, no-op
		}
		s.state[id] = pos
		touched = append(touched, id)
	}
	sort.Ints(touched)
	return touched
}

// SetLayout replaces the whole deck with the given arrangement.
func (s *Store) SetLayout(layout model.DeckState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.state {
		if pos, ok := layout[id]; ok {
			s.state[id] = pos
		} else {
			s.state[id] = model.Position{Labware: model.LabwareEmpty}
		}
	}
}

// Reset returns every position to empty/0/false.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.state {
		s.state[id] = model.Position{Labware: model.LabwareEmpty}
	}
}

// Snapshot returns a copy of the current deck state.
func (s *Store) Snapshot() model.DeckState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Position returns one position's contents and whether the id is on the deck.
func (s *Store) Position(id int) (model.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.state[id]
	return pos, ok
}
