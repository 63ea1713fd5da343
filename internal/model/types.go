package model

import "time"

// Position represents the contents of a single deck position.
// It is the canonical type for transport (wire protocol), state, and display.
type Position struct {
	Labware string `json:"labware"` // open-ended tag; "empty" when vacant
	Volume  int    `json:"volume"`  // µL, display only
	Active  bool   `json:"active"`  // presentational highlight mid-operation
}

// DeckState maps position ids 1..9 to their contents. The cardinality is
// fixed: positions never appear or disappear, only their values change.
type DeckState map[int]Position

// NewDeckState returns a deck with all nine positions vacant.
func NewDeckState() DeckState {
	deck := make(DeckState, DeckPositions)
	for id := 1; id <= DeckPositions; id++ {
		deck[id] = Position{Labware: LabwareEmpty}
	}
	return deck
}

// Clone returns a deep copy of the deck state.
func (d DeckState) Clone() DeckState {
	out := make(DeckState, len(d))
	for id, pos := range d {
		out[id] = pos
	}
	return out
}

// FeedEntry is one line of the activity feed.
type FeedEntry struct {
	At      time.Time
	Message string
}
