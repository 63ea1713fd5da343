package model

// DefaultLayout returns the demo deck arrangement: tip racks on the corners,
// source/destination plates across the middle row, and a buffer reservoir.
func DefaultLayout() DeckState {
	deck := NewDeckState()
	deck[1] = Position{Labware: LabwareTips}
	deck[2] = Position{Labware: LabwarePlate96, Volume: 150000}
	deck[3] = Position{Labware: LabwarePlate96, Volume: 150000}
	deck[4] = Position{Labware: LabwareReservoir, Volume: 500000}
	deck[6] = Position{Labware: LabwarePlate384, Volume: 150000}
	deck[8] = Position{Labware: LabwarePlate96, Volume: 150000}
	deck[9] = Position{Labware: LabwareTips}
	return deck
}
