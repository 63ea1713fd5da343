package model

import "time"

// Shared defaults used by both the client and sim binaries.
const (
	// DeckPositions is the fixed number of nests on a Bravo deck.
	DeckPositions = 9

	// MaxFeedEntries caps the activity feed; older entries are evicted.
	MaxFeedEntries = 15

	// GlowDuration is how long an operation highlight stays lit.
	GlowDuration = 1000 * time.Millisecond

	// DefaultEndpoint is the visualizer feed the client connects to.
	DefaultEndpoint = "ws://localhost:8765"

	DefaultSkin = "default"
)

// Labware tags carried on the wire. The set is open ended: the store and
// renderer accept any string and display it verbatim.
const (
	LabwareEmpty     = "empty"
	LabwareTips      = "tips"
	LabwarePlate96   = "plate-96"
	LabwarePlate384  = "plate-384"
	LabwareReservoir = "reservoir"
)
