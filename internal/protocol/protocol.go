package protocol

import "encoding/json"

// Visualizer Wire Protocol Reference
//
// The feed server pushes JSON frames to every connected client. Each frame
// carries a "type" discriminant; all other fields depend on the type.
//
//   Type                   Fields                                         Effect
//   ─────────────────────  ─────────────────────────────────────────────  ──────────────────────────
//   deck_update            deck: map[position]{labware, volume, active}   bulk/partial deck overwrite
//   operation              operation: string, details: string (optional)  current-operation + feed
//   aspirate_operation     position: int                                  glow, "Aspirating"
//   dispense_operation     position: int                                  glow, "Dispensing"
//   move_operation         position: int                                  glow, "Moving to"
//
// Position keys in deck_update arrive as JSON object keys (strings); values
// outside 1..9 are carried through and no-op downstream. Frames may include
// extra fields (timestamp, state_info, labware_name, ...) which are ignored.
// Unknown type values are ignored without error so newer servers can add
// message types without breaking older clients.
//
// The sim server additionally accepts client commands (the client binary
// never sends any):
//
//   Command             Fields                              Effect
//   ──────────────────  ──────────────────────────────────  ─────────────────────────
//   get_state           (none)                              push deck_update to caller
//   simulate_operation  operation, position, volume         run one simulated op
//   simulate_transfer   from, to, volume                    aspirate then dispense
//   set_labware         position, labware_type              place labware
//   reset_deck          (none)                              clear all nine positions

// Frame discriminants.
const (
	TypeDeckUpdate = "deck_update"
	TypeOperation  = "operation"
	TypeAspirate   = "aspirate_operation"
	TypeDispense   = "dispense_operation"
	TypeMove       = "move_operation"
)

// envelope is the minimal shape every frame shares.
type envelope struct {
	Type string `json:"type"`
}

// deckUpdateFrame is the payload of a deck_update frame.
type deckUpdateFrame struct {
	Deck map[string]positionFrame `json:"deck"`
}

// positionFrame is one position's contents on the wire.
type positionFrame struct {
	Labware string `json:"labware"`
	Volume  int    `json:"volume"`
	Active  bool   `json:"active"`
}

// operationFrame is the payload of an operation frame.
type operationFrame struct {
	Operation string `json:"operation"`
	Details   string `json:"details"`
}

// glowFrame is the payload of the three *_operation frames.
type glowFrame struct {
	Position int `json:"position"`
}

// Command is an inbound control message handled by the sim server.
type Command struct {
	Command   string  `json:"command"`
	Operation string  `json:"operation,omitempty"`
	Position  int     `json:"position,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
	From      int     `json:"from,omitempty"`
	To        int     `json:"to,omitempty"`
	Labware   string  `json:"labware_type,omitempty"`
}

// ParseCommand decodes an inbound client command.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, err
	}
	return cmd, nil
}
