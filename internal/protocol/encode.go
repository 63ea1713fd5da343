package protocol

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/deckwatch/deckwatch/internal/model"
)

// Producer-side framing used by the sim server. The client never sends
// frames; these helpers exist so the sim speaks the exact schema Decode
// consumes.

// EncodeDeckUpdate frames the given deck state as a deck_update message.
func EncodeDeckUpdate(deck model.DeckState, at time.Time) ([]byte, error) {
	wire := make(map[string]positionFrame, len(deck))
	for id, pos := range deck {
		wire[strconv.Itoa(id)] = positionFrame{
			Labware: pos.Labware,
			Volume:  pos.Volume,
			Active:  pos.Active,
		}
	}
	return json.Marshal(struct {
		Type      string                   `json:"type"`
		Deck      map[string]positionFrame `json:"deck"`
		Timestamp string                   `json:"timestamp"`
	}{TypeDeckUpdate, wire, at.Format(time.RFC3339)})
}

// EncodeOperation frames a current-operation announcement.
func EncodeOperation(operation, details string, at time.Time) ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		Operation string `json:"operation"`
		Details   string `json:"details"`
		Timestamp string `json:"timestamp"`
	}{TypeOperation, operation, details, at.Format(time.RFC3339)})
}

// EncodeGlow frames a transient operation highlight for one position.
func EncodeGlow(kind GlowKind, position int, at time.Time) ([]byte, error) {
	frameType := TypeAspirate
	switch kind {
	case GlowDispense:
		frameType = TypeDispense
	case GlowMove:
		frameType = TypeMove
	}
	return json.Marshal(struct {
		Type      string `json:"type"`
		Position  int    `json:"position"`
		Timestamp string `json:"timestamp"`
	}{frameType, position, at.Format(time.RFC3339)})
}
