package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/deckwatch/deckwatch/internal/model"
)

// Event is a decoded inbound frame. The concrete types are DeckUpdateEvent,
// OperationEvent, and GlowEvent.
type Event interface {
	event()
}

// DeckUpdateEvent carries a full or partial deck overwrite.
type DeckUpdateEvent struct {
	Positions map[int]model.Position
}

// OperationEvent updates the current-operation display and the feed.
type OperationEvent struct {
	Operation string
	Details   string
}

// GlowKind identifies which transient operation a glow frame announces.
type GlowKind int

const (
	GlowAspirate GlowKind = iota
	GlowDispense
	GlowMove
)

// DisplayName returns the human-readable verb for feed entries.
func (k GlowKind) DisplayName() string {
	switch k {
	case GlowAspirate:
		return "Aspirating"
	case GlowDispense:
		return "Dispensing"
	case GlowMove:
		return "Moving to"
	}
	return "Operating"
}

// GlowEvent triggers a bounded-duration highlight at one position.
type GlowEvent struct {
	Position int
	Kind     GlowKind
}

// FeedMessage formats the activity-feed line for a glow event.
func (e GlowEvent) FeedMessage() string {
	return fmt.Sprintf("%s at position %d", e.Kind.DisplayName(), e.Position)
}

func (DeckUpdateEvent) event() {}
func (OperationEvent) event()  {}
func (GlowEvent) event()       {}

// Decode parses one inbound frame. Unknown discriminants return (nil, nil):
// they are not errors, just frames this client does not understand. A non-nil
// error means the frame was malformed and should be discarded; decode errors
// never justify dropping the connection.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("protocol: parse frame: %w", err)
	}

	switch env.Type {
	case TypeDeckUpdate:
		var frame deckUpdateFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("protocol: parse deck_update: %w", err)
		}
		positions := make(map[int]model.Position, len(frame.Deck))
		for key, pos := range frame.Deck {
			id, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("protocol: deck_update position %q: %w", key, err)
			}
			positions[id] = model.Position{
				Labware: pos.Labware,
				Volume:  pos.Volume,
				Active:  pos.Active,
			}
		}
		return DeckUpdateEvent{Positions: positions}, nil

	case TypeOperation:
		var frame operationFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("protocol: parse operation: %w", err)
		}
		return OperationEvent{Operation: frame.Operation, Details: frame.Details}, nil

	case TypeAspirate, TypeDispense, TypeMove:
		var frame glowFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("protocol: parse %s: %w", env.Type, err)
		}
		kind := GlowAspirate
		switch env.Type {
		case TypeDispense:
			kind = GlowDispense
		case TypeMove:
			kind = GlowMove
		}
		return GlowEvent{Position: frame.Position, Kind: kind}, nil
	}

	// Forward compatible: silently ignore anything we don't recognize.
	return nil, nil
}
