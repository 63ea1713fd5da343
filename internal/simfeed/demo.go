package simfeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deckwatch/deckwatch/internal/model"
	"github.com/deckwatch/deckwatch/internal/protocol"
)

const (
	// opHold is how long a simulated operation keeps its position active.
	opHold = 1500 * time.Millisecond

	stepGap    = 1 * time.Second
	demoLeadIn = 2 * time.Second
	writeGrace = 1 * time.Second
)

// demoStep is one operation of the canned demo workflow.
type demoStep struct {
	op       string
	position int
	volume   float64
}

// demoSteps mirrors a small transfer workflow: pick up tips, move liquid
// from the source plate to the destination, add buffer to the assay plate,
// wash, and dispose the tips.
var demoSteps = []demoStep{
	{"tips_on", 1, 0},
	{"aspirate", 2, 100},
	{"dispense", 3, 100},
	{"aspirate", 4, 50},
	{"dispense", 6, 50},
	{"wash", 4, 200},
	{"tips_off", 9, 0},
}

// RunDemo loads the default layout and plays the demo workflow until it
// finishes or ctx is cancelled.
func (s *Server) RunDemo(ctx context.Context) error {
	if err := s.sleep(ctx, demoLeadIn); err != nil {
		return err
	}

	s.store.SetLayout(model.DefaultLayout())
	s.BroadcastDeck()
	s.BroadcastOperation("Demo starting...", "")
	if err := s.sleep(ctx, stepGap); err != nil {
		return err
	}

	for i, step := range demoSteps {
		s.BroadcastOperation(fmt.Sprintf("Step %d: %s", i+1, step.op), "")
		if err := s.SimulateOperation(ctx, step.op, step.position, step.volume); err != nil {
			return err
		}
		if err := s.sleep(ctx, stepGap); err != nil {
			return err
		}
	}

	s.BroadcastOperation("Demo complete", "")
	return nil
}

// SimulateOperation plays one operation: glow, operation announcement, deck
// volume change while the position is active, then settle.
func (s *Server) SimulateOperation(ctx context.Context, op string, position int, volume float64) error {
	kind := protocol.GlowMove
	switch op {
	case "aspirate":
		kind = protocol.GlowAspirate
	case "dispense":
		kind = protocol.GlowDispense
	}
	s.SendGlow(kind, position)

	details := ""
	if volume > 0 {
		details = fmt.Sprintf("%.0f µL", volume)
	}
	s.BroadcastOperation(fmt.Sprintf("%s at position %d", titleCase(op), position), details)

	s.applyOperation(op, position, int(volume), true)
	s.BroadcastDeck()

	if err := s.sleep(ctx, opHold); err != nil {
		return err
	}

	s.applyOperation("", position, 0, false)
	s.BroadcastDeck()
	return nil
}

// SimulateTransfer aspirates from one position and dispenses into another.
func (s *Server) SimulateTransfer(ctx context.Context, from, to int, volume float64) error {
	if err := s.SimulateOperation(ctx, "aspirate", from, volume); err != nil {
		return err
	}
	if err := s.sleep(ctx, stepGap/2); err != nil {
		return err
	}
	return s.SimulateOperation(ctx, "dispense", to, volume)
}

// applyOperation updates one position's volume and active flag in the store.
func (s *Server) applyOperation(op string, position, volume int, active bool) {
	pos, ok := s.store.Position(position)
	if !ok {
		return
	}
	switch op {
	case "aspirate":
		pos.Volume -= volume
		if pos.Volume < 0 {
			pos.Volume = 0
		}
	case "dispense":
		pos.Volume += volume
	}
	pos.Active = active
	s.store.Apply(map[int]model.Position{position: pos})
}

func (s *Server) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-s.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func titleCase(op string) string {
	if op == "" {
		return op
	}
	op = strings.ReplaceAll(op, "_", " ")
	return strings.ToUpper(op[:1]) + op[1:]
}
