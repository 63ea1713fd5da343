package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/deckwatch/deckwatch/internal/activity"
	"github.com/deckwatch/deckwatch/internal/deck"
	"github.com/deckwatch/deckwatch/internal/model"
	"github.com/deckwatch/deckwatch/internal/wsfeed"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// fakeConn is a scripted FeedConn.
type fakeConn struct {
	events     chan wsfeed.Event
	closeCalls int
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan wsfeed.Event, 16)}
}

func (f *fakeConn) Events() <-chan wsfeed.Event { return f.events }
func (f *fakeConn) Close() error                { f.closeCalls++; return nil }

func newTestModel(t *testing.T) (*Model, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	dial := func(string, zerolog.Logger) (FeedConn, error) { return conn, nil }
	m := New(model.DefaultEndpoint, deck.NewStore(), activity.NewFeed(clockwork.NewFakeClock()),
		clockwork.NewFakeClock(), dial, zerolog.Nop(), DefaultSkin())
	return m, conn
}

// connect drives the model through the established transition.
func connect(t *testing.T, m *Model, conn *fakeConn) {
	t.Helper()
	if _, cmd := m.Update(connectedMsg{client: conn}); cmd == nil {
		t.Fatal("connect should arm the event pump")
	}
}

func feedFrame(t *testing.T, m *Model, frame string) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(feedEventMsg{ev: wsfeed.Event{Kind: wsfeed.EventFrame, Data: []byte(frame)}})
	return cmd
}

func feedMessages(m *Model) []string {
	entries := m.feed.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestConnectionEstablished(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)

	if !m.Connected() {
		t.Fatal("indicator should be connected")
	}
	if msgs := feedMessages(m); len(msgs) != 1 || msgs[0] != "Connected to Bravo server" {
		t.Fatalf("feed = %v", msgs)
	}
}

func TestConnectionFailed(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(connectFailedMsg{err: errTest})

	if m.Connected() {
		t.Fatal("indicator should be disconnected")
	}
	msgs := feedMessages(m)
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "Connection failed:") {
		t.Fatalf("feed = %v", msgs)
	}
}

func TestConnectionClosed(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)

	m.Update(feedEventMsg{ev: wsfeed.Event{Kind: wsfeed.EventClosed}})
	if m.Connected() {
		t.Fatal("indicator should drop on close")
	}
	if msgs := feedMessages(m); msgs[0] != "Disconnected from server" {
		t.Fatalf("feed = %v", msgs)
	}
}

func TestDeckUpdateFrame(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)

	feedFrame(t, m, `{"type":"deck_update","deck":{"4":{"labware":"reservoir","volume":500000,"active":false}}}`)

	pos, _ := m.store.Position(4)
	if pos.Labware != "reservoir" || pos.Volume != 500000 {
		t.Fatalf("position 4 = %+v", pos)
	}
	// Untouched positions keep their initial values.
	if pos, _ := m.store.Position(1); pos.Labware != model.LabwareEmpty {
		t.Fatalf("position 1 = %+v", pos)
	}
}

func TestOperationFrame(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)

	feedFrame(t, m, `{"type":"operation","operation":"Aspirate at position 2","details":"100 µL"}`)

	if m.CurrentOperation() != "Aspirate at position 2" {
		t.Fatalf("current operation = %q", m.CurrentOperation())
	}
	if msgs := feedMessages(m); msgs[0] != "Aspirate at position 2 (100 µL)" {
		t.Fatalf("feed = %v", msgs)
	}
}

func TestGlowTriggerAndExpiry(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)

	cmd := feedFrame(t, m, `{"type":"aspirate_operation","position":3}`)
	if cmd == nil {
		t.Fatal("glow trigger should schedule a removal")
	}
	if !m.store.Glowing(3) {
		t.Fatal("position 3 should glow immediately")
	}
	if msgs := feedMessages(m); msgs[0] != "Aspirating at position 3" {
		t.Fatalf("feed = %v", msgs)
	}

	m.Update(glowExpiredMsg{position: 3})
	if m.store.Glowing(3) {
		t.Fatal("highlight should clear after the removal fires")
	}
}

func TestGlowOverlapOnSamePosition(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)

	feedFrame(t, m, `{"type":"aspirate_operation","position":5}`)
	feedFrame(t, m, `{"type":"dispense_operation","position":5}`)

	// First removal fires while the second trigger is still in flight:
	// the refcounted overlay keeps the highlight lit.
	m.Update(glowExpiredMsg{position: 5})
	if !m.store.Glowing(5) {
		t.Fatal("highlight dropped before the second removal")
	}
	m.Update(glowExpiredMsg{position: 5})
	if m.store.Glowing(5) {
		t.Fatal("highlight should clear after the last removal")
	}
}

func TestGlowSequenceLogOrder(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)

	feedFrame(t, m, `{"type":"aspirate_operation","position":2}`)
	feedFrame(t, m, `{"type":"dispense_operation","position":5}`)

	// Newest first: the feed reverses emission order.
	msgs := feedMessages(m)
	if msgs[0] != "Dispensing at position 5" || msgs[1] != "Aspirating at position 2" {
		t.Fatalf("feed = %v", msgs)
	}
}

func TestGlowUnknownPositionSilent(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)
	before := m.feed.Len()

	cmd := feedFrame(t, m, `{"type":"move_operation","position":12}`)
	if cmd != nil {
		// The batch still contains the pump re-arm; the point is no glow
		// and no feed entry below.
		_ = cmd
	}
	if m.store.Glowing(12) {
		t.Fatal("off-deck position glowing")
	}
	if m.feed.Len() != before {
		t.Fatalf("feed grew for an off-deck glow: %v", feedMessages(m))
	}
}

func TestMalformedFrameLoggedAndDiscarded(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)

	cmd := feedFrame(t, m, `{broken`)
	if !m.Connected() {
		t.Fatal("a bad frame must not take the connection down")
	}
	if cmd == nil {
		t.Fatal("the event pump should be re-armed after a bad frame")
	}
	msgs := feedMessages(m)
	if !strings.HasPrefix(msgs[0], "Decode error:") {
		t.Fatalf("feed = %v", msgs)
	}
}

func TestUnknownTypeIgnored(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)
	before := m.feed.Len()

	feedFrame(t, m, `{"type":"firmware_status","ok":true}`)
	if m.feed.Len() != before {
		t.Fatalf("unknown frame type changed the feed: %v", feedMessages(m))
	}
}

func TestQuitClosesTransportOnce(t *testing.T) {
	m, conn := newTestModel(t)
	connect(t, m, conn)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("quit should produce a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("quit key should quit the program")
	}
	if conn.closeCalls != 1 {
		t.Fatalf("transport closed %d times, want 1", conn.closeCalls)
	}
}

// errTest is a sentinel for connection failures.
var errTest = errors.New("connection refused")
