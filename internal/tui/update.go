package tui

import (
	"fmt"
	"time"

	"github.com/deckwatch/deckwatch/internal/model"
	"github.com/deckwatch/deckwatch/internal/protocol"
	"github.com/deckwatch/deckwatch/internal/wsfeed"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Init dials the feed and starts the clock.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.dialCmd(),
		m.spin.Tick,
		clockTickCmd(),
	)
}

// dialCmd attempts the single connection. Failure becomes a feed entry, not
// a crash: the dashboard stays up, disconnected.
func (m *Model) dialCmd() tea.Cmd {
	endpoint := m.endpoint
	dial := m.dial
	logger := m.log
	return func() tea.Msg {
		client, err := dial(endpoint, logger)
		if err != nil {
			return connectFailedMsg{err: err}
		}
		return connectedMsg{client: client}
	}
}

// waitForEvent pumps the next transport event into the update loop. It
// re-arms itself after every frame, preserving strict arrival order: no two
// frames are ever in flight at once.
func waitForEvent(events <-chan wsfeed.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return feedEventMsg{ev: ev}
	}
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case connectedMsg:
		m.client = msg.client
		m.connected = true
		m.connecting = false
		m.feed.Append("Connected to Bravo server")
		return m, waitForEvent(m.client.Events())

	case connectFailedMsg:
		m.connecting = false
		m.connected = false
		m.feed.Append(fmt.Sprintf("Connection failed: %v", msg.err))
		return m, nil

	case feedEventMsg:
		return m.handleFeedEvent(msg.ev)

	case glowExpiredMsg:
		m.store.EndGlow(msg.position)
		return m, nil

	case clockTickMsg:
		m.now = time.Time(msg)
		return m, clockTickCmd()

	case spinner.TickMsg:
		if !m.connecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
		m.quitting = true
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.ToggleVolumes):
		m.showVolumes = !m.showVolumes
		return m, nil
	}
	return m, nil
}

// shutdown releases the transport exactly once; wsfeed.Close is idempotent,
// so a second teardown path is harmless.
func (m *Model) shutdown() {
	if m.client != nil {
		_ = m.client.Close()
	}
}

// handleFeedEvent routes one transport event through the decoder and into
// the store, the feed, and the animator.
func (m *Model) handleFeedEvent(ev wsfeed.Event) (tea.Model, tea.Cmd) {
	if ev.Kind == wsfeed.EventClosed {
		m.connected = false
		m.client = nil
		m.feed.Append("Disconnected from server")
		return m, nil
	}

	cmd := m.applyFrame(ev.Data)

	// Re-arm the pump only while the connection lives.
	if m.client != nil {
		return m, tea.Batch(cmd, waitForEvent(m.client.Events()))
	}
	return m, cmd
}

// applyFrame decodes and applies one frame. Malformed frames are logged and
// discarded; they never take the connection down.
func (m *Model) applyFrame(data []byte) tea.Cmd {
	event, err := protocol.Decode(data)
	if err != nil {
		m.log.Warn().Err(err).Msg("discarding malformed frame")
		m.feed.Append(fmt.Sprintf("Decode error: %v", err))
		return nil
	}

	switch event := event.(type) {
	case protocol.DeckUpdateEvent:
		m.store.Apply(event.Positions)

	case protocol.OperationEvent:
		m.currentOp = event.Operation
		entry := event.Operation
		if event.Details != "" {
			entry += " (" + event.Details + ")"
		}
		m.feed.Append(entry)

	case protocol.GlowEvent:
		return m.triggerGlow(event)
	}

	// nil event: unknown discriminant, silently ignored.
	return nil
}

// triggerGlow lights a position and schedules this trigger's own removal.
// The store reference-counts overlapping triggers, so the highlight clears
// only when the last removal fires.
func (m *Model) triggerGlow(event protocol.GlowEvent) tea.Cmd {
	if !m.store.StartGlow(event.Position) {
		return nil // no such position on the deck
	}
	m.feed.Append(event.FeedMessage())

	position := event.Position
	return tea.Tick(model.GlowDuration, func(time.Time) tea.Msg {
		return glowExpiredMsg{position: position}
	})
}
