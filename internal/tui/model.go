package tui

import (
	"time"

	"github.com/deckwatch/deckwatch/internal/activity"
	"github.com/deckwatch/deckwatch/internal/deck"
	"github.com/deckwatch/deckwatch/internal/wsfeed"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Model is the dashboard's Bubble Tea model. All mutation of the deck store
// and the activity feed happens inside Update, so the whole pipeline runs as
// one cooperative event loop: frames, glow expiries, and clock ticks are all
// messages processed strictly in order.
type Model struct {
	store *deck.Store
	feed  *activity.Feed
	clock clockwork.Clock
	log   zerolog.Logger

	endpoint string
	dial     DialFunc

	// Connection state
	client     FeedConn
	connected  bool
	connecting bool
	spin       spinner.Model

	// Display state
	currentOp   string
	now         time.Time
	width       int
	height      int
	showVolumes bool
	quitting    bool

	keys KeyMap
	skin Skin
}

// FeedConn is the slice of wsfeed.Client the dashboard needs; tests swap in
// a scripted fake.
type FeedConn interface {
	Events() <-chan wsfeed.Event
	Close() error
}

// DialFunc establishes the feed connection. Production wires wsfeed.Dial.
type DialFunc func(endpoint string, logger zerolog.Logger) (FeedConn, error)

// Messages.

type connectedMsg struct{ client FeedConn }

type connectFailedMsg struct{ err error }

// feedEventMsg wraps one transport event pumped from the feed channel.
type feedEventMsg struct{ ev wsfeed.Event }

// glowExpiredMsg retires one outstanding highlight on a position.
type glowExpiredMsg struct{ position int }

// clockTickMsg drives the ~1 Hz time display.
type clockTickMsg time.Time

// New creates a dashboard model that will dial endpoint on Init.
func New(endpoint string, store *deck.Store, feed *activity.Feed, clock clockwork.Clock, dial DialFunc, logger zerolog.Logger, skin Skin) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		store:      store,
		feed:       feed,
		clock:      clock,
		log:        logger,
		endpoint:   endpoint,
		dial:       dial,
		connecting: true,
		spin:       sp,
		currentOp:  "Ready",
		now:        clock.Now(),
		keys:       DefaultKeyMap(),
		skin:       skin,
	}
}

// WrapDial adapts wsfeed.Dial to the DialFunc signature.
func WrapDial(dial func(string, zerolog.Logger) (*wsfeed.Client, error)) DialFunc {
	return func(endpoint string, logger zerolog.Logger) (FeedConn, error) {
		client, err := dial(endpoint, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Connected reports the connection indicator state.
func (m *Model) Connected() bool { return m.connected }

// CurrentOperation returns the current-operation display text.
func (m *Model) CurrentOperation() string { return m.currentOp }
