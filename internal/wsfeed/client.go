// Package wsfeed owns the single WebSocket connection to the visualizer feed.
//
// The client is a pure consumer: it never writes a frame upstream. Dialing is
// attempted exactly once; when the connection drops the client reports it and
// stays down. Reconnection is deliberately out of scope — the operator
// restarts the binary against a live server.
package wsfeed

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// EventKind classifies feed events delivered to the consumer.
type EventKind int

const (
	// EventFrame carries one raw inbound frame.
	EventFrame EventKind = iota
	// EventClosed reports that the connection is gone. It is the final
	// event; the channel closes after it.
	EventClosed
)

// Event is one observable occurrence on the feed connection.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error // set on EventClosed when the close was not clean
}

// Client wraps one feed connection and pumps its frames to a channel in
// strict arrival order.
type Client struct {
	conn      *websocket.Conn
	events    chan Event
	log       zerolog.Logger
	closeOnce sync.Once
}

const dialTimeout = 5 * time.Second

// Dial connects to the feed endpoint and starts the read pump. A successful
// return is the connection-established transition; failure is returned to the
// caller, which surfaces it in the activity feed rather than crashing.
func Dial(endpoint string, logger zerolog.Logger) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("wsfeed: dial %s: %w", endpoint, err)
	}

	c := &Client{
		conn:   conn,
		events: make(chan Event, 64),
		log:    logger,
	}
	go c.readPump()

	logger.Info().Str("endpoint", endpoint).Msg("feed connected")
	return c, nil
}

// Events returns the ordered event stream. The channel closes after the
// terminal EventClosed.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close tears the connection down. Safe to call more than once; the second
// and later calls are no-ops, matching the idempotent-teardown requirement.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// readPump forwards frames until the connection dies, then emits the
// terminal close event. Frames are delivered one at a time on a single
// channel, so consumers observe strict arrival order with no concurrent
// in-flight processing.
func (c *Client) readPump() {
	defer close(c.events)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn().Err(err).Msg("feed closed unexpectedly")
			} else {
				c.log.Info().Msg("feed closed")
				err = nil
			}
			c.events <- Event{Kind: EventClosed, Err: err}
			return
		}
		c.events <- Event{Kind: EventFrame, Data: data}
	}
}
