// Package simfeed is a development stand-in for the Bravo control server.
// It speaks the visualizer wire protocol over WebSocket: pushes the current
// deck to new clients, broadcasts state changes and operation glows, and
// accepts the simulation commands the original server understood. The TUI
// client connects to it exactly as it would to real hardware control.
package simfeed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/deckwatch/deckwatch/internal/deck"
	"github.com/deckwatch/deckwatch/internal/model"
	"github.com/deckwatch/deckwatch/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const sendBufferSize = 64

// Server broadcasts deck state to every connected visualizer client.
type Server struct {
	addr     string
	store    *deck.Store
	clock    clockwork.Clock
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu        sync.Mutex
	clients   map[*client]bool
	currentOp string

	listener net.Listener
	httpSrv  *http.Server
	wg       sync.WaitGroup

	// Lifetime of command-spawned simulations; cancelled in Stop.
	ctx    context.Context
	cancel context.CancelFunc
}

// client is one connected visualizer with its own write pump, since a
// websocket connection only tolerates a single writer.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer creates a sim server around a shared deck store.
// Default addr is "localhost:8765".
func NewServer(addr string, store *deck.Store, clock clockwork.Clock, logger zerolog.Logger) *Server {
	if addr == "" {
		addr = "localhost:8765"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:    addr,
		store:   store,
		clock:   clock,
		log:     logger,
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins accepting WebSocket connections.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	s.httpSrv = &http.Server{Handler: mux}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("serve")
		}
	}()

	s.log.Info().Str("addr", s.Addr()).Msg("sim feed listening")
	return nil
}

// Addr returns the active listen address. Before Start, it returns the
// configured address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down, cancels in-flight simulations, and drops
// every client.
func (s *Server) Stop() error {
	s.cancel()

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Close()
	}

	s.mu.Lock()
	for c := range s.clients {
		close(c.send)
		delete(s.clients, c)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// ClientCount returns the number of connected visualizers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	s.mu.Lock()
	s.clients[c] = true
	total := len(s.clients)
	s.mu.Unlock()
	s.log.Info().Str("remote", conn.RemoteAddr().String()).Int("total", total).Msg("client connected")

	s.wg.Add(2)
	go s.writePump(c)
	go s.readPump(c)

	// New clients get the current deck right away.
	if frame, err := protocol.EncodeDeckUpdate(s.store.Snapshot(), s.clock.Now()); err == nil {
		s.sendTo(c, frame)
	}
}

func (s *Server) dropClient(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	total := len(s.clients)
	s.mu.Unlock()
	s.log.Info().Int("total", total).Msg("client disconnected")
}

func (s *Server) writePump(c *client) {
	defer s.wg.Done()
	defer c.conn.Close()

	for frame := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, s.clock.Now().Add(writeGrace))
}

func (s *Server) readPump(c *client) {
	defer s.wg.Done()
	defer s.dropClient(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		cmd, err := protocol.ParseCommand(data)
		if err != nil {
			s.log.Warn().Err(err).Msg("bad command")
			continue
		}
		s.handleCommand(c, cmd)
	}
}

// sendTo queues one frame to a single client, dropping the client when its
// buffer is full (slow or dead consumer). The send happens under s.mu:
// c.send is closed only by dropClient and Stop, both of which hold the lock,
// so a membership check and the send are atomic with respect to the close.
func (s *Server) sendTo(c *client, frame []byte) {
	s.mu.Lock()
	if !s.clients[c] {
		s.mu.Unlock()
		return
	}
	select {
	case c.send <- frame:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		s.log.Warn().Msg("client send buffer full, dropping client")
		s.dropClient(c)
	}
}

// broadcast queues one frame to every client.
func (s *Server) broadcast(frame []byte) {
	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		s.sendTo(c, frame)
	}
}

// BroadcastDeck pushes the current deck state to every client.
func (s *Server) BroadcastDeck() {
	frame, err := protocol.EncodeDeckUpdate(s.store.Snapshot(), s.clock.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("encode deck_update")
		return
	}
	s.broadcast(frame)
}

// BroadcastOperation announces the current operation to every client.
func (s *Server) BroadcastOperation(operation, details string) {
	s.mu.Lock()
	s.currentOp = operation
	s.mu.Unlock()

	frame, err := protocol.EncodeOperation(operation, details, s.clock.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("encode operation")
		return
	}
	s.broadcast(frame)
}

// SendGlow announces a transient operation highlight at one position.
func (s *Server) SendGlow(kind protocol.GlowKind, position int) {
	frame, err := protocol.EncodeGlow(kind, position, s.clock.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("encode glow")
		return
	}
	s.broadcast(frame)
}

func (s *Server) handleCommand(c *client, cmd protocol.Command) {
	switch cmd.Command {
	case "get_state":
		if frame, err := protocol.EncodeDeckUpdate(s.store.Snapshot(), s.clock.Now()); err == nil {
			s.sendTo(c, frame)
		}

	case "simulate_operation":
		s.runSimulation(func(ctx context.Context) error {
			return s.SimulateOperation(ctx, cmd.Operation, cmd.Position, cmd.Volume)
		})

	case "simulate_transfer":
		s.runSimulation(func(ctx context.Context) error {
			return s.SimulateTransfer(ctx, cmd.From, cmd.To, cmd.Volume)
		})

	case "set_labware":
		s.store.Apply(map[int]model.Position{
			cmd.Position: {Labware: cmd.Labware},
		})
		s.BroadcastDeck()

	case "reset_deck":
		s.store.Reset()
		s.BroadcastDeck()

	default:
		s.log.Debug().Str("command", cmd.Command).Msg("ignoring unknown command")
	}
}

// runSimulation spawns a command-triggered simulation tied to the server's
// lifetime: Stop cancels it and waits for it to return.
func (s *Server) runSimulation(fn func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn().Err(err).Msg("simulation aborted")
		}
	}()
}
