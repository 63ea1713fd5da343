package simfeed

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/deckwatch/deckwatch/internal/deck"
	"github.com/deckwatch/deckwatch/internal/model"
	"github.com/deckwatch/deckwatch/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

func startTestServer(t *testing.T) (*Server, *deck.Store) {
	t.Helper()
	store := deck.NewStore()
	srv := NewServer("localhost:0", store, clockwork.NewRealClock(), zerolog.Nop())
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })
	return srv, store
}

func dialTestServer(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) protocol.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	ev, err := protocol.Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return ev
}

func TestNewClientGetsCurrentDeck(t *testing.T) {
	srv, store := startTestServer(t)
	store.SetLayout(model.DefaultLayout())

	conn := dialTestServer(t, srv)

	ev := readFrame(t, conn)
	update, ok := ev.(protocol.DeckUpdateEvent)
	if !ok {
		t.Fatalf("first frame is %T, want DeckUpdateEvent", ev)
	}
	if update.Positions[4].Labware != model.LabwareReservoir {
		t.Fatalf("position 4 = %+v", update.Positions[4])
	}
}

func TestResetDeckCommand(t *testing.T) {
	srv, store := startTestServer(t)
	store.SetLayout(model.DefaultLayout())

	conn := dialTestServer(t, srv)
	readFrame(t, conn) // initial deck push

	cmd, _ := json.Marshal(protocol.Command{Command: "reset_deck"})
	if err := conn.WriteMessage(websocket.TextMessage, cmd); err != nil {
		t.Fatalf("write command: %v", err)
	}

	ev := readFrame(t, conn)
	update, ok := ev.(protocol.DeckUpdateEvent)
	if !ok {
		t.Fatalf("got %T, want DeckUpdateEvent", ev)
	}
	for id, pos := range update.Positions {
		if pos.Labware != model.LabwareEmpty || pos.Volume != 0 {
			t.Fatalf("position %d = %+v after reset", id, pos)
		}
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	srv, _ := startTestServer(t)

	a := dialTestServer(t, srv)
	b := dialTestServer(t, srv)
	readFrame(t, a)
	readFrame(t, b)

	srv.BroadcastOperation("Aspirate at position 2", "100 µL")

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readFrame(t, conn)
		op, ok := ev.(protocol.OperationEvent)
		if !ok {
			t.Fatalf("got %T, want OperationEvent", ev)
		}
		if op.Operation != "Aspirate at position 2" || op.Details != "100 µL" {
			t.Fatalf("got %+v", op)
		}
	}
}

func TestSimulateOperationAdjustsVolumes(t *testing.T) {
	store := deck.NewStore()
	store.SetLayout(model.DefaultLayout())
	clock := clockwork.NewFakeClock()
	srv := NewServer("localhost:0", store, clock, zerolog.Nop())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.SimulateOperation(context.Background(), "aspirate", 2, 100)
	}()

	clock.BlockUntil(1)

	// Mid-operation: volume drawn down and the position marked active.
	pos, _ := store.Position(2)
	if pos.Volume != 149900 || !pos.Active {
		t.Fatalf("mid-op position 2 = %+v", pos)
	}

	clock.Advance(opHold)
	if err := <-errCh; err != nil {
		t.Fatalf("simulate: %v", err)
	}

	pos, _ = store.Position(2)
	if pos.Active {
		t.Fatal("position 2 still active after operation settled")
	}
}

func TestConcurrentBroadcastWithSlowClients(t *testing.T) {
	srv, store := startTestServer(t)
	store.SetLayout(model.DefaultLayout())

	// Clients that never read: their send buffers fill, so the drop-on-full
	// path closes send channels while other goroutines are mid-broadcast.
	for i := 0; i < 4; i++ {
		dialTestServer(t, srv)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				srv.BroadcastDeck()
			}
		}()
	}
	wg.Wait()

	if err := srv.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStopCancelsCommandSimulations(t *testing.T) {
	store := deck.NewStore()
	store.SetLayout(model.DefaultLayout())
	clock := clockwork.NewFakeClock()
	srv := NewServer("localhost:0", store, clock, zerolog.Nop())

	srv.handleCommand(nil, protocol.Command{
		Command:   "simulate_operation",
		Operation: "aspirate",
		Position:  2,
		Volume:    100,
	})

	clock.BlockUntil(1) // mid-hold, position 2 active

	done := make(chan error, 1)
	go func() { done <- srv.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not reap the in-flight simulation")
	}

	// The cancelled simulation never reaches its settle step.
	if pos, _ := store.Position(2); !pos.Active {
		t.Fatal("simulation kept running past Stop")
	}
}

func TestSimulateOperationCancelled(t *testing.T) {
	store := deck.NewStore()
	clock := clockwork.NewFakeClock()
	srv := NewServer("localhost:0", store, clock, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.SimulateOperation(ctx, "dispense", 3, 50)
	}()

	clock.BlockUntil(1)
	cancel()

	if err := <-errCh; err == nil {
		t.Fatal("expected cancellation error")
	}
}
