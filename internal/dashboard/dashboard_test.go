package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/calebmcf/pocket/internal/bus"
	"github.com/calebmcf/pocket/internal/engine"
)

func newTestServer(t *testing.T) (*Server, *bus.Bus) {
	t.Helper()

	events := bus.New()
	config := &Config{
		Port:   0, // Use random available port
		Logger: log.New(io.Discard, "", 0),
	}
	server := NewServer(events, config)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Stop() })

	time.Sleep(100 * time.Millisecond)
	return server, events
}

func dialTestServer(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws://" + server.GetAddr() + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestServerStartStop(t *testing.T) {
	events := bus.New()
	config := &Config{
		Port:   0,
		Logger: log.New(io.Discard, "", 0),
	}
	server := NewServer(events, config)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if addr := server.GetAddr(); addr == "" {
		t.Fatal("Server address is empty")
	}

	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocketHello(t *testing.T) {
	server, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialTestServer(t, ctx, server)

	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read hello message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeHello {
		t.Errorf("Expected message type %s, got %s", MessageTypeHello, msg.Type)
	}
}

func TestBusEventsRelayedToClients(t *testing.T) {
	server, events := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialTestServer(t, ctx, server)

	// Discard the hello message.
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Failed to read hello message: %v", err)
	}

	result := &engine.SyncResult{
		Success: true,
		Counts:  map[engine.RecordKind]int{engine.RecordExpenses: 3},
	}
	events.Publish(bus.TopicSyncSucceeded, result)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read relayed message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeSyncSucceeded {
		t.Errorf("Expected message type %s, got %s", MessageTypeSyncSucceeded, msg.Type)
	}

	var payload struct {
		Success bool                      `json:"success"`
		Counts  map[engine.RecordKind]int `json:"countsByType"`
	}
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}
	if !payload.Success || payload.Counts[engine.RecordExpenses] != 3 {
		t.Errorf("Unexpected payload: %+v", payload)
	}
}

func TestStopUnsubscribesFromBus(t *testing.T) {
	events := bus.New()
	server := NewServer(events, &Config{Port: 0, Logger: log.New(io.Discard, "", 0)})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}

	// Publishing after Stop must not panic or block.
	events.Publish(bus.TopicSyncFailed, &engine.SyncResult{})
}
