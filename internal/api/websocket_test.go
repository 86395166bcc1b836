package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/randalmurphal/pulseboard/internal/events"
)

func dialWS(t *testing.T, handler *WSHandler) (*websocket.Conn, func()) {
	t.Helper()

	ts := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("failed to connect: %v", err)
	}
	return ws, func() {
		ws.Close()
		ts.Close()
	}
}

func TestWSHandlerConnect(t *testing.T) {
	pub := events.NewMemoryPublisher()
	handler := NewWSHandler(pub, nil)

	ws, cleanup := dialWS(t, handler)
	defer cleanup()

	if err := ws.WriteJSON(WSMessage{Type: "ping"}); err != nil {
		t.Errorf("failed to send message: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["type"] != "pong" {
		t.Errorf("expected type 'pong', got %v", resp["type"])
	}

	if handler.ConnectionCount() != 1 {
		t.Errorf("expected 1 connection, got %d", handler.ConnectionCount())
	}
}

func TestWSHandlerReceivesEvents(t *testing.T) {
	pub := events.NewMemoryPublisher()
	handler := NewWSHandler(pub, nil)

	ws, cleanup := dialWS(t, handler)
	defer cleanup()

	// Connections receive the broadcast stream without subscribing.
	// Give the forwarding goroutine a moment to start.
	time.Sleep(50 * time.Millisecond)
	pub.Publish(events.NewEvent(events.EventTasksUpdated, nil))

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("failed to parse event: %v", err)
	}
	if resp["type"] != "event" {
		t.Errorf("expected type 'event', got %v", resp["type"])
	}
	if resp["event"] != string(events.EventTasksUpdated) {
		t.Errorf("expected event %q, got %v", events.EventTasksUpdated, resp["event"])
	}
}

func TestWSHandlerUnknownMessage(t *testing.T) {
	pub := events.NewMemoryPublisher()
	handler := NewWSHandler(pub, nil)

	ws, cleanup := dialWS(t, handler)
	defer cleanup()

	if err := ws.WriteJSON(WSMessage{Type: "subscribe"}); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["type"] != "error" {
		t.Errorf("expected type 'error', got %v", resp["type"])
	}
}

func TestWSHandlerClose(t *testing.T) {
	pub := events.NewMemoryPublisher()
	handler := NewWSHandler(pub, nil)

	_, cleanup := dialWS(t, handler)
	defer cleanup()

	handler.Close()

	// Connection cleanup also unsubscribes from the publisher.
	deadline := time.Now().Add(2 * time.Second)
	for handler.ConnectionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 0 connections after close, got %d", handler.ConnectionCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
