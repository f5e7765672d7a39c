package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.DiscardHandler))
}

func TestNewMessageType(t *testing.T) {
	msg := NewMessage("convocatoria", "updated", 12, nil)
	if msg.Type != "convocatoria_updated" {
		t.Errorf("type = %q, want convocatoria_updated", msg.Type)
	}
	if msg.Entity != "convocatoria" || msg.Action != "updated" || msg.ID != 12 {
		t.Errorf("message = %+v", msg)
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := newTestHub()
	c := &Client{hub: hub, send: make(chan []byte, sendBufferSize)}

	hub.Register(c)
	if n := hub.ClientCount(); n != 1 {
		t.Errorf("count after register = %d, want 1", n)
	}

	hub.Unregister(c)
	if n := hub.ClientCount(); n != 0 {
		t.Errorf("count after unregister = %d, want 0", n)
	}

	// Second unregister must not close the channel twice.
	hub.Unregister(c)
}

func TestHubBroadcast(t *testing.T) {
	hub := newTestHub()
	c := &Client{hub: hub, send: make(chan []byte, sendBufferSize)}
	hub.Register(c)

	hub.Broadcast(NewMessage("backup", "started", 0, map[string]any{"state": "running"}))

	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != "backup_started" {
			t.Errorf("type = %q", msg.Type)
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestHubBroadcastNoClients(t *testing.T) {
	hub := newTestHub()
	hub.Broadcast(NewMessage("backup", "completed", 0, nil))
}

func TestHubBroadcastFullBufferDoesNotBlock(t *testing.T) {
	hub := newTestHub()
	c := &Client{hub: hub, send: make(chan []byte)}
	hub.Register(c)

	// Unbuffered channel with no reader; Broadcast must drop, not hang.
	hub.Broadcast(NewMessage("backup", "started", 0, nil))
}
