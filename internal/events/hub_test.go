package events

import (
	"encoding/json"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsToSubscribers(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := &Client{hub: h, send: make(chan []byte, 4), ID: "test-ui"}
	h.register <- c
	waitFor(t, func() bool { return h.Clients() == 1 })

	h.Publish("sync_done", map[string]int{"succeeded": 3})

	select {
	case frame := <-c.send:
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("frame is not an envelope: %v", err)
		}
		if env.Type != "sync_done" {
			t.Errorf("type = %q, want sync_done", env.Type)
		}
		if env.SentAt.IsZero() {
			t.Error("envelope missing timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
	}

	h.unregister <- c
	waitFor(t, func() bool { return h.Clients() == 0 })
}

func TestReconnectReplacesOldClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	first := &Client{hub: h, send: make(chan []byte, 1), ID: "scanner-7"}
	h.register <- first
	waitFor(t, func() bool { return h.Clients() == 1 })

	second := &Client{hub: h, send: make(chan []byte, 1), ID: "scanner-7"}
	h.register <- second
	waitFor(t, func() bool {
		select {
		case _, open := <-first.send:
			return !open
		default:
			return false
		}
	})

	if h.Clients() != 1 {
		t.Errorf("clients = %d, want 1 after reconnect", h.Clients())
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	h := NewHub() // no Run loop draining

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			h.Publish("tick", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a hub loop")
	}
}
