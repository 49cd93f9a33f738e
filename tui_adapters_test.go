// ABOUTME: Tests for server-to-monitor event conversion and forwarding
// ABOUTME: Verifies error flattening and that a full channel drops events

package main

import (
	"errors"
	"testing"
	"time"

	"hello-server/server"
	"hello-server/tui"
)

func TestToTUIEvent(t *testing.T) {
	e := server.RequestEvent{
		Time:        time.Now(),
		Remote:      "127.0.0.1:4000",
		RequestLine: "GET /sleep HTTP/1.1",
		Route:       "sleep",
		Status:      200,
		Bytes:       120,
		Duration:    2 * time.Second,
	}

	got := toTUIEvent(e)
	if got.Route != "sleep" || got.Status != 200 || got.Bytes != 120 || got.Duration != 2*time.Second || got.Err != "" {
		t.Errorf("Unexpected conversion: %+v", got)
	}

	e.Err = errors.New("failed to write response")
	if got := toTUIEvent(e); got.Err != "failed to write response" {
		t.Errorf("Expected error text, got %q", got.Err)
	}
}

func TestEventForwarderDropsWhenFull(t *testing.T) {
	events := make(chan tui.Event, 1)
	f := newEventForwarder(events)

	f.forward(server.RequestEvent{Route: "index"})
	f.forward(server.RequestEvent{Route: "sleep"})

	if got := f.droppedCount(); got != 1 {
		t.Errorf("Expected 1 dropped event, got %d", got)
	}

	if e := <-events; e.Route != "index" {
		t.Errorf("Expected first event to be kept, got %q", e.Route)
	}
}
