// ABOUTME: Adapters between the server and the monitor
// ABOUTME: Converts request events and forwards them without blocking workers

package main

import (
	"sync/atomic"

	"hello-server/server"
	"hello-server/tui"
)

// toTUIEvent converts a server request event for display
func toTUIEvent(e server.RequestEvent) tui.Event {
	event := tui.Event{
		Time:        e.Time,
		Remote:      e.Remote,
		RequestLine: e.RequestLine,
		Route:       e.Route,
		Status:      e.Status,
		Bytes:       e.Bytes,
		Duration:    e.Duration,
	}

	if e.Err != nil {
		event.Err = e.Err.Error()
	}

	return event
}

// eventForwarder sends request events to the monitor, dropping them when it falls behind
type eventForwarder struct {
	events  chan<- tui.Event
	dropped atomic.Int64
}

func newEventForwarder(events chan<- tui.Event) *eventForwarder {
	return &eventForwarder{events: events}
}

// forward is called from worker goroutines once per request
func (f *eventForwarder) forward(e server.RequestEvent) {
	select {
	case f.events <- toTUIEvent(e):
	default:
		// Channel full, skip event
		f.dropped.Add(1)
	}
}

func (f *eventForwarder) droppedCount() int64 {
	return f.dropped.Load()
}
