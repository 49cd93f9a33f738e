// ABOUTME: Interfaces and message types the monitor depends on
// ABOUTME: Keeps the monitor independent of the server package for easy testing

package tui

import (
	"time"

	"hello-server/pool"
)

// StatsSource reports a point-in-time snapshot of the dispatcher
type StatsSource interface {
	Stats() pool.Stats
}

// Event is one handled request as shown in the request log
type Event struct {
	Time        time.Time
	Remote      string
	RequestLine string
	Route       string
	Status      int
	Bytes       int
	Duration    time.Duration
	Err         string // empty on success
}
