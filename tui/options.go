// ABOUTME: Monitor mode configuration and injected dependencies
// ABOUTME: Defines what the monitor shows and how it talks to the running server

package tui

import "time"

// Options contains what the monitor displays about the server it watches
type Options struct {
	Address         string        // Listen address shown in the header
	Model           string        // Concurrency model name
	PoolSize        int           // Configured worker count
	ContentDir      string        // Directory pages are served from
	RefreshInterval time.Duration // How often stats are polled (defaults to 250ms)
}

// Dependencies holds everything the monitor needs from the running server
type Dependencies struct {
	Stats  StatsSource
	Events <-chan Event                 // Closed or nil when there are no request events
	Stop   func()                       // Asks the server to shut down gracefully
	Debugf func(string, ...interface{}) // Debug logger, may be nil
}
