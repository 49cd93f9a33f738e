// ABOUTME: Per-request record produced by the connection handler
// ABOUTME: Formats access log lines for completed requests

package server

import (
	"fmt"
	"strconv"
	"time"
)

// RequestEvent describes one handled connection
type RequestEvent struct {
	Time        time.Time
	Remote      string
	RequestLine string
	Route       string
	Status      int // 0 when no request was read
	Bytes       int
	Duration    time.Duration
	Err         error
}

// String formats the event as a single access log line
func (e RequestEvent) String() string {
	status := "-"
	if e.Status > 0 {
		status = strconv.Itoa(e.Status)
	}

	line := fmt.Sprintf("%s %s %q %s %d %s",
		e.Time.UTC().Format(time.RFC3339),
		e.Remote,
		e.RequestLine,
		status,
		e.Bytes,
		e.Duration.Round(time.Millisecond),
	)

	if e.Err != nil {
		line += fmt.Sprintf(" [ERROR: %v]", e.Err)
	}

	return line
}
