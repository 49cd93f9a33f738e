// ABOUTME: Request-line routing for the fixed set of served pages
// ABOUTME: Matches the raw request prefix against known request lines, falling back to 404

package site

import (
	"bytes"
	"net/http"
	"time"
)

// Route maps a raw request line to a page on disk
type Route struct {
	Name        string
	RequestLine string // matched as a prefix of the raw request, including CRLF
	Page        string // file name relative to the content directory
	Status      int
	Delay       time.Duration // applied by the handler before responding
}

// Default page file names
const (
	HelloPage    = "hello.html"
	SleepPage    = "sleep.html"
	NotFoundPage = "404.html"
)

// DefaultRoutes returns the routes for "/" and "/sleep"
func DefaultRoutes(sleepDelay time.Duration) []Route {
	return []Route{
		{
			Name:        "index",
			RequestLine: "GET / HTTP/1.1\r\n",
			Page:        HelloPage,
			Status:      http.StatusOK,
		},
		{
			Name:        "sleep",
			RequestLine: "GET /sleep HTTP/1.1\r\n",
			Page:        SleepPage,
			Status:      http.StatusOK,
			Delay:       sleepDelay,
		},
	}
}

// NotFoundRoute is used when no route matches
func NotFoundRoute() Route {
	return Route{
		Name:   "not_found",
		Page:   NotFoundPage,
		Status: http.StatusNotFound,
	}
}

// match returns the first route whose request line prefixes request
func match(routes []Route, fallback Route, request []byte) Route {
	for _, r := range routes {
		if bytes.HasPrefix(request, []byte(r.RequestLine)) {
			return r
		}
	}

	return fallback
}

// RequestLine extracts the first line of a raw request without its line ending
func RequestLine(request []byte) string {
	line := request
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	return string(bytes.TrimRight(line, "\r"))
}
