// ABOUTME: Served content: routes plus an in-memory cache of pages read from disk
// ABOUTME: Formats HTTP responses and writes the default pages when asked

// Package site holds the pages the server returns and the rules choosing between them.
package site

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Site serves a fixed set of routes from files in one directory.
// Pages are cached after the first read; Watch keeps the cache current.
type Site struct {
	dir      string
	routes   []Route
	notFound Route

	mu    sync.RWMutex
	pages map[string][]byte
}

// New creates a site for dir with the given routes and 404 fallback
func New(dir string, routes []Route, notFound Route) *Site {
	return &Site{
		dir:      dir,
		routes:   routes,
		notFound: notFound,
		pages:    make(map[string][]byte),
	}
}

// Dir returns the content directory
func (s *Site) Dir() string {
	return s.dir
}

// Match picks the route for a raw request
func (s *Site) Match(request []byte) Route {
	return match(s.routes, s.notFound, request)
}

// PageNames lists every page referenced by a route, fallback included
func (s *Site) PageNames() []string {
	names := make([]string, 0, len(s.routes)+1)
	for _, r := range s.routes {
		names = append(names, r.Page)
	}

	return append(names, s.notFound.Page)
}

// Load reads every page into the cache, failing on the first missing one
func (s *Site) Load() error {
	for _, name := range s.PageNames() {
		if _, err := s.reload(name); err != nil {
			return err
		}
	}

	return nil
}

// Page returns a page's contents, reading it from disk on a cache miss
func (s *Site) Page(name string) ([]byte, error) {
	s.mu.RLock()
	body, ok := s.pages[name]
	s.mu.RUnlock()

	if ok {
		return body, nil
	}

	return s.reload(name)
}

// Invalidate drops a page from the cache
func (s *Site) Invalidate(name string) {
	s.mu.Lock()
	delete(s.pages, name)
	s.mu.Unlock()
}

// reload reads one page from disk into the cache and returns it
func (s *Site) reload(name string) ([]byte, error) {
	body, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", name, err)
	}

	s.mu.Lock()
	s.pages[name] = body
	s.mu.Unlock()

	return body, nil
}

// tracks reports whether name is one of the site's pages
func (s *Site) tracks(name string) bool {
	for _, page := range s.PageNames() {
		if page == name {
			return true
		}
	}

	return false
}

var defaultPages = map[string]string{
	HelloPage: `<!DOCTYPE html>
<html lang="en">
  <head><meta charset="utf-8"><title>Hello!</title></head>
  <body><h1>Hello!</h1><p>Hi from hello-server</p></body>
</html>
`,
	SleepPage: `<!DOCTYPE html>
<html lang="en">
  <head><meta charset="utf-8"><title>Sleep</title></head>
  <body><h1>Good morning!</h1><p>This page took a while on purpose.</p></body>
</html>
`,
	NotFoundPage: `<!DOCTYPE html>
<html lang="en">
  <head><meta charset="utf-8"><title>Hello!</title></head>
  <body><h1>Oops!</h1><p>Sorry, I don't know what you're asking for.</p></body>
</html>
`,
}

// WriteDefaultPages creates the default pages in dir, leaving existing files alone.
// Returns the names of the files it wrote.
func WriteDefaultPages(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}

	var written []string

	for _, name := range []string{HelloPage, SleepPage, NotFoundPage} {
		path := filepath.Join(dir, name)

		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return written, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if err := os.WriteFile(path, []byte(defaultPages[name]), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}

		written = append(written, name)
	}

	return written, nil
}

// FormatResponse builds a complete HTTP/1.1 response for status and body
func FormatResponse(status int, body []byte) []byte {
	reason := strings.ToUpper(http.StatusText(status))
	header := fmt.Sprintf("HTTP/1.1 %d %s\r\nContent-Length: %d\r\nConnection: close\r\n\r\n", status, reason, len(body))

	return append([]byte(header), body...)
}
