// ABOUTME: TCP server accepting connections and dispatching one job per connection
// ABOUTME: Builds the dispatcher before accepting, and drains it on shutdown

// Package server accepts TCP connections and answers each with a fixed page.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"hello-server/config"
	"hello-server/pool"
	"hello-server/site"
)

// Options holds the server's optional collaborators
type Options struct {
	Debugf    func(string, ...interface{})
	AccessLog *log.Logger        // one line per request, nil disables
	OnRequest func(RequestEvent) // called from the job after each request
}

// Server accepts connections and dispatches them to workers
type Server struct {
	config     config.ServerConfig
	site       *site.Site
	dispatcher Dispatcher
	accessLog  *log.Logger
	debugf     func(string, ...interface{})
	onRequest  func(RequestEvent)

	shutdownOnce sync.Once
	shutdownErr  error
}

// New validates cfg and builds the dispatcher. Workers are running when New returns.
func New(cfg config.ServerConfig, st *site.Site, opts Options) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Server{
		config:    cfg,
		site:      st,
		accessLog: opts.AccessLog,
		debugf:    opts.Debugf,
		onRequest: opts.OnRequest,
	}

	if s.debugf == nil {
		s.debugf = func(string, ...interface{}) {}
	}

	dispatcher, err := newDispatcher(cfg, s.debugf, s.reportFailure)
	if err != nil {
		return nil, err
	}

	s.dispatcher = dispatcher

	return s, nil
}

// ListenAndServe listens on the configured address and serves until ctx is done
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.config.Address()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return multierr.Append(fmt.Errorf("failed to listen on %s: %w", addr, err), s.Shutdown())
	}

	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done or the listener
// closes, then shuts the dispatcher down. Jobs already dispatched finish.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.debugf("[SERVER] Listening on %s (%s, pool size %d)", listener.Addr(), s.config.ConcurrencyModel, s.config.PoolSize)

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			listener.Close()
		case <-stop:
		}
	}()

	var (
		acceptErr error
		backoff   time.Duration
	)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}

			if isTemporaryAcceptError(err) {
				backoff = nextAcceptBackoff(backoff)
				s.debugf("[SERVER] Accept error: %v; retrying in %v", err, backoff)

				select {
				case <-time.After(backoff):
					continue
				case <-ctx.Done():
				}

				break
			}

			acceptErr = fmt.Errorf("failed to accept connection: %w", err)

			break
		}

		backoff = 0

		if err := s.dispatcher.Submit(func() error { return s.handleConnection(conn) }); err != nil {
			conn.Close()
			s.debugf("[SERVER] Dropped connection from %s: %v", conn.RemoteAddr(), err)

			if errors.Is(err, pool.ErrPoolShuttingDown) {
				break
			}
		}
	}

	listener.Close()
	s.debugf("[SERVER] Stopped accepting, draining in-flight requests")

	return multierr.Append(acceptErr, s.Shutdown())
}

// Accept retry delays, doubling from min up to max
const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

func nextAcceptBackoff(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptBackoff
	}

	return min(2*prev, maxAcceptBackoff)
}

// isTemporaryAcceptError reports accept failures worth retrying, such as
// running out of file descriptors or a client resetting before accept.
func isTemporaryAcceptError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, errno := range []syscall.Errno{syscall.EMFILE, syscall.ENFILE, syscall.ENOBUFS, syscall.ENOMEM, syscall.ECONNABORTED, syscall.ECONNRESET} {
		if errors.Is(err, errno) {
			return true
		}
	}

	return false
}

// Shutdown drains the dispatcher within the configured shutdown timeout.
// Only the first call does any work; later calls return its result.
func (s *Server) Shutdown() error {
	s.shutdownOnce.Do(func() {
		ctx := context.Background()

		if timeout := s.config.ShutdownTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if err := s.dispatcher.Shutdown(ctx); err != nil {
			s.shutdownErr = fmt.Errorf("shutdown incomplete: %w", err)
		}

		s.debugf("[SERVER] Shut down complete")
	})

	return s.shutdownErr
}

// Stats reports the dispatcher's counters
func (s *Server) Stats() pool.Stats {
	return s.dispatcher.Stats()
}

// Config returns the configuration the server was built with
func (s *Server) Config() config.ServerConfig {
	return s.config
}

// handleConnection answers a single request and closes the connection
func (s *Server) handleConnection(conn net.Conn) (err error) {
	start := time.Now()
	event := RequestEvent{
		Time:   start,
		Remote: conn.RemoteAddr().String(),
	}

	defer func() {
		conn.Close()

		event.Duration = time.Since(start)
		event.Err = err
		s.logRequest(event)
	}()

	if timeout := s.config.ReadTimeout(); timeout > 0 {
		if err := conn.SetReadDeadline(start.Add(timeout)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	buffer := make([]byte, s.config.ReadBufferSize)

	n, err := conn.Read(buffer)
	if n == 0 && err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	request := buffer[:n]
	route := s.site.Match(request)

	event.RequestLine = site.RequestLine(request)
	event.Route = route.Name
	event.Status = route.Status

	// The delay belongs to the job; the pool has no timeouts
	if route.Delay > 0 {
		time.Sleep(route.Delay)
	}

	body, pageErr := s.site.Page(route.Page)
	if pageErr != nil {
		event.Status = 500
		event.Bytes, _ = conn.Write(site.FormatResponse(500, []byte("500 Internal Server Error")))

		return pageErr
	}

	event.Bytes, err = conn.Write(site.FormatResponse(route.Status, body))
	if err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	return nil
}

// reportFailure logs a connection job that failed or panicked
func (s *Server) reportFailure(f *pool.JobFailure) {
	if f.Stack != nil {
		log.Printf("Warning: connection handler panicked: %v", f)
		return
	}

	s.debugf("[SERVER] %v", f)
}

// logRequest writes the access log line and notifies the observer
func (s *Server) logRequest(event RequestEvent) {
	if s.accessLog != nil {
		s.accessLog.Println(event.String())
	}

	if s.onRequest != nil {
		s.onRequest(event)
	}
}
