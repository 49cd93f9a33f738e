// ABOUTME: Shared initialization code for all modes (headless, monitor, init)
// ABOUTME: Loads config, applies flag overrides, and builds the site and server

package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"hello-server/config"
	"hello-server/server"
	"hello-server/site"
)

var debugLog *log.Logger

// RunOptions contains command-line options for all modes
type RunOptions struct {
	ConfigPath string
	Overrides  Overrides
	DebugLog   bool
}

// Overrides holds flag values that replace config file settings.
// Zero values (and Port -1) leave the config untouched.
type Overrides struct {
	Workers    int
	Port       int
	Address    string
	Model      string
	ContentDir string
}

// Apply copies every set override into cfg
func (o Overrides) Apply(cfg config.ServerConfig) config.ServerConfig {
	if o.Workers != 0 {
		cfg.PoolSize = o.Workers
	}

	if o.Port >= 0 {
		cfg.ListenPort = o.Port
	}

	if o.Address != "" {
		cfg.ListenAddress = o.Address
	}

	if o.Model != "" {
		cfg.ConcurrencyModel = o.Model
	}

	if o.ContentDir != "" {
		cfg.ContentDir = o.ContentDir
	}

	return cfg
}

// ServerContext contains the configured server and what it serves
type ServerContext struct {
	Config    config.ServerConfig
	Site      *site.Site
	Server    *server.Server
	accessLog io.Closer // nil when logging to stderr
}

// Close releases the access log file
func (sc *ServerContext) Close() error {
	if sc.accessLog == nil {
		return nil
	}

	return sc.accessLog.Close()
}

// LoadEffectiveConfig loads the config file and applies flag overrides
func LoadEffectiveConfig(opts RunOptions) (config.ServerConfig, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", opts.ConfigPath, err)
	}

	cfg = opts.Overrides.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// InitializeServer loads config and content, then builds the server.
// The worker pool is running when this returns; nothing is listening yet.
func InitializeServer(opts RunOptions, onRequest func(server.RequestEvent)) (*ServerContext, error) {
	if opts.DebugLog {
		if err := SetupDebugLog("hello-server-debug.log"); err != nil {
			return nil, err
		}
	}

	cfg, err := LoadEffectiveConfig(opts)
	if err != nil {
		return nil, err
	}

	debugf("[MAIN] Effective config: %+v", cfg)

	st := site.New(cfg.ContentDir, site.DefaultRoutes(cfg.SleepDelay()), site.NotFoundRoute())
	if err := st.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w (run with -init to create the default pages)", err)
		}

		return nil, err
	}

	accessLog, closer, err := openAccessLog(cfg.AccessLogPath, onRequest == nil)
	if err != nil {
		return nil, err
	}

	srv, err := server.New(cfg, st, server.Options{
		Debugf:    debugf,
		AccessLog: accessLog,
		OnRequest: onRequest,
	})
	if err != nil {
		if closer != nil {
			closer.Close()
		}

		return nil, err
	}

	return &ServerContext{
		Config:    cfg,
		Site:      st,
		Server:    srv,
		accessLog: closer,
	}, nil
}

// openAccessLog opens the access log file, or stderr when path is empty.
// With useStderr false an empty path disables access logging.
func openAccessLog(path string, useStderr bool) (*log.Logger, io.Closer, error) {
	if path == "" {
		if !useStderr {
			return nil, nil, nil
		}

		return log.New(os.Stderr, "", 0), nil, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open access log: %w", err)
	}

	return log.New(f, "", 0), f, nil
}

// SetupDebugLog initializes debug logging
func SetupDebugLog(filename string) error {
	if err := InitDebugLog(filename); err != nil {
		return fmt.Errorf("failed to initialize debug log: %w", err)
	}

	if isTTY(os.Stdout) {
		fmt.Printf("Debug logging enabled: %s\n", filename)
	}

	return nil
}

// InitDebugLog initializes debug logging
func InitDebugLog(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugLog = log.New(f, "", log.Ltime|log.Lmicroseconds)

	return nil
}

// debugf logs debug messages if enabled
func debugf(format string, args ...interface{}) {
	if debugLog != nil {
		debugLog.Printf(format, args...)
	}
}

// isTTY checks if the given file is a terminal
func isTTY(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}

	return (stat.Mode() & os.ModeCharDevice) != 0
}
