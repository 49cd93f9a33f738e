// ABOUTME: Configuration management for the server and its worker pool
// ABOUTME: Handles loading/saving TOML config files with fallback to defaults

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Concurrency models for dispatching accepted connections
const (
	ModelThreadPool          = "thread_pool"
	ModelThreadPerConnection = "thread_per_connection"
	ModelAnts                = "ants"
)

// ErrInvalidPoolSize is returned by Validate when pool_size is below 1
var ErrInvalidPoolSize = errors.New("pool_size must be at least 1")

// ServerConfig holds all tunable server parameters
type ServerConfig struct {
	// Listener
	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`

	// Dispatch
	PoolSize         int    `toml:"pool_size"`
	ConcurrencyModel string `toml:"concurrency_model"`

	// Content
	ContentDir   string `toml:"content_dir"`
	WatchContent bool   `toml:"watch_content"`
	SleepDelayMS int    `toml:"sleep_delay_ms"` // artificial delay of the /sleep route

	// Connection handling
	ReadBufferSize    int `toml:"read_buffer_size"`
	ReadTimeoutMS     int `toml:"read_timeout_ms"`
	ShutdownTimeoutMS int `toml:"shutdown_timeout_ms"`

	AccessLogPath string `toml:"access_log_path"` // empty logs to stderr
}

// GetConfigPath returns the default config file path
// First tries current directory, then falls back to ~/.config/hello-server/config.toml
func GetConfigPath() string {
	if _, err := os.Stat("./hello-server.toml"); err == nil {
		return "./hello-server.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./hello-server.toml"
	}

	return filepath.Join(home, ".config", "hello-server", "config.toml")
}

// LoadConfig loads configuration from a TOML file
// Keys missing from the file keep their default values. A missing file yields
// the defaults without error; an invalid file or invalid values are errors.
func LoadConfig(path string) (ServerConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}

		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &config); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a TOML file
func SaveConfig(path string, config ServerConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Printf("Warning: failed to close config file: %v\n", err)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfig returns the default server configuration
func DefaultConfig() ServerConfig {
	return ServerConfig{
		ListenAddress:     "127.0.0.1",
		ListenPort:        7373,
		PoolSize:          5,
		ConcurrencyModel:  ModelThreadPool,
		ContentDir:        ".",
		WatchContent:      true,
		SleepDelayMS:      2000,
		ReadBufferSize:    1024,
		ReadTimeoutMS:     30000,
		ShutdownTimeoutMS: 10000,
	}
}

// Validate checks if the configuration is valid
func (c ServerConfig) Validate() error {
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		return errors.New("listen_port must be between 0 and 65535")
	}

	switch c.ConcurrencyModel {
	case ModelThreadPool, ModelAnts:
		if c.PoolSize < 1 {
			return fmt.Errorf("%w (got %d)", ErrInvalidPoolSize, c.PoolSize)
		}
	case ModelThreadPerConnection:
	default:
		return fmt.Errorf("concurrency_model must be %q, %q or %q", ModelThreadPool, ModelThreadPerConnection, ModelAnts)
	}

	if c.ReadBufferSize < 1 {
		return errors.New("read_buffer_size must be at least 1")
	}

	if c.SleepDelayMS < 0 || c.ReadTimeoutMS < 0 || c.ShutdownTimeoutMS < 0 {
		return errors.New("durations must not be negative")
	}

	return nil
}

// Address returns the listen address in host:port form
func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.ListenAddress, strconv.Itoa(c.ListenPort))
}

// SleepDelay returns the /sleep route delay
func (c ServerConfig) SleepDelay() time.Duration {
	return time.Duration(c.SleepDelayMS) * time.Millisecond
}

// ReadTimeout returns the per-connection read deadline, zero meaning none
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

// ShutdownTimeout bounds how long shutdown waits for in-flight jobs, zero meaning forever
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
