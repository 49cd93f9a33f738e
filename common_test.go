// ABOUTME: Tests for shared initialization: config overrides, access log and server setup
// ABOUTME: Uses temporary config files and content directories

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hello-server/config"
	"hello-server/site"
)

func TestOverridesApply(t *testing.T) {
	base := config.DefaultConfig()

	tests := []struct {
		name      string
		overrides Overrides
		check     func(config.ServerConfig) bool
	}{
		{
			name:      "nothing set keeps config",
			overrides: Overrides{Port: -1},
			check:     func(c config.ServerConfig) bool { return c == base },
		},
		{
			name:      "workers",
			overrides: Overrides{Workers: 8, Port: -1},
			check:     func(c config.ServerConfig) bool { return c.PoolSize == 8 },
		},
		{
			name:      "port zero is kept",
			overrides: Overrides{Port: 0},
			check:     func(c config.ServerConfig) bool { return c.ListenPort == 0 },
		},
		{
			name:      "model and content",
			overrides: Overrides{Port: -1, Model: config.ModelAnts, ContentDir: "www"},
			check: func(c config.ServerConfig) bool {
				return c.ConcurrencyModel == config.ModelAnts && c.ContentDir == "www"
			},
		},
		{
			name:      "address",
			overrides: Overrides{Port: -1, Address: "0.0.0.0"},
			check:     func(c config.ServerConfig) bool { return c.ListenAddress == "0.0.0.0" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.overrides.Apply(base); !tt.check(got) {
				t.Errorf("Unexpected config after Apply: %+v", got)
			}
		})
	}
}

func TestLoadEffectiveConfigRejectsBadOverride(t *testing.T) {
	opts := RunOptions{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
		Overrides:  Overrides{Port: -1, Workers: -2},
	}

	if _, err := LoadEffectiveConfig(opts); !errors.Is(err, config.ErrInvalidPoolSize) {
		t.Errorf("Expected ErrInvalidPoolSize, got %v", err)
	}
}

func TestInitializeServerNeedsPages(t *testing.T) {
	opts := RunOptions{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
		Overrides:  Overrides{Port: 0, ContentDir: t.TempDir()},
	}

	_, err := InitializeServer(opts, nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Expected ErrNotExist, got %v", err)
	}

	if !strings.Contains(err.Error(), "-init") {
		t.Errorf("Expected a hint about -init, got %v", err)
	}
}

func TestInitializeServer(t *testing.T) {
	dir := t.TempDir()
	if _, err := site.WriteDefaultPages(dir); err != nil {
		t.Fatal(err)
	}

	logPath := filepath.Join(t.TempDir(), "access.log")
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg := config.DefaultConfig()
	cfg.AccessLogPath = logPath

	if err := config.SaveConfig(configPath, cfg); err != nil {
		t.Fatal(err)
	}

	sc, err := InitializeServer(RunOptions{
		ConfigPath: configPath,
		Overrides:  Overrides{Port: 0, Workers: 3, ContentDir: dir},
	}, nil)
	if err != nil {
		t.Fatalf("InitializeServer failed: %v", err)
	}

	defer func() {
		if err := sc.Server.Shutdown(); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}

		if err := sc.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	if sc.Config.PoolSize != 3 || sc.Config.AccessLogPath != logPath {
		t.Errorf("Unexpected config: %+v", sc.Config)
	}

	if stats := sc.Server.Stats(); stats.Size != 3 || len(stats.Workers) != 3 {
		t.Errorf("Expected 3 running workers, got %+v", stats)
	}

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("Access log not created: %v", err)
	}
}

func TestOpenAccessLog(t *testing.T) {
	logger, closer, err := openAccessLog("", true)
	if err != nil || logger == nil || closer != nil {
		t.Errorf("Expected stderr logger, got %v %v %v", logger, closer, err)
	}

	logger, closer, err = openAccessLog("", false)
	if err != nil || logger != nil || closer != nil {
		t.Errorf("Expected logging disabled, got %v %v %v", logger, closer, err)
	}

	if _, _, err := openAccessLog(filepath.Join(t.TempDir(), "missing", "access.log"), true); err == nil {
		t.Error("Expected error for missing directory")
	}
}
