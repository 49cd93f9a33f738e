// ABOUTME: Entry point for hello-server
// ABOUTME: Handles command-line parsing, profiling, and routing to headless or monitor modes

// Package main provides the entry point for hello-server, a TCP page server backed by a fixed-size worker pool.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"hello-server/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile := flag.String("memprofile", "", "write memory profile to file")
	configPath := flag.String("config", "", "config file (default: ./hello-server.toml or ~/.config/hello-server/config.toml)")
	workers := flag.Int("workers", 0, "number of pool workers (overrides pool_size)")
	port := flag.Int("port", -1, "listen port (overrides listen_port, 0 picks a free port)")
	addr := flag.String("addr", "", "listen address (overrides listen_address)")
	model := flag.String("model", "", "concurrency model: thread_pool, thread_per_connection or ants")
	content := flag.String("content", "", "directory holding hello.html, sleep.html and 404.html")
	monitor := flag.Bool("monitor", false, "show a live dashboard of workers and requests")
	debug := flag.Bool("debug", false, "enable debug logging to hello-server-debug.log")
	initPages := flag.Bool("init", false, "write the default pages into the content directory and exit")
	writeConfig := flag.Bool("write-config", false, "save the effective configuration to the config file and exit")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: hello-server [flags]")
		fmt.Fprintln(flag.CommandLine.Output(), "Example: hello-server -workers 4 -content ./www")
		fmt.Fprintln(flag.CommandLine.Output(), "\nFlags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()

		return 1
	}

	if *cpuprofile != "" {
		stopCPUProfile := setupCPUProfile(*cpuprofile)
		defer stopCPUProfile()
	}

	if *memprofile != "" {
		defer writeMemoryProfile(*memprofile)
	}

	opts := RunOptions{
		ConfigPath: *configPath,
		Overrides: Overrides{
			Workers:    *workers,
			Port:       *port,
			Address:    *addr,
			Model:      *model,
			ContentDir: *content,
		},
		DebugLog: *debug,
	}

	if opts.ConfigPath == "" {
		opts.ConfigPath = config.GetConfigPath()
	}

	switch {
	case *initPages:
		if err := RunInit(opts); err != nil {
			log.Printf("Init error: %v", err)

			return 1
		}
	case *writeConfig:
		if err := RunWriteConfig(opts); err != nil {
			log.Printf("Config error: %v", err)

			return 1
		}
	case *monitor:
		if err := RunMonitor(opts); err != nil {
			log.Printf("Monitor error: %v", err)

			return 1
		}
	default:
		if err := RunServer(opts); err != nil {
			log.Printf("Server error: %v", err)

			return 1
		}
	}

	return 0
}

// setupCPUProfile starts CPU profiling, returns cleanup function
func setupCPUProfile(filename string) func() {
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("could not create CPU profile: %v", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		log.Fatalf("could not start CPU profile: %v", err)
	}

	return func() {
		pprof.StopCPUProfile()

		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close CPU profile: %v", err)
		}
	}
}

// writeMemoryProfile writes memory profile to file
func writeMemoryProfile(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		log.Printf("could not create memory profile: %v", err)

		return
	}

	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close memory profile: %v", err)
		}
	}()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Printf("could not write memory profile: %v", err)
	}
}
