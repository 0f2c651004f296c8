package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/mergington/internal/loadtest"
)

// Default configuration constants.
const (
	defaultStudents       = 1000
	defaultWorkers        = 2 // multiplier for runtime.NumCPU()
	defaultDuplicateRate  = 0.2
	defaultUnregisterRate = 0.3
	defaultTimeout        = 10 * time.Second
	defaultRunTimeout     = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL    = flag.String("url", "http://localhost:8000", "Base URL of the service")
		students   = flag.Int("students", defaultStudents, "Distinct students to sign up")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent requests in flight")
		duplicates = flag.Float64("duplicates", defaultDuplicateRate, "Share of signups sent twice")
		unregister = flag.Float64("unregister", defaultUnregisterRate, "Share of students unregistered afterwards")
		seed       = flag.Uint64("seed", 0, "Seed for the operation plan, 0 for random")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Log every failed expectation and debug output")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return 0
	}

	closeLog, err := loadtest.SetupLogging(*logFile, "info", *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:        *baseURL,
		Students:       *students,
		Workers:        *workers,
		Timeout:        *timeout,
		DuplicateRate:  *duplicates,
		UnregisterRate: *unregister,
		Seed:           *seed,
		Verbose:        *verbose,
	}
	if _, err := loadtest.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
