package loadtest

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/mergington/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

// SetupLogging initializes the logger to write to stdout and, when logFile is
// set, to that file as well. The returned func closes the file.
func SetupLogging(logFile, level string, verbose bool) (func() error, error) {
	var w io.Writer = os.Stdout
	closeFn := func() error { return nil }

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closeFn = file.Close
	}

	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, fmt.Errorf("failed to set log level: %w", err)
	}
	return closeFn, nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Mergington Activities Load Tool
===============================

Signs many students up for activities concurrently, then unregisters a share
of them, and checks that every roster ends up exactly as planned.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -students int
        Distinct students to sign up (default 1000)
  -workers int
        Concurrent requests in flight (default CPU cores * 2)
  -duplicates float
        Share of signups sent twice (default 0.2)
  -unregister float
        Share of students unregistered afterwards (default 0.3)
  -seed uint
        Seed for the operation plan, 0 for random
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Also write logs to this file
  -verbose
        Log every failed expectation and debug output
  -help
        Show this help message

Examples:
  go run ./cmd/loadgen -students 5000 -workers 64
  go run ./cmd/loadgen -url http://localhost:8080 -seed 42 -verbose
`)
}
