package simulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/hangout/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to both stdout and a file. If logFile is
// empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "simulate_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file)), logger.WithLevel(level)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Hangout Simulator
=================

Seeds a catalog, submits synthetic meetup requests, assigns and resolves
them, then verifies pending, points and joined-event invariants.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -requests int
        Number of requests to submit (default 1000)
  -users int
        Number of distinct requesters (default 100)
  -events int
        Number of catalog events to seed (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -duplicates int
        Percentage of submissions sent twice (default 10)
  -accept int
        Percentage of suggestions accepted (default 70)
  -secret string
        Admin secret used to sign admin tokens (default $HANGOUT_ADMIN_SECRET)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: simulate_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/simulate -requests 5000 -users 500 -workers 16
  go run ./cmd/simulate -url http://localhost:8080 -secret s3cret
`)
}
