package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/hangout/internal/simulate"
)

// Default configuration constants.
const (
	defaultRequests   = 1000
	defaultUsers      = 100
	defaultEvents     = 50
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultDuplicates = 10
	defaultAccept     = 70
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		requests   = flag.Int("requests", defaultRequests, "Number of requests to submit")
		users      = flag.Int("users", defaultUsers, "Number of distinct requesters")
		events     = flag.Int("events", defaultEvents, "Number of catalog events to seed")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		duplicates = flag.Int("duplicates", defaultDuplicates, "Percentage of submissions sent twice")
		accept     = flag.Int("accept", defaultAccept, "Percentage of suggestions accepted")
		secret     = flag.String("secret", os.Getenv("HANGOUT_ADMIN_SECRET"), "Admin secret used to sign admin tokens")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile    = flag.String("log", "", "Log file for run output (default: simulate_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := simulate.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:     *baseURL,
		Requests:    *requests,
		Users:       max(*users, 1),
		Events:      *events,
		Workers:     *workers,
		Duplicates:  *duplicates,
		AcceptRatio: *accept,
		Timeout:     *timeout,
		AdminSecret: *secret,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
