// Package main is the entry point for the strata command.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/strata/internal/cli"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRoot(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
