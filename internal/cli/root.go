// Package cli implements the strata command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/config"
	"github.com/dshills/strata/internal/engine/history"
	"github.com/dshills/strata/internal/logging"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRoot creates the strata root command with all subcommands attached.
func NewRoot(info BuildInfo) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "strata",
		Short: "strata - undo history engine for element documents",
		Long: `strata records edits to a document of drawing elements as an
undoable history, coalesces rapid edits and bounds memory use.

Scripts drive a document through the strata Lua API; recorded sessions
can be replayed from JSON.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", string(logging.FormatText), "Log format (text, json)")
	flags.String("log-file", "", "Write logs to a rotated file instead of stderr")
	flags.StringP("config", "c", "", "Path to a TOML or YAML config file")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newVersionCmd(info))

	return rootCmd
}

// newLogger builds the logger described by the persistent flags. Flags the
// user did not set fall back to the "logging" config section.
func newLogger(cmd *cobra.Command, fallback config.Logging) (*slog.Logger, func() error, error) {
	flags := cmd.Flags()
	pick := func(name, configured string) string {
		v, _ := flags.GetString(name)
		if !flags.Changed(name) && configured != "" {
			return configured
		}
		return v
	}

	return logging.New(logging.Config{
		Level:  pick("log-level", fallback.Level),
		Format: logging.Format(pick("log-format", fallback.Format)),
		File:   pick("log-file", fallback.File),
		Output: cmd.ErrOrStderr(),
	})
}

// loadConfig reads the history and logging settings named by --config.
func loadConfig(cmd *cobra.Command) (*config.Loader, config.History, config.Logging, error) {
	path, _ := cmd.Flags().GetString("config")
	loader := config.NewLoader(path)

	logCfg, err := loader.LoadLogging()
	if err != nil {
		return nil, config.History{}, config.Logging{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, config.History{}, config.Logging{}, fmt.Errorf("load config: %w", err)
	}
	return loader, cfg, logCfg, nil
}

// printUsage writes the retained size of h's log.
func printUsage(w io.Writer, h *history.History) {
	u := h.MemoryUsage()
	fmt.Fprintf(w, "history: %d entries, %d bytes (%.3f MB)\n", u.EntriesCount, u.EstimatedBytes, u.EstimatedMB)
}
