package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/config"
	"github.com/dshills/strata/internal/document"
	"github.com/dshills/strata/internal/engine/history"
	"github.com/dshills/strata/internal/plugin"
	plua "github.com/dshills/strata/internal/plugin/lua"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run a Lua script against an empty document",
		Long: `Run a Lua script against an empty document.

The script reaches the document through require("strata"). After it
finishes, the size of the recorded history is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: runScript,
	}

	cmd.Flags().Bool("watch", false, "Reload the config file while the script runs")
	cmd.Flags().Duration("timeout", plua.DefaultExecutionTimeout, "Script execution timeout (0 disables)")
	cmd.Flags().String("call", "", "Global function to call after the script and print its results")
	return cmd
}

func runScript(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	watch, _ := cmd.Flags().GetBool("watch")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	call, _ := cmd.Flags().GetString("call")

	loader, cfg, logCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cmd, logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	doc, err := document.New(cfg.Option(), history.WithLogger(logger))
	if err != nil {
		return err
	}

	if watch && loader.Path() != "" {
		reloader, err := config.NewReloader(loader, func(cfg config.History, err error) {
			if err == nil {
				cfg.ApplyTo(doc.History())
			}
		}, logger)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer func() { _ = reloader.Close() }()
		reloader.Start(ctx)
	}

	host, err := plugin.NewHost(doc,
		plugin.WithOutput(out),
		plugin.WithLogger(logger),
		plugin.WithExecutionTimeout(timeout),
	)
	if err != nil {
		return err
	}
	if err := host.Load(ctx); err != nil {
		return err
	}
	defer func() { _ = host.Unload() }()

	start := time.Now()
	if err := host.RunFile(ctx, args[0]); err != nil {
		return err
	}
	logger.Debug("run: script done", "path", args[0], "elapsed", time.Since(start))

	if call != "" {
		results, err := host.Call(call)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Fprintln(out, r)
		}
	}

	fmt.Fprintf(out, "elements: %d\n", doc.Store().Len())
	printUsage(out, doc.History())
	return nil
}
