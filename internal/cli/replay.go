package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/compat"
	"github.com/dshills/strata/internal/document"
	"github.com/dshills/strata/internal/engine/history"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <session.json>",
		Short: "Replay a recorded editing session and list its history",
		Long: `Replay a recorded editing session and list its history.

The session is a JSON array of operations or {"label", "mergeKey", "ops"}
groups. Each group is applied to an empty document and pushed to the
history the way an editor would push it live. Groups are replayed without
delay, so under a non-zero merge window a group coalesces into the previous
entry unless its label or merge key differs; set history.mergeWindowMs = 0
to keep one entry per group.`,
		Args: cobra.ExactArgs(1),
		RunE: replaySession,
	}

	cmd.Flags().Int("undo", 0, "Undo this many steps after replaying")
	return cmd
}

func replaySession(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	undo, _ := cmd.Flags().GetInt("undo")

	_, cfg, logCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cmd, logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	doc, err := document.New(cfg.Option(), history.WithLogger(logger))
	if err != nil {
		return err
	}
	h := doc.History()

	n := compat.Replay(h, doc.Store(), data)
	logger.Info("replay: session applied", "path", args[0], "groups", n)

	undone := 0
	for undone < undo && h.Undo() {
		undone++
	}

	fmt.Fprintf(out, "replayed %d groups, undid %d\n", n, undone)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDESCRIPTION\tOPS\tSIZE")
	applied := h.UndoCount()
	for i, e := range h.Entries() {
		marker := " "
		if i >= applied {
			marker = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%d\t%d\n", i+1, marker, e.Description, e.OpCount, e.EstimatedSize)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "elements: %d\n", doc.Store().Len())
	printUsage(out, h)
	return nil
}
