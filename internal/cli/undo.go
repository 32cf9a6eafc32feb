package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/core"
	"github.com/evoludigit/pggit/internal/models"
)

var undoCmd = &cobra.Command{
	Use:   "undo <branch> <object>...",
	Short: "Undo changes to specific objects",
	Long: `Run the rollback pipeline restricted to the named objects, scoped to
either one commit or a time window.

Examples:
  pggit undo main public.users --commit 4f7c2a1b
  pggit undo main public.users public.orders --since 2026-08-01T00:00:00Z
  pggit undo main public.users --commit 4f7c2a1b --dry-run`,
	Args: cobra.MinimumNArgs(2),
	Run:  runUndo,
}

var (
	undoCommit string
	undoSince  string
	undoUntil  string
	undoDryRun bool
)

func init() {
	undoCmd.Flags().StringVar(&undoCommit, "commit", "", "Scope the undo to one commit")
	undoCmd.Flags().StringVar(&undoSince, "since", "", "Window start (RFC 3339)")
	undoCmd.Flags().StringVar(&undoUntil, "until", "", "Window end (RFC 3339, default now)")
	undoCmd.Flags().BoolVar(&undoDryRun, "dry-run", false, "Simulate and report the plan without writing")
}

func runUndo(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	mode := models.ModeExecuted
	if undoDryRun {
		mode = models.ModeDryRun
	}

	opts := core.UndoOptions{
		Objects: args[1:],
		Commit:  undoCommit,
		Mode:    mode,
	}
	if undoSince != "" {
		from, err := time.Parse(time.RFC3339, undoSince)
		if err != nil {
			exitError("invalid --since: %v", err)
		}
		opts.From = from
	}
	if undoUntil != "" {
		to, err := time.Parse(time.RFC3339, undoUntil)
		if err != nil {
			exitError("invalid --until: %v", err)
		}
		opts.To = to
	}

	result, err := c.Engine.UndoChanges(ctx, args[0], opts)
	if err != nil {
		exitError("%v", err)
	}

	printRollbackResult(result)
}
