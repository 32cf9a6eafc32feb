package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state [branch]",
	Short: "Show the schema state of a branch",
	Long: `Reconstruct and display the schema of a branch, either at its head or
as it existed at a past instant given with --at (RFC 3339).

Examples:
  pggit state
  pggit state feature
  pggit state feature --at 2026-08-01T12:00:00Z
  pggit state feature --full`,
	Args: cobra.MaximumNArgs(1),
	Run:  runState,
}

var (
	stateAt   string
	stateFull bool
)

func init() {
	stateCmd.Flags().StringVar(&stateAt, "at", "", "Reconstruct the state at this instant (RFC 3339)")
	stateCmd.Flags().BoolVar(&stateFull, "full", false, "Print full definitions instead of a summary")
}

func runState(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	branchRef := c.Config.DefaultBranch
	if len(args) > 0 {
		branchRef = args[0]
	}

	at := time.Now().UTC()
	if stateAt != "" {
		var err error
		at, err = time.Parse(time.RFC3339, stateAt)
		if err != nil {
			exitError("invalid --at timestamp: %v", err)
		}
	}

	snapshots, err := c.Engine.StateAt(branchRef, at)
	if err != nil {
		exitError("%v", err)
	}

	if len(snapshots) == 0 {
		fmt.Println("No objects")
		return
	}

	cyan := color.New(color.FgCyan)
	for _, snap := range snapshots {
		cyan.Printf("%-10s", snap.Type)
		fmt.Printf(" %s.%s", snap.Schema, snap.Name)
		color.New(color.Faint).Printf("  %s\n", shortID(snap.ContentHash))
		if stateFull {
			fmt.Println(snap.Definition)
			fmt.Println()
		}
	}
}
