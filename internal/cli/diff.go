package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/core"
	"github.com/evoludigit/pggit/internal/models"
)

var diffCmd = &cobra.Command{
	Use:   "diff <branch-a> <branch-b>",
	Short: "Compare the schema state of two points",
	Long: `Compare the schema of two branches, optionally at past instants.

Examples:
  pggit diff main feature
  pggit diff main feature --at-a 2026-08-01T00:00:00Z`,
	Args: cobra.ExactArgs(2),
	Run:  runDiff,
}

var (
	diffAtA  string
	diffAtB  string
	diffFull bool
)

func init() {
	diffCmd.Flags().StringVar(&diffAtA, "at-a", "", "Timestamp for the first point (RFC 3339, default HEAD)")
	diffCmd.Flags().StringVar(&diffAtB, "at-b", "", "Timestamp for the second point (RFC 3339, default HEAD)")
	diffCmd.Flags().BoolVar(&diffFull, "full", false, "Show definition diffs for modified objects")
}

func runDiff(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	pointA := core.Point{BranchID: args[0], At: parseAt(diffAtA)}
	pointB := core.Point{BranchID: args[1], At: parseAt(diffAtB)}

	deltas, err := c.Engine.Diff(pointA, pointB)
	if err != nil {
		exitError("%v", err)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	changed := 0
	for _, d := range deltas {
		switch d.Kind {
		case models.DeltaAdded:
			green.Printf("A  %s\n", d.ObjectName)
		case models.DeltaRemoved:
			red.Printf("D  %s\n", d.ObjectName)
		case models.DeltaModified:
			yellow.Printf("M  %s\n", d.ObjectName)
			if diffFull {
				renderDiff(d.DefA, d.DefB)
			}
		default:
			continue
		}
		changed++
	}
	if changed == 0 {
		fmt.Println("No differences")
	}
}

func parseAt(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		exitError("invalid timestamp %q: %v", s, err)
	}
	return at
}
