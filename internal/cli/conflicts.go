package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/models"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <source> <target>",
	Short: "Detect merge conflicts between two branches",
	Long: `Run three-way conflict detection between a source and a target branch
without merging anything.

Examples:
  pggit conflicts feature main
  pggit conflicts feature main --base main --full`,
	Args: cobra.ExactArgs(2),
	Run:  runConflicts,
}

var (
	conflictsBase string
	conflictsFull bool
)

func init() {
	conflictsCmd.Flags().StringVar(&conflictsBase, "base", "", "Explicit merge base branch (computed when omitted)")
	conflictsCmd.Flags().BoolVar(&conflictsFull, "full", false, "Show definition diffs for each conflict")
}

func runConflicts(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	conflicts, err := c.Engine.DetectMergeConflicts(args[0], args[1], conflictsBase)
	if err != nil {
		exitError("%v", err)
	}

	if len(conflicts) == 0 {
		color.New(color.FgGreen).Println("No conflicts")
		return
	}

	printConflicts(conflicts, conflictsFull)
}

func printConflicts(conflicts []*models.Conflict, full bool) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	for _, conflict := range conflicts {
		if conflict.Type == models.BothModified {
			red.Printf("%s  %s", conflict.Type, conflict.ObjectName)
		} else {
			yellow.Printf("%s  %s", conflict.Type, conflict.ObjectName)
		}
		fmt.Printf(" [%s]", conflict.Severity)
		if conflict.AutoResolvable {
			color.New(color.Faint).Print(" auto-resolvable")
		}
		fmt.Println()

		if full {
			fmt.Println("  source vs target:")
			renderDiff(conflict.SourceDef, conflict.TargetDef)
		}
	}
}
