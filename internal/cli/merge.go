package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/core"
	"github.com/evoludigit/pggit/internal/models"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <source> <target>",
	Short: "Merge a source branch into a target branch",
	Long: `Merge the source branch into the target branch using three-way
conflict detection against their common ancestor.

Independent changes are always applied. The strategy governs only
objects modified on both sides:

  ABORT_ON_CONFLICT  abort the merge, change nothing (default)
  TARGET_WINS        keep the target's definition
  SOURCE_WINS        keep the source's definition
  UNION              structurally combine table/trigger definitions
  MANUAL_REVIEW      leave conflicts open for 'pggit resolve'

Examples:
  pggit merge feature main
  pggit merge feature main --strategy SOURCE_WINS -m "take feature"
  pggit merge feature main --strategy MANUAL_REVIEW`,
	Args: cobra.ExactArgs(2),
	Run:  runMerge,
}

var (
	mergeStrategy string
	mergeMessage  string
	mergeAuthor   string
	mergeBase     string
)

func init() {
	mergeCmd.Flags().StringVar(&mergeStrategy, "strategy", string(models.StrategyAbortOnConflict), "Conflict strategy")
	mergeCmd.Flags().StringVarP(&mergeMessage, "message", "m", "", "Merge commit message")
	mergeCmd.Flags().StringVar(&mergeAuthor, "author", "", "Author recorded on the merge")
	mergeCmd.Flags().StringVar(&mergeBase, "base", "", "Explicit merge base branch")
}

func runMerge(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	strategy := models.MergeStrategy(strings.ToUpper(mergeStrategy))
	if !strategy.Valid() {
		exitError("unknown strategy %q", mergeStrategy)
	}

	author := mergeAuthor
	if author == "" {
		author = c.Config.Author
	}

	result, err := c.Engine.MergeBranches(ctx, args[0], args[1], core.MergeOptions{
		Strategy: strategy,
		Message:  mergeMessage,
		Author:   author,
		Base:     mergeBase,
	})
	if err != nil {
		exitError("%v", err)
	}

	printMergeResult(result)
}

func printMergeResult(result *models.MergeResult) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed, color.Bold)

	switch result.Status {
	case models.MergeSuccess:
		green.Printf("Merge complete: %s\n", shortID(result.ResultCommit))
		fmt.Printf("  %d object(s) merged\n", result.ObjectsMerged)
		if result.ConflictsDetected > 0 {
			yellow.Printf("  %d conflict(s) resolved\n", result.ConflictsResolved)
		}
	case models.MergeAborted:
		red.Println("Merge aborted: unresolved conflicts, nothing changed")
		printConflicts(result.Conflicts, false)
	case models.MergeConflict:
		yellow.Printf("Merge pending: %d of %d conflict(s) resolved\n", result.ConflictsResolved, result.ConflictsDetected)
		printConflicts(result.Conflicts, false)
		fmt.Printf("\nResolve with: pggit resolve %s <object> --choice SOURCE|TARGET|CUSTOM\n", result.MergeID)
	default:
		fmt.Printf("Merge %s: %s\n", result.MergeID, result.Status)
	}
}
