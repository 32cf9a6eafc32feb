package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/models"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <branch> [commit]",
	Short: "Roll back a commit, a range, or everything after a timestamp",
	Long: `Undo recorded schema changes by appending inverse history entries
under a new rollback commit. Prior history is never rewritten.

With one commit, that commit is undone. With --to, every commit from
the given commit through --to is undone as one net operation per
object. With --timestamp instead of a commit, everything recorded
after that instant is undone.

Examples:
  pggit rollback main 4f7c2a1b
  pggit rollback main 4f7c2a1b --dry-run
  pggit rollback main 9d31e0ac --to 4f7c2a1b --order DEPENDENCY_ORDER
  pggit rollback main --timestamp 2026-08-01T12:00:00Z
  pggit rollback main 4f7c2a1b --allow-warnings`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runRollback,
}

var (
	rollbackTo            string
	rollbackTimestamp     string
	rollbackOrder         string
	rollbackDryRun        bool
	rollbackValidateOnly  bool
	rollbackNoValidate    bool
	rollbackAllowWarnings bool
)

func init() {
	rollbackCmd.Flags().StringVar(&rollbackTo, "to", "", "Range end commit")
	rollbackCmd.Flags().StringVar(&rollbackTimestamp, "timestamp", "", "Undo everything after this instant (RFC 3339)")
	rollbackCmd.Flags().StringVar(&rollbackOrder, "order", "", "Range ordering: REVERSE_CHRONOLOGICAL or DEPENDENCY_ORDER")
	rollbackCmd.Flags().BoolVar(&rollbackDryRun, "dry-run", false, "Simulate and report the plan without writing")
	rollbackCmd.Flags().BoolVar(&rollbackValidateOnly, "validate-only", false, "Stop after validation and planning")
	rollbackCmd.Flags().BoolVar(&rollbackNoValidate, "no-validate", false, "Skip pre-flight validation")
	rollbackCmd.Flags().BoolVar(&rollbackAllowWarnings, "allow-warnings", false, "Proceed past WARNING findings")
}

func runRollback(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	branch := args[0]
	mode := models.ModeExecuted
	if rollbackDryRun {
		mode = models.ModeDryRun
	}
	if rollbackValidateOnly {
		mode = models.ModeValidated
	}

	var result *models.RollbackResult
	var err error
	switch {
	case rollbackTimestamp != "":
		if len(args) > 1 {
			exitError("--timestamp and a commit are mutually exclusive")
		}
		ts, parseErr := time.Parse(time.RFC3339, rollbackTimestamp)
		if parseErr != nil {
			exitError("invalid --timestamp: %v", parseErr)
		}
		result, err = c.Engine.RollbackToTimestamp(ctx, branch, ts, !rollbackNoValidate, mode)
	case rollbackTo != "":
		if len(args) < 2 {
			exitError("range rollback needs a start commit")
		}
		order := models.RangeOrder(strings.ToUpper(rollbackOrder))
		result, err = c.Engine.RollbackRange(ctx, branch, args[1], rollbackTo, order, mode)
	default:
		if len(args) < 2 {
			exitError("a commit, --to range or --timestamp is required")
		}
		result, err = c.Engine.RollbackCommit(ctx, branch, args[1], !rollbackNoValidate, rollbackAllowWarnings, mode)
	}
	if err != nil {
		exitError("%v", err)
	}

	printRollbackResult(result)
}

func printRollbackResult(result *models.RollbackResult) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed, color.Bold)

	if len(result.Findings) > 0 {
		printFindings(result.Findings)
		fmt.Println()
	}

	switch result.Status {
	case models.RollbackSucceeded:
		green.Printf("Rollback complete: %s\n", shortID(result.RollbackCommit))
		fmt.Printf("  %d object(s) affected\n", result.ObjectsAffected)
	case models.RollbackBlocked:
		red.Println("Rollback blocked by validation findings")
		fmt.Println("Re-run with --allow-warnings to proceed past warnings;")
		fmt.Println("CRITICAL findings always block.")
	case models.RollbackSimulated:
		yellow.Printf("Dry run: %d operation(s) planned, nothing written\n", result.ObjectsAffected)
		printPlan(result.Plan)
	case models.RollbackValidated:
		green.Println("Validation and planning passed, nothing written")
		printPlan(result.Plan)
	default:
		fmt.Printf("Rollback %s: %s\n", result.RollbackID, result.Status)
	}
}

func printPlan(plan []*models.PlannedOperation) {
	if len(plan) == 0 {
		return
	}
	fmt.Println("Plan:")
	for i, op := range plan {
		fmt.Printf("  %d. %s %s", i+1, op.ChangeType, op.ObjectName)
		color.New(color.Faint).Printf(" (%s)\n", op.ObjectType)
	}
}
