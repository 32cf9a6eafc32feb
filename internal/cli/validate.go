package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/models"
)

var validateCmd = &cobra.Command{
	Use:   "validate <branch> <commit>",
	Short: "Pre-flight check a rollback without running it",
	Long: `Run the rollback validation checks for a commit and print the graded
findings. Nothing is changed; validation is safe to repeat.

Examples:
  pggit validate main 4f7c2a1b
  pggit validate main 9d31e0ac --to 4f7c2a1b`,
	Args: cobra.ExactArgs(2),
	Run:  runValidate,
}

var validateTo string

func init() {
	validateCmd.Flags().StringVar(&validateTo, "to", "", "Range end commit (makes this a range validation)")
}

func runValidate(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	rbType := models.RollbackSingleCommit
	if validateTo != "" {
		rbType = models.RollbackRange
	}

	findings, err := c.Engine.ValidateRollback(args[0], args[1], validateTo, rbType)
	if err != nil {
		exitError("%v", err)
	}

	printFindings(findings)

	if len(blockers(findings)) > 0 {
		exitError("rollback would be blocked")
	}
	color.New(color.FgGreen).Println("Rollback would proceed")
}

func printFindings(findings []*models.ValidationFinding) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed, color.Bold)

	for _, f := range findings {
		switch f.Status {
		case models.FindingPass:
			green.Printf("PASS ")
		case models.FindingWarn:
			yellow.Printf("WARN ")
		default:
			red.Printf("FAIL ")
		}
		fmt.Printf("[%s/%s] %s\n", f.CheckType, f.Severity, f.Message)
		if len(f.AffectedObjects) > 0 {
			color.New(color.Faint).Printf("       affects: %s\n", strings.Join(f.AffectedObjects, ", "))
		}
	}
}

func blockers(findings []*models.ValidationFinding) []*models.ValidationFinding {
	var out []*models.ValidationFinding
	for _, f := range findings {
		if f.Blocking(false) {
			out = append(out, f)
		}
	}
	return out
}
