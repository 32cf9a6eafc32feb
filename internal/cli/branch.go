package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/models"
)

var branchCmd = &cobra.Command{
	Use:   "branch [name]",
	Short: "List branches or create a new one",
	Long: `Without arguments, list all branches. With a name, create a new
branch forked from --from (the default branch when omitted).

Examples:
  pggit branch                       # List branches
  pggit branch feature               # Fork 'feature' from the default branch
  pggit branch hotfix --from feature # Fork 'hotfix' from 'feature'`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBranch,
}

var branchFrom string

func init() {
	branchCmd.Flags().StringVar(&branchFrom, "from", "", "Parent branch to fork from")
}

func runBranch(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if len(args) == 0 {
		listBranches(c)
		return
	}

	name := args[0]
	if _, err := c.Store.GetBranchByName(name); err == nil {
		exitError("branch %s already exists", name)
	}

	parentRef := branchFrom
	if parentRef == "" {
		parentRef = c.Config.DefaultBranch
	}
	parent, err := c.Store.ResolveBranch(parentRef)
	if err != nil {
		exitError("parent branch %s not found", parentRef)
	}

	branch := &models.Branch{
		ID:         uuid.NewString(),
		Name:       name,
		ParentID:   parent.ID,
		Status:     models.BranchActive,
		HeadCommit: parent.HeadCommit,
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.Store.CreateBranch(branch); err != nil {
		exitError("failed to create branch: %v", err)
	}

	color.New(color.FgGreen).Printf("Created branch %s", name)
	fmt.Printf(" (forked from %s)\n", parent.Name)
}

func listBranches(c *cmdContext) {
	branches, err := c.Store.ListBranches()
	if err != nil {
		exitError("%v", err)
	}

	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)
	for _, b := range branches {
		switch b.Status {
		case models.BranchActive:
			green.Printf("  %s", b.Name)
		case models.BranchMerged:
			dim.Printf("  %s", b.Name)
		default:
			fmt.Printf("  %s", b.Name)
		}
		if b.Status != models.BranchActive {
			fmt.Printf(" [%s]", b.Status)
		}
		if b.HeadCommit != "" {
			fmt.Printf(" @ %s", shortID(b.HeadCommit))
		}
		fmt.Println()
	}
}
