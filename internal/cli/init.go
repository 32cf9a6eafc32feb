package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/config"
	"github.com/evoludigit/pggit/internal/models"
	"github.com/evoludigit/pggit/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new pggit repository",
	Long: `Initialize a new pggit repository in the current directory.
This creates a .pggit directory holding the configuration and the
history database, with a single root branch.`,
	Run: runInit,
}

var (
	initBranch string
	initAuthor string
)

func init() {
	initCmd.Flags().StringVar(&initBranch, "branch", config.DefaultBranch, "Name of the root branch")
	initCmd.Flags().StringVar(&initAuthor, "author", "", "Default author recorded on operations")
}

func runInit(cmd *cobra.Command, args []string) {
	// Check if already initialized
	if _, err := config.FindRoot(); err == nil {
		exitError("pggit repository already exists")
	}

	cfg, err := config.Initialize(initBranch, initAuthor)
	if err != nil {
		exitError("failed to initialize config: %v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to open store: %v", err)
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		exitError("failed to initialize store: %v", err)
	}

	root := &models.Branch{
		ID:        uuid.NewString(),
		Name:      cfg.DefaultBranch,
		Status:    models.BranchActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateBranch(root); err != nil {
		exitError("failed to create root branch: %v", err)
	}

	fmt.Printf("Initialized empty pggit repository in %s\n", cfg.Path())
	fmt.Printf("Root branch: %s\n", root.Name)
}
