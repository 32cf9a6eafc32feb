package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/models"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <merge-id> <object>",
	Short: "Resolve one conflict of an open merge",
	Long: `Record a resolution for one conflicted object of a merge left open by
the MANUAL_REVIEW strategy. When the last conflict is resolved the
merge finalizes automatically.

Examples:
  pggit resolve 4f7c2a1b public.users --choice TARGET
  pggit resolve 4f7c2a1b public.users --choice CUSTOM --def-file users.sql`,
	Args: cobra.ExactArgs(2),
	Run:  runResolve,
}

var (
	resolveChoice  string
	resolveDef     string
	resolveDefFile string
)

func init() {
	resolveCmd.Flags().StringVar(&resolveChoice, "choice", "", "Resolution choice: SOURCE, TARGET or CUSTOM")
	resolveCmd.Flags().StringVar(&resolveDef, "def", "", "Custom definition (with --choice CUSTOM)")
	resolveCmd.Flags().StringVar(&resolveDefFile, "def-file", "", "File holding the custom definition")
	resolveCmd.MarkFlagRequired("choice")
}

func runResolve(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	choice := models.ResolutionChoice(strings.ToUpper(resolveChoice))

	def := resolveDef
	if resolveDefFile != "" {
		data, err := os.ReadFile(resolveDefFile)
		if err != nil {
			exitError("failed to read definition file: %v", err)
		}
		def = string(data)
	}
	if choice == models.ResolveCustom && def == "" {
		exitError("--choice CUSTOM needs --def or --def-file")
	}

	result, err := c.Engine.ResolveConflict(ctx, args[0], args[1], choice, def)
	if err != nil {
		exitError("%v", err)
	}

	printMergeResult(result)
}
