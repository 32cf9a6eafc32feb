package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/models"
)

var depsCmd = &cobra.Command{
	Use:   "deps <object>",
	Short: "Show what depends on an object",
	Long: `List every object depending on the given one, with a suggested action
for a rollback touching it. With --add, record a dependency edge
instead.

Examples:
  pggit deps public.users
  pggit deps public.users --add public.orders --dep-type FK --strength HARD`,
	Args: cobra.ExactArgs(1),
	Run:  runDeps,
}

var (
	depsAdd      string
	depsType     string
	depsStrength string
)

func init() {
	depsCmd.Flags().StringVar(&depsAdd, "add", "", "Record that this object depends on <object>")
	depsCmd.Flags().StringVar(&depsType, "dep-type", "FK", "Dependency type: FK, INDEX, TRIGGER, VIEW, FUNCTION_CALL")
	depsCmd.Flags().StringVar(&depsStrength, "strength", "HARD", "Dependency strength: HARD or SOFT")
}

func runDeps(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if depsAdd != "" {
		addDependency(c, args[0], depsAdd)
		return
	}

	impacts, err := c.Engine.RollbackDependencies(args[0])
	if err != nil {
		exitError("%v", err)
	}

	if len(impacts) == 0 {
		fmt.Println("No dependents")
		return
	}

	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	for _, impact := range impacts {
		if impact.Strength == models.DepHard {
			red.Printf("HARD ")
		} else {
			yellow.Printf("SOFT ")
		}
		fmt.Printf("%s (%s, %s)\n", impact.DependentName, impact.DependentType, impact.DependencyType)
		color.New(color.Faint).Printf("     %s\n", impact.SuggestedAction)
	}
}

func addDependency(c *cmdContext, targetRef, sourceRef string) {
	target, err := c.Store.GetObject(targetRef)
	if err != nil {
		exitError("object %s not found", targetRef)
	}
	source, err := c.Store.GetObject(sourceRef)
	if err != nil {
		exitError("object %s not found", sourceRef)
	}

	err = c.Store.AddDependency(&models.DependencyEdge{
		SourceID: source.ID,
		TargetID: target.ID,
		Type:     models.DependencyType(strings.ToUpper(depsType)),
		Strength: models.DependencyStrength(strings.ToUpper(depsStrength)),
	})
	if err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Recorded: %s depends on %s (%s/%s)\n", source.QualifiedName(), target.QualifiedName(),
		strings.ToUpper(depsType), strings.ToUpper(depsStrength))
}
