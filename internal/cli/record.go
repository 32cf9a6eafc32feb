package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/ddl"
	"github.com/evoludigit/pggit/internal/models"
)

var recordCmd = &cobra.Command{
	Use:   "record <object>",
	Short: "Record a DDL change on a branch",
	Long: `Record one captured DDL change in the history ledger. The object is a
schema-qualified name; unqualified names default to the public schema.
The new definition is read from --def or --def-file; omit both to
record a DROP.

Examples:
  pggit record users --type TABLE --def "CREATE TABLE users (id int)"
  pggit record users --type TABLE --def-file users.sql --branch feature
  pggit record users --drop`,
	Args: cobra.ExactArgs(1),
	Run:  runRecord,
}

var (
	recordBranch  string
	recordType    string
	recordDef     string
	recordDefFile string
	recordDrop    bool
	recordAuthor  string
)

func init() {
	recordCmd.Flags().StringVar(&recordBranch, "branch", "", "Branch to record on (default branch when omitted)")
	recordCmd.Flags().StringVar(&recordType, "type", "TABLE", "Object type (TABLE, VIEW, FUNCTION, INDEX, TRIGGER, SEQUENCE)")
	recordCmd.Flags().StringVar(&recordDef, "def", "", "New object definition")
	recordCmd.Flags().StringVar(&recordDefFile, "def-file", "", "File holding the new object definition")
	recordCmd.Flags().BoolVar(&recordDrop, "drop", false, "Record a DROP of the object")
	recordCmd.Flags().StringVar(&recordAuthor, "author", "", "Author of the change")
}

func runRecord(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	schema, name := "public", args[0]
	if i := strings.IndexByte(args[0], '.'); i > 0 {
		schema, name = args[0][:i], args[0][i+1:]
	}

	branchRef := recordBranch
	if branchRef == "" {
		branchRef = c.Config.DefaultBranch
	}
	branch, err := c.Store.ResolveBranch(branchRef)
	if err != nil {
		exitError("branch %s not found", branchRef)
	}

	def := recordDef
	if recordDefFile != "" {
		data, err := os.ReadFile(recordDefFile)
		if err != nil {
			exitError("failed to read definition file: %v", err)
		}
		def = string(data)
	}
	if !recordDrop && def == "" {
		exitError("a definition is required unless --drop is given")
	}
	if recordDrop && def != "" {
		exitError("--drop and a definition are mutually exclusive")
	}
	if def != "" {
		if err := ddl.CheckSyntax(def); err != nil {
			exitError("invalid definition: %v", err)
		}
	}

	objectID := schema + "." + name
	var beforeDef string
	if prior, err := c.Store.LatestEntry(branch.ID, objectID); err == nil && prior != nil {
		beforeDef = prior.AfterDef
	}

	changeType := models.ChangeCreate
	switch {
	case recordDrop:
		changeType = models.ChangeDrop
	case beforeDef != "":
		changeType = models.ChangeAlter
	}

	author := recordAuthor
	if author == "" {
		author = c.Config.Author
	}

	commit, err := c.Engine.RecordChange(ctx, &models.ObjectChangeEvent{
		ObjectID:   objectID,
		Schema:     schema,
		Name:       name,
		Type:       models.ObjectType(strings.ToUpper(recordType)),
		ChangeType: changeType,
		BeforeDef:  beforeDef,
		AfterDef:   def,
		BranchID:   branch.ID,
		Author:     author,
	})
	if err != nil {
		exitError("%v", err)
	}

	color.New(color.FgGreen).Printf("[%s %s] ", branch.Name, commit.ShortHash())
	fmt.Println(commit.Message)
}
