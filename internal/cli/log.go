package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history of a branch",
	Long:  `Display the commit history of a branch, newest first.`,
	Run:   runLog,
}

var (
	logBranch  string
	logOneline bool
	logLimit   int
)

func init() {
	logCmd.Flags().StringVar(&logBranch, "branch", "", "Branch to show (default branch when omitted)")
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "Show each commit on a single line")
	logCmd.Flags().IntVarP(&logLimit, "n", "n", 0, "Limit the number of commits to show")
}

func runLog(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	branchRef := logBranch
	if branchRef == "" {
		branchRef = c.Config.DefaultBranch
	}
	commits, err := c.Engine.Log(branchRef, logLimit)
	if err != nil {
		exitError("%v", err)
	}

	if len(commits) == 0 {
		fmt.Println("No commits yet")
		return
	}

	yellow := color.New(color.FgYellow)
	magenta := color.New(color.FgMagenta)

	for i, commit := range commits {
		isHead := i == 0

		if logOneline {
			yellow.Printf("%s ", commit.ShortHash())
			if isHead {
				color.New(color.FgCyan).Print("(HEAD) ")
			}
			if commit.IsMergeCommit() {
				magenta.Print("[merge] ")
			}
			fmt.Println(commit.Message)
			continue
		}

		yellow.Printf("commit %s", commit.Hash)
		if isHead {
			color.New(color.FgCyan).Print(" (HEAD)")
		}
		if commit.IsMergeCommit() {
			magenta.Print(" [merge]")
		}
		fmt.Println()
		if commit.Author != "" {
			fmt.Printf("Author: %s\n", commit.Author)
		}
		fmt.Printf("Date:   %s\n", commit.Timestamp.Format("Mon Jan 2 15:04:05 2006 -0700"))
		fmt.Printf("\n    %s\n", commit.Message)
		if commit.EntryCount > 0 {
			fmt.Printf("    %d object(s) changed\n", commit.EntryCount)
		}
		fmt.Println()
	}
}
