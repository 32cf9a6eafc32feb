package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// renderDiff prints a line-oriented colored diff between two definitions.
func renderDiff(before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	for _, d := range diffs {
		for _, line := range splitDiffLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				red.Printf("- %s\n", line)
			case diffmatchpatch.DiffInsert:
				green.Printf("+ %s\n", line)
			default:
				dim.Printf("  %s\n", line)
			}
		}
	}
}

func splitDiffLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// printDefinition prints a definition block, or a drop marker when empty.
func printDefinition(def string) {
	if def == "" {
		color.New(color.Faint).Println("  (dropped)")
		return
	}
	for _, line := range strings.Split(strings.TrimRight(def, "\n"), "\n") {
		fmt.Printf("  %s\n", line)
	}
}
