// Command pggit is the PostgreSQL schema version control CLI.
package main

import (
	"os"

	"github.com/evoludigit/pggit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
