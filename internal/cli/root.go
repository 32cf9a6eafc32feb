// Package cli implements the command-line interface for pggit.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pggit/internal/config"
	"github.com/evoludigit/pggit/internal/core"
	"github.com/evoludigit/pggit/internal/store"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config *config.Config
	Store  *store.Store
	Engine *core.Engine
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}

// initContext initializes config, store and engine
func initContext() *cmdContext {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to open store: %v", err)
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		exitError("failed to initialize store: %v", err)
	}

	return &cmdContext{
		Config: cfg,
		Store:  st,
		Engine: core.New(st, newLogger(cfg.LogLevel)),
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

var rootCmd = &cobra.Command{
	Use:   "pggit",
	Short: "PostgreSQL schema version control",
	Long: `pggit is a git-like tool for version controlling PostgreSQL schemas.
Track DDL changes on branches, merge them three-way with conflict
detection, roll back commits with dependency-aware planning, and
reconstruct the schema as it existed at any past instant.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(depsCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// shortID returns first 8 characters of an ID
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
