package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "swarm",
	Short: "Task dispatch across a cognitive worker swarm",
	Long: `Swarm decomposes tasks into subtasks, dispatches them across a
pool of trinity teams and specialists with bounded concurrency, and
consolidates worker results into a single persisted outcome.

Core capabilities:
- Decomposes tasks by type into per-worker subtasks
- Executes subtasks concurrently with a fixed in-flight cap
- Isolates per-worker failures from the rest of the dispatch
- Consolidates partial results deterministically
- Persists outcomes to SQLite and optionally to a memory service`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
