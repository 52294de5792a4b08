package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/apexmind/swarm/internal/config"
	"github.com/apexmind/swarm/internal/store"
	"github.com/apexmind/swarm/pkg/models"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recently dispatched task outcomes",
	Long: `Display the most recent task outcomes from the result store.

Shows:
  - Task ID and consolidated status
  - Worker success and failure counts
  - Confidence score and completion time`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Number of outcomes to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No outcomes yet. Run 'swarm run <input>' to dispatch a task.")
		return nil
	}

	db, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open outcome store: %w", err)
	}
	defer db.Close()

	outcomes, err := db.ListRecent(statusLimit)
	if err != nil {
		return fmt.Errorf("list outcomes: %w", err)
	}

	if len(outcomes) == 0 {
		fmt.Println("No outcomes yet. Run 'swarm run <input>' to dispatch a task.")
		return nil
	}

	fmt.Printf("Recent outcomes (%d):\n", len(outcomes))
	for _, o := range outcomes {
		displayOutcome(o)
	}
	return nil
}

func displayOutcome(o models.TaskOutcome) {
	fmt.Printf("  %s: ", o.TaskID)
	statusColorFor(o.Status).Print(string(o.Status))
	fmt.Printf("  %d/%d succeeded  confidence %.2f  %s ago\n",
		o.Succeeded, o.Total, o.Confidence, formatDuration(time.Since(o.CompletedAt)))
}

func statusColorFor(s models.OutcomeStatus) *color.Color {
	switch s {
	case models.OutcomeSucceeded:
		return color.New(color.FgGreen)
	case models.OutcomeDegraded:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}
