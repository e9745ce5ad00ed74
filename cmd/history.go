package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwarren/resonance/internal/config"
	"github.com/kwarren/resonance/internal/history"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently played tracks",
	Long: `List the most recent tracks from the local play history.

The history is recorded by the daemon as tracks play; consecutive
repeats of the same track count as one play.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of plays to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	log, err := history.Open(config.HistoryPath())
	if err != nil {
		return fmt.Errorf("failed to open play history: %w", err)
	}
	defer func() { _ = log.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	plays, err := log.Recent(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read play history: %w", err)
	}

	if len(plays) == 0 {
		fmt.Println("No plays recorded yet.")
		return nil
	}

	for _, p := range plays {
		line := fmt.Sprintf("%s  %s - %s", p.PlayedAt.Format("2006-01-02 15:04"), p.Artist, p.Title)
		if p.Album != "" {
			line += fmt.Sprintf(" (%s)", p.Album)
		}
		fmt.Println(line)
	}

	return nil
}
