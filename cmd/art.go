package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwarren/resonance/internal/artwork"
	"github.com/kwarren/resonance/internal/config"
)

var artProvider string

// artCmd represents the art command
var artCmd = &cobra.Command{
	Use:   "art ARTIST TRACK [ALBUM]",
	Short: "Look up album art for a track",
	Long: `Resolve album art for a track using the configured provider and
print the image URL. Useful for checking provider behavior and API
credentials without running the daemon.

Exit codes:
  0 - Art found
  1 - No art found`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runArt,
}

func init() {
	rootCmd.AddCommand(artCmd)

	artCmd.Flags().StringVarP(&artProvider, "provider", "p", "", "Art provider: itunes, lastfm or deezer (overrides config)")
}

func runArt(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	name := cfg.Provider
	if artProvider != "" {
		name = artProvider
	}

	provider, err := artwork.ForName(name, artwork.Config{
		LastFMAPIKey: cfg.LastFM.APIKey,
	}, setupLogger("", "warn"))
	if err != nil {
		return fmt.Errorf("failed to create art provider: %w", err)
	}

	artist, track := args[0], args[1]
	album := ""
	if len(args) == 3 {
		album = args[2]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	art := provider.GetArt(ctx, artist, track, album)
	if art == nil || art.ImageURL == "" {
		fmt.Fprintln(os.Stderr, "No art found.")
		os.Exit(1)
		return nil
	}

	fmt.Println(art.ImageURL)
	if art.AlbumTitle != "" {
		fmt.Fprintf(os.Stderr, "Album: %s\n", art.AlbumTitle)
	}

	return nil
}
