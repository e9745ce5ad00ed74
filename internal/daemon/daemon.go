// Package daemon wires the media source, enrichment pipeline and
// presence sink together and runs them until shutdown.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kwarren/resonance/internal/artwork"
	"github.com/kwarren/resonance/internal/config"
	"github.com/kwarren/resonance/internal/discord"
	"github.com/kwarren/resonance/internal/engine"
	"github.com/kwarren/resonance/internal/history"
	"github.com/kwarren/resonance/internal/media"
	"github.com/kwarren/resonance/internal/presence"
	"github.com/kwarren/resonance/internal/state"
	"github.com/kwarren/resonance/internal/statefile"
)

// safetyInterval backstops missed change signals: players occasionally
// drop PropertiesChanged emissions, so the session is re-checked on a
// slow tick regardless.
const safetyInterval = 10 * time.Second

const historyRetention = 90 * 24 * time.Hour

// Daemon coordinates the media source, rebuild controller, play
// history and state persistence.
type Daemon struct {
	source     media.Source
	engine     *engine.Engine
	controller *engine.Controller
	log        *history.Log
	stateFile  *statefile.File
	logger     zerolog.Logger
}

// New builds the full pipeline from configuration.
func New(cfg *config.Config, logger zerolog.Logger) (*Daemon, error) {
	source, err := media.NewMPRISSource(cfg.Player, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open media source: %w", err)
	}

	var provider artwork.Provider
	if cfg.CoverArt {
		provider, err = artwork.ForName(cfg.Provider, artwork.Config{
			LastFMAPIKey: cfg.LastFM.APIKey,
		}, logger)
		if err != nil {
			source.Close()
			return nil, fmt.Errorf("failed to create art provider: %w", err)
		}
	}

	log, err := history.Open(config.HistoryPath())
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("failed to open play history: %w", err)
	}

	eng := engine.New(engine.Options{
		Provider: provider,
		Builder:  presence.NewBuilder(cfg.LinkSites, cfg.DefaultImage),
		Sink:     discord.NewSink(cfg.AppID, "resonance", logger),
		CoverArt: cfg.CoverArt,
		Logger:   logger,
	})

	d := &Daemon{
		source:     source,
		engine:     eng,
		controller: engine.NewController(source, eng, time.Duration(cfg.QuietPeriodMS)*time.Millisecond, logger),
		log:        log,
		stateFile:  statefile.New(config.StatePath()),
		logger:     logger.With().Str("component", "daemon").Logger(),
	}

	eng.Observe(d.recordState)

	return d, nil
}

// recordState runs after every rebuild: it mirrors the latest state to
// the state file and appends identified tracks to the play history.
func (d *Daemon) recordState(st state.MediaState, _ *artwork.ArtInfo) {
	if err := d.stateFile.Write(st); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to persist state")
	}

	if !st.HasIdentity() || st.Status != media.StatusPlaying {
		return
	}
	_, err := d.log.Record(context.Background(), history.Play{
		Title:    st.Title,
		Artist:   st.Artist,
		Album:    st.Album,
		SourceID: st.SourceID,
		ArtURL:   st.ArtURL,
		PlayedAt: time.Now(),
	})
	if err != nil {
		d.logger.Warn().Err(err).Msg("Failed to record play")
	}
}

// Run starts the daemon and blocks until shutdown signal received
func (d *Daemon) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Handle first signal gracefully, second signal forces exit
	go func() {
		<-sigChan
		d.logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		<-sigChan
		d.logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	d.run(ctx)
	return nil
}

// run is the main daemon loop: change signals and the safety tick both
// funnel into the controller, which debounces them into rebuilds.
func (d *Daemon) run(ctx context.Context) {
	d.logger.Info().Msg("Starting daemon")

	// Pick up whatever is already playing.
	d.controller.NotifyChanged()

	ticker := time.NewTicker(safetyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Daemon stopped")
			return
		case <-d.source.Changed():
			d.controller.NotifyChanged()
		case <-ticker.C:
			d.controller.NotifyChanged()
		}
	}
}

// Shutdown stops the pipeline, clears the visible presence and closes
// all resources.
func (d *Daemon) Shutdown() error {
	d.logger.Info().Msg("Shutting down daemon")

	d.controller.Stop()

	if err := d.engine.Clear(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to clear presence")
	}
	if err := d.engine.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to close presence sink")
	}
	if err := d.stateFile.Remove(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to remove state file")
	}
	if err := d.source.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to close media source")
	}

	ctx := context.Background()
	if _, err := d.log.Cleanup(ctx, historyRetention); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to cleanup play history")
	}
	if err := d.log.Close(); err != nil {
		return fmt.Errorf("failed to close play history: %w", err)
	}

	return nil
}
