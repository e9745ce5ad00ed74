// Package engine drives the presence synchronization pipeline:
// normalize, enrich, build, suppress, emit.
package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kwarren/resonance/internal/artwork"
	"github.com/kwarren/resonance/internal/media"
	"github.com/kwarren/resonance/internal/presence"
	"github.com/kwarren/resonance/internal/state"
)

// Observer receives the latest normalized state and resolved art after
// each build, independent of whether the emission was suppressed.
// Observers are best-effort; they must not block.
type Observer func(state.MediaState, *artwork.ArtInfo)

// Options configures an Engine.
type Options struct {
	Provider artwork.Provider // nil disables enrichment
	Builder  *presence.Builder
	Sink     presence.Sink
	CoverArt bool
	Logger   zerolog.Logger
}

// Engine owns the rebuild pipeline for the selected source. All mutable
// session state lives here, constructed once at the composition root,
// so parallel tests get isolated instances.
type Engine struct {
	normalizer *state.Normalizer
	suppressor *presence.Suppressor
	provider   artwork.Provider
	builder    *presence.Builder
	sink       presence.Sink
	coverArt   bool
	logger     zerolog.Logger

	mu        sync.Mutex // serializes emission and observer access
	observers []Observer
	cleared   bool // true while the sink is known to show no activity
}

func New(opts Options) *Engine {
	return &Engine{
		normalizer: state.NewNormalizer(),
		suppressor: presence.NewSuppressor(),
		provider:   opts.Provider,
		builder:    opts.Builder,
		sink:       opts.Sink,
		coverArt:   opts.CoverArt,
		logger:     opts.Logger.With().Str("component", "engine").Logger(),
		cleared:    true, // nothing emitted yet
	}
}

// Observe registers an observer for post-build notifications.
func (e *Engine) Observe(fn Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// BuildAndMaybeEmit runs one full pipeline pass for the given snapshot.
// It reports whether a payload was actually sent to the sink. A nil
// snapshot means no active session: the sink is cleared.
//
// Cancellation is cooperative: if ctx is cancelled the cycle's partial
// work is discarded silently and nothing is emitted or recorded.
func (e *Engine) BuildAndMaybeEmit(ctx context.Context, snap *media.Snapshot) (bool, error) {
	// A superseded cycle must leave the canonical state and the
	// last-emitted reference exactly as they were.
	if ctx.Err() != nil {
		return false, nil
	}

	st, major := e.normalizer.Normalize(snap)

	// A major change invalidates the last-emitted payload so the next
	// candidate always goes out, even if textually identical to a
	// stale one.
	if major {
		e.suppressor.Reset()
	}

	if snap == nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.notifyLocked(st, nil)
		return false, e.clearLocked()
	}

	var art *artwork.ArtInfo
	if e.coverArt && e.provider != nil && st.HasIdentity() {
		art = e.provider.GetArt(ctx, st.Artist, st.Title, st.Album)
	}
	if ctx.Err() != nil {
		return false, nil
	}
	if art != nil {
		st.ArtURL = art.ImageURL
	}

	payload := e.builder.Build(st, art)

	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx.Err() != nil {
		return false, nil
	}

	e.notifyLocked(st, art)

	if !e.suppressor.ShouldEmit(payload) {
		e.logger.Debug().Str("details", payload.Details).Msg("Suppressed identical payload")
		return false, nil
	}

	if err := e.sink.SetPresence(payload); err != nil {
		// The candidate was recorded as emitted but never arrived;
		// forget it so the next cycle retries.
		e.suppressor.Reset()
		return false, err
	}
	e.cleared = false

	e.logger.Info().
		Str("details", payload.Details).
		Str("state", payload.State).
		Msg("Presence updated")
	return true, nil
}

// Reset clears all per-source session state. Called when the selected
// source changes.
func (e *Engine) Reset() {
	e.normalizer.Reset()
	e.suppressor.Reset()
}

// Clear resets session state and removes any visible presence.
func (e *Engine) Clear() error {
	e.Reset()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clearLocked()
}

// clearLocked sends a clear only when an activity may still be visible,
// so idle safety ticks do not generate wire traffic. Caller holds mu.
func (e *Engine) clearLocked() error {
	if e.cleared {
		return nil
	}
	if err := e.sink.Clear(); err != nil {
		return err
	}
	e.cleared = true
	return nil
}

// Close releases the sink.
func (e *Engine) Close() error {
	return e.sink.Close()
}

func (e *Engine) notify(st state.MediaState, art *artwork.ArtInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifyLocked(st, art)
}

func (e *Engine) notifyLocked(st state.MediaState, art *artwork.ArtInfo) {
	for _, fn := range e.observers {
		fn(st, art)
	}
}
