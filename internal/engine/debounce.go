package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kwarren/resonance/internal/media"
)

// DefaultQuietPeriod is how long input must stay quiet before a burst
// of notifications collapses into one rebuild.
const DefaultQuietPeriod = 200 * time.Millisecond

// Controller coalesces bursts of change notifications into single
// rebuilds. Each NotifyChanged restarts the quiet timer and supersedes
// any rebuild already in flight; on fire, exactly one rebuild runs
// against a snapshot taken at fire time.
type Controller struct {
	source media.Source
	engine *Engine
	quiet  time.Duration
	logger zerolog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc // cancels the in-flight rebuild
	closed bool
}

func NewController(source media.Source, engine *Engine, quiet time.Duration, logger zerolog.Logger) *Controller {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Controller{
		source: source,
		engine: engine,
		quiet:  quiet,
		logger: logger.With().Str("component", "debounce").Logger(),
	}
}

// NotifyChanged signals that the session may have changed. Safe to call
// from any goroutine.
func (c *Controller) NotifyChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	// Supersede in-flight work before starting the next cycle; its
	// result must never be applied.
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.quiet, c.fire)
}

func (c *Controller) fire() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	source := c.source
	c.mu.Unlock()

	go c.rebuild(ctx, source)
}

// rebuild queries the source as of fire time and runs one pipeline
// pass. Errors from a superseded cycle are discarded silently.
func (c *Controller) rebuild(ctx context.Context, source media.Source) {
	snap, err := source.Snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Debug().Err(err).Msg("Failed to read snapshot")
		}
		return
	}

	if _, err := c.engine.BuildAndMaybeEmit(ctx, snap); err != nil && ctx.Err() == nil {
		c.logger.Warn().Err(err).Msg("Failed to update presence")
	}
}

// SwitchSource replaces the watched source. Session state is reset so
// the first build after the switch always emits; a nil source clears
// the presence and leaves the controller idle.
func (c *Controller) SwitchSource(source media.Source) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.source = source
	c.mu.Unlock()

	if source == nil {
		if err := c.engine.Clear(); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to clear presence")
		}
		return
	}
	c.engine.Reset()
	c.NotifyChanged()
}

// Stop cancels any pending or in-flight work. The controller cannot be
// restarted.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
