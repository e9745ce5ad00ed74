// Package artwork resolves album-art metadata from interchangeable
// external providers. Each provider carries its own TTL cache and rate
// limiter; lookups are best-effort and never return errors to callers.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ArtInfo is the result of a successful provider lookup.
type ArtInfo struct {
	ImageURL   string // Resolved cover image URL
	AlbumTitle string // Album title as reported by the provider
}

// Provider defines a pluggable metadata lookup.
type Provider interface {
	// Name returns the provider's configuration key.
	Name() string

	// GetArt returns best-effort art info for the given track, or nil.
	// Errors are handled at the provider boundary and never surface.
	GetArt(ctx context.Context, artist, track, album string) *ArtInfo
}

// Config holds provider credentials and settings.
type Config struct {
	LastFMAPIKey string
}

var (
	// ErrUnknownProvider is returned for unrecognized provider names.
	ErrUnknownProvider = errors.New("artwork: unknown provider")

	// ErrMissingCredentials is returned when a provider requires
	// credentials that are not configured. The provider is disabled
	// for the session; the pipeline falls back to the default image.
	ErrMissingCredentials = errors.New("artwork: missing credentials")
)

// ForName constructs the configured provider.
func ForName(name string, cfg Config, logger zerolog.Logger) (Provider, error) {
	switch name {
	case "itunes":
		return NewITunesProvider(logger), nil
	case "lastfm":
		return NewLastFMProvider(cfg.LastFMAPIKey, logger)
	case "deezer":
		return NewDeezerProvider(logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// cacheKey builds the normalized cache key: lowercase artist plus the
// album when known, otherwise the track.
func cacheKey(artist, track, album string) string {
	scope := album
	if scope == "" {
		scope = track
	}
	return strings.ToLower(artist + "|" + scope)
}

// gate is the shared lookup path for all providers: cache first, then
// the rate limiter, then the provider-specific fetch. A cancelled
// lookup is never cached so a future call retries cleanly.
type gate struct {
	cache   *ttlCache
	limiter *rate.Limiter
}

func newGate() *gate {
	return &gate{
		cache:   newTTLCache(),
		limiter: newLimiter(),
	}
}

func (g *gate) lookup(ctx context.Context, key string, fetch func(context.Context) *ArtInfo) *ArtInfo {
	if info, ok := g.cache.Lookup(key); ok {
		return info
	}

	// Acquire a request slot. The wait delays, never drops; it aborts
	// early if this rebuild cycle is superseded.
	if err := g.limiter.Wait(ctx); err != nil {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	info := fetch(ctx)

	if ctx.Err() != nil {
		return nil
	}
	g.cache.Store(key, info)
	return info
}
