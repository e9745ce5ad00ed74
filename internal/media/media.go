package media

import (
	"context"
	"time"
)

// Snapshot is a raw point-in-time view of a media session, as reported
// by the OS session enumerator. Fields may be blank or stale; the state
// normalizer is responsible for turning snapshots into canonical state.
type Snapshot struct {
	Title        string        // Track title
	Artist       string        // Artist name
	Album        string        // Album name
	Status       Status        // Playback status
	Position     time.Duration // Current playback position
	Duration     time.Duration // Total track duration
	SourceID     string        // Identifier of the originating player
	ThumbnailRef string        // Opaque reference to session thumbnail (may be empty)
}

// Status represents the playback status reported by a media session.
type Status int

const (
	StatusUnknown Status = iota // Session exists but status is unknown
	StatusPlaying               // Track is currently playing
	StatusPaused                // Track is paused
	StatusStopped               // No track playing
)

// String returns a human-readable representation of the Status
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Source defines the interface for a media-session provider.
type Source interface {
	// Snapshot returns the current playback snapshot, or nil if no
	// session is active.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Changed returns a channel that receives a signal whenever the
	// session may have changed. No payload is carried; callers are
	// expected to re-query via Snapshot.
	Changed() <-chan struct{}

	// Close releases any resources held by the source.
	Close() error
}
