package state

import (
	"strings"
	"sync"
	"time"

	"github.com/kwarren/resonance/internal/media"
)

// Sentinel values used when a session does not report identity fields.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
)

// MediaState is the canonical, normalized representation of what is
// currently playing. Values are constructed fresh on every normalizer
// pass and never mutated in place.
type MediaState struct {
	Title     string        `json:"title"`
	Artist    string        `json:"artist"`
	Album     string        `json:"album"`
	Status    media.Status  `json:"status"`
	Position  time.Duration `json:"position"`
	Duration  time.Duration `json:"duration"`
	SourceID  string        `json:"source_id"`
	ArtURL    string        `json:"art_url,omitempty"`
	Thumbnail string        `json:"thumbnail,omitempty"`
}

// HasIdentity reports whether both artist and title are known and
// non-sentinel, i.e. whether the track can be enriched or linked.
func (s MediaState) HasIdentity() bool {
	return s.Artist != "" && s.Artist != UnknownArtist &&
		s.Title != "" && s.Title != UnknownTitle
}

// sameIdentity reports whether two states describe the same logical
// playback situation, ignoring progress fields.
func sameIdentity(a, b MediaState) bool {
	return a.Title == b.Title &&
		a.Artist == b.Artist &&
		a.Album == b.Album &&
		a.Status == b.Status &&
		a.SourceID == b.SourceID
}

// Normalizer converts raw snapshots into canonical MediaState and
// classifies each change as major (identity-affecting) or minor
// (progress-only). Exactly one state is current at a time; it is
// replaced wholesale on every pass.
type Normalizer struct {
	mu      sync.Mutex
	current MediaState
	has     bool
}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize stores and returns the canonical state derived from snap.
// The returned bool is true when the change is major: any of title,
// artist, album, status or source differs from the previous state.
// A nil snapshot normalizes to a stopped, empty state.
func (n *Normalizer) Normalize(snap *media.Snapshot) (MediaState, bool) {
	next := MediaState{Status: media.StatusStopped}
	if snap != nil {
		next = MediaState{
			Title:     strings.TrimSpace(snap.Title),
			Artist:    strings.TrimSpace(snap.Artist),
			Album:     strings.TrimSpace(snap.Album),
			Status:    snap.Status,
			Position:  snap.Position,
			Duration:  snap.Duration,
			SourceID:  snap.SourceID,
			Thumbnail: snap.ThumbnailRef,
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	major := !n.has || !sameIdentity(n.current, next)
	n.current = next
	n.has = true
	return next, major
}

// Current returns the current canonical state, if any.
func (n *Normalizer) Current() (MediaState, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current, n.has
}

// Reset clears the canonical state. Called when the selected source
// changes so the next Normalize is always classified as major.
func (n *Normalizer) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = MediaState{}
	n.has = false
}
