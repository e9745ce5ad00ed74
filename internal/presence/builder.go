package presence

import (
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/kwarren/resonance/internal/artwork"
	"github.com/kwarren/resonance/internal/media"
	"github.com/kwarren/resonance/internal/state"
)

// DefaultImageKey is the asset used when no art was resolved and no
// custom default image is configured.
const DefaultImageKey = "resonance"

// linkSite describes how to turn a track identity into a deep link.
type linkSite struct {
	label    string
	template string // fmt template with one %s for the escaped query
}

// Ordered by config key; at most two keys are honored per payload.
var linkSites = map[string]linkSite{
	"youtube":    {"Search on YouTube", "https://www.youtube.com/results?search_query=%s"},
	"spotify":    {"Listen on Spotify", "https://open.spotify.com/search/%s"},
	"apple":      {"Listen on Apple Music", "https://music.apple.com/search?term=%s"},
	"soundcloud": {"Listen on SoundCloud", "https://soundcloud.com/search?q=%s"},
}

// Builder assembles presence payloads from canonical state and resolved
// art, applying truncation, fallback and timestamp rules.
type Builder struct {
	sites        []string // configured link-site keys, in order
	defaultImage string   // custom default image URL or asset key

	// Now is the clock used for timestamps; overridable in tests.
	Now func() time.Time
}

func NewBuilder(sites []string, defaultImage string) *Builder {
	return &Builder{
		sites:        sites,
		defaultImage: defaultImage,
		Now:          time.Now,
	}
}

// Build assembles the payload for st. art may be nil.
func (b *Builder) Build(st state.MediaState, art *artwork.ArtInfo) Payload {
	p := Payload{
		Details:        TruncateBytes(b.details(st), TextBudget),
		State:          TruncateBytes(statusText(st.Status), TextBudget),
		LargeImageKey:  b.imageKey(art),
		LargeImageText: TruncateBytes(b.imageText(st, art), TextBudget),
		Buttons:        b.buttons(st),
	}

	if st.Status == media.StatusPlaying {
		start := b.Now().Add(-st.Position)
		ts := &Timestamps{Start: start.Unix()}
		if st.Duration > 0 {
			ts.End = start.Add(st.Duration).Unix()
		}
		p.Timestamps = ts
	}

	return p
}

func (b *Builder) details(st state.MediaState) string {
	title := st.Title
	if title == "" {
		title = state.UnknownTitle
	}
	if st.Artist == "" || st.Artist == state.UnknownArtist {
		return title
	}
	return st.Artist + " — " + title
}

func statusText(s media.Status) string {
	switch s {
	case media.StatusPlaying:
		return "Playing"
	case media.StatusPaused:
		return "Paused"
	case media.StatusStopped:
		return "Stopped"
	default:
		return "Waiting for media"
	}
}

func (b *Builder) imageKey(art *artwork.ArtInfo) string {
	if art != nil && validImageURL(art.ImageURL) {
		return TruncateBytes(art.ImageURL, 256)
	}
	if b.defaultImage != "" {
		return b.defaultImage
	}
	return DefaultImageKey
}

// imageText picks hover text for the cover image. The presence protocol
// rejects fields shorter than two characters, so candidates under that
// length fall through: album, then title, then details, then a literal.
func (b *Builder) imageText(st state.MediaState, art *artwork.ArtInfo) string {
	candidates := []string{st.Album, st.Title, b.details(st), DefaultImageKey}
	if art != nil {
		candidates = append([]string{art.AlbumTitle}, candidates...)
	}
	for _, c := range candidates {
		if utf8.RuneCountInString(c) >= 2 {
			return c
		}
	}
	return DefaultImageKey
}

func (b *Builder) buttons(st state.MediaState) []Button {
	if !st.HasIdentity() {
		return nil
	}

	query := url.QueryEscape(st.Artist + " " + st.Title)
	var buttons []Button
	for _, key := range b.sites {
		site, ok := linkSites[key]
		if !ok {
			continue
		}
		buttons = append(buttons, Button{
			Label: TruncateBytes(site.label, LabelBudget),
			URL:   fmt.Sprintf(site.template, query),
		})
		if len(buttons) == 2 {
			break
		}
	}
	return buttons
}

// validImageURL accepts only absolute http(s) URLs.
func validImageURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
