// Package presence builds and gates the rich-presence payload derived
// from canonical media state.
package presence

// Payload is the structured activity sent to the presence sink. Only
// the most recently emitted payload is retained, for suppression.
type Payload struct {
	Details        string      // First line: "Artist — Title"
	State          string      // Second line: playback status text
	LargeImageKey  string      // Cover art URL or default asset key
	LargeImageText string      // Hover text for the large image
	Timestamps     *Timestamps // Set only while playing
	Buttons        []Button    // At most two link buttons
}

// Timestamps holds unix-second progress markers. End is zero when the
// track duration is unknown.
type Timestamps struct {
	Start int64
	End   int64
}

// Button is a labeled external link.
type Button struct {
	Label string
	URL   string
}

// Equal reports field-by-field structural equality, with order-sensitive
// button comparison.
func (p Payload) Equal(o Payload) bool {
	if p.Details != o.Details ||
		p.State != o.State ||
		p.LargeImageKey != o.LargeImageKey ||
		p.LargeImageText != o.LargeImageText {
		return false
	}

	switch {
	case p.Timestamps == nil && o.Timestamps != nil:
		return false
	case p.Timestamps != nil && o.Timestamps == nil:
		return false
	case p.Timestamps != nil && *p.Timestamps != *o.Timestamps:
		return false
	}

	if len(p.Buttons) != len(o.Buttons) {
		return false
	}
	for i := range p.Buttons {
		if p.Buttons[i] != o.Buttons[i] {
			return false
		}
	}
	return true
}

// Sink is the presence consumer: fire-and-forget, no feedback beyond
// the error used to gate emission.
type Sink interface {
	SetPresence(Payload) error
	Clear() error
	Close() error
}
