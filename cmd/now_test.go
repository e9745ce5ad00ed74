package cmd

import (
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/kwarren/resonance/internal/state"
)

func TestFormatState(t *testing.T) {
	st := state.MediaState{
		Title:  "One More Time",
		Artist: "Daft Punk",
		Album:  "Discovery",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"default", "{{.Artist}} - {{.Title}}", "Daft Punk - One More Time"},
		{"with album", "{{.Title}} ({{.Album}})", "One More Time (Discovery)"},
		{"literal", "playing", "playing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatState(st, tt.template)
			if err != nil {
				t.Fatalf("formatState: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := formatState(st, "{{.Artist"); err == nil {
		t.Error("expected an error for a malformed template")
	}
}

func TestPadToWidth(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"no padding requested", "hello", 0, "hello"},
		{"exact width", "hello", 5, "hello"},
		{"pads short text", "hi", 5, "hi   "},
		{"truncates long text", "hello world", 8, "hello..."},
		{"width smaller than ellipsis", "hello", 2, ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := padToWidth(tt.text, tt.width); got != tt.want {
				t.Errorf("padToWidth(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestPadToWidthWideRunes(t *testing.T) {
	// CJK characters occupy two display columns each.
	got := padToWidth("日本語のタイトル", 10)

	if w := runewidth.StringWidth(got); w != 10 {
		t.Errorf("display width = %d, want 10 (got %q)", w, got)
	}
}
