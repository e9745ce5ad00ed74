package presence

import (
	"testing"
	"unicode/utf8"
)

func TestTruncateBytes_ShortStringsUntouched(t *testing.T) {
	for _, s := range []string{"", "abc", "日本語"} {
		if got := TruncateBytes(s, TextBudget); got != s {
			t.Errorf("TruncateBytes(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestTruncateBytes_AddsSuffixOnCut(t *testing.T) {
	got := TruncateBytes("abcdefghij", 8)
	if got != "abcde…" {
		t.Errorf("TruncateBytes() = %q, want %q", got, "abcde…")
	}
}

func TestTruncateBytes_NeverSplitsRunes(t *testing.T) {
	inputs := []string{
		"日本語のタイトルです、とても長い日本語のタイトル",
		"Модест Петрович Мусоргский — Картинки с выставки",
		"🎵🎶🎵🎶🎵🎶🎵🎶",
		"mixed ascii と漢字 and ümlauts",
	}

	for _, s := range inputs {
		for budget := 0; budget <= len(s)+4; budget++ {
			got := TruncateBytes(s, budget)
			if len(got) > budget {
				t.Fatalf("TruncateBytes(%q, %d) = %q: %d bytes exceeds budget", s, budget, got, len(got))
			}
			if !utf8.ValidString(got) {
				t.Fatalf("TruncateBytes(%q, %d) = %q: invalid UTF-8", s, budget, got)
			}
		}
	}
}

func TestTruncateBytes_TinyBudgetSkipsSuffix(t *testing.T) {
	got := TruncateBytes("abcdef", 2)
	if got != "ab" {
		t.Errorf("TruncateBytes() = %q, want bare cut when the suffix cannot fit", got)
	}
}
