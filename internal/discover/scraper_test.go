package discover

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateTextKeepsRuneBoundaries(t *testing.T) {
	short := "hello"
	if got := truncateText(short, 10); got != short {
		t.Errorf("short input changed: %q", got)
	}

	// Two-byte runes with an odd byte limit: a naive byte slice would land
	// mid-sequence.
	text := strings.Repeat("é", 10)
	got := truncateText(text, 7)
	if len(got) > 7 {
		t.Errorf("got %d bytes, want at most 7", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation produced invalid UTF-8: %q", got)
	}
	if got != strings.Repeat("é", 3) {
		t.Errorf("got %q, want the first three runes", got)
	}

	if got := truncateText("日本語の旅行ガイド", 8); !utf8.ValidString(got) || len(got) > 8 {
		t.Errorf("multibyte truncation invalid: %q (%d bytes)", got, len(got))
	}
}
