package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "clip-manga.mp4", want: "clip-manga.mp4"},
		{name: "separators", in: "a/b\\c:d*e.mp4", want: "a-b-c-d-e.mp4"},
		{name: "quotes", in: `"what?" <now>|.mp3`, want: "what now.mp3"},
		{name: "hidden", in: "..secret", want: "secret"},
		{name: "control", in: "line\x00break\n.txt", want: "linebreak.txt"},
		{name: "empty", in: "  ", want: ""},
		{name: "only dots", in: "...", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeFileName(tc.in); got != tc.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeFileNameKeepsExtensionWhenTruncating(t *testing.T) {
	got := SanitizeFileName(strings.Repeat("x", 300) + ".mp4")
	if len([]rune(got)) != maxFileNameRunes {
		t.Fatalf("length = %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, ".mp4") {
		t.Fatalf("extension lost: %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Excerpt("xin chào thế giới", 8); got != "xin c..." {
		t.Fatalf("got %q", got)
	}
	if got := Excerpt("a\n b\tc", 0); got != "a b c" {
		t.Fatalf("got %q", got)
	}
	if got := Excerpt("abcdef", 2); got != "ab" {
		t.Fatalf("got %q", got)
	}
}
