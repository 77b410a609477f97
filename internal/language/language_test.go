package language

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{" vi ", "vi"},
		{"eng", "en"},
		{"vie", "vi"},
		{"English", "en"},
		{"vietnamese", "vi"},
		{"en-US", "en"},
		{"vi-VN", "vi"},
		{"vi_VN", "vi"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeRejectsUnsupported(t *testing.T) {
	for _, input := range []string{"", "  ", "fr", "de-DE", "klingon!!", "e"} {
		t.Run(input, func(t *testing.T) {
			if _, err := Normalize(input); !errors.Is(err, ErrUnsupported) {
				t.Fatalf("Normalize(%q) error = %v, want ErrUnsupported", input, err)
			}
		})
	}
}

func TestIsSupportedOnlyAcceptsCanonicalCodes(t *testing.T) {
	if !IsSupported("en") || !IsSupported("vi") {
		t.Fatal("expected en and vi to be supported")
	}
	if IsSupported("EN") || IsSupported("eng") || IsSupported("fr") {
		t.Fatal("expected non-canonical codes to be rejected")
	}
}

func TestSupportedOrder(t *testing.T) {
	got := Supported()
	if len(got) != 2 || got[0] != "en" || got[1] != "vi" {
		t.Fatalf("Supported() = %v, want [en vi]", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"en": "English",
		"vi": "Vietnamese",
		"":   "Unknown",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}
