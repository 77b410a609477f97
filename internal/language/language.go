package language

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Default is the spoken language assumed when none is chosen.
const Default = "en"

// ErrUnsupported is returned for codes outside the supported set.
var ErrUnsupported = errors.New("unsupported language")

type entry struct {
	code2 string   // ISO 639-1 (2-letter)
	code3 string   // ISO 639-2 (3-letter)
	words []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", []string{"english"}},
	{"vi", "vie", []string{"vietnamese", "tiếng việt"}},
}

var byAlias = func() map[string]string {
	index := make(map[string]string, len(languages)*4)
	for _, e := range languages {
		index[e.code2] = e.code2
		index[e.code3] = e.code2
		for _, w := range e.words {
			index[w] = e.code2
		}
	}
	return index
}()

// Supported lists the canonical codes accepted by the backend, in display order.
func Supported() []string {
	out := make([]string, 0, len(languages))
	for _, e := range languages {
		out = append(out, e.code2)
	}
	return out
}

// IsSupported reports whether code is already a canonical supported code.
func IsSupported(code string) bool {
	for _, e := range languages {
		if e.code2 == code {
			return true
		}
	}
	return false
}

// Normalize maps user input to a canonical supported code.
// Known aliases are resolved first; anything else is parsed as a BCP 47 tag
// and reduced to its base language.
func Normalize(input string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty language code", ErrUnsupported)
	}
	if code, ok := byAlias[trimmed]; ok {
		return code, nil
	}

	tag, err := language.Parse(strings.ReplaceAll(trimmed, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a language tag", ErrUnsupported, input)
	}
	base, _ := tag.Base()
	if code, ok := byAlias[base.String()]; ok {
		return code, nil
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupported, input, strings.Join(Supported(), ", "))
}

// DisplayName returns the English name of a language code, e.g. "Vietnamese".
// Unrecognized input is returned uppercased.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}
