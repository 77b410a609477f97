package textutil

import (
	"strings"
	"unicode"
)

const maxFileNameRunes = 120

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a server-supplied name safe to create in a local
// directory. Separators and wildcard characters become dashes, quoting and
// redirection characters and control runes are dropped, and leading dots are
// trimmed so the result is never hidden or relative. Overlong names keep
// their extension. An empty result means nothing usable remained.
func SanitizeFileName(name string) string {
	name = fileNameReplacer.Replace(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimLeft(strings.TrimSpace(name), ".")
	name = strings.TrimSpace(name)

	runes := []rune(name)
	if len(runes) <= maxFileNameRunes {
		return name
	}
	ext := ""
	if dot := strings.LastIndex(name, "."); dot > 0 && len([]rune(name[dot:])) <= 10 {
		ext = name[dot:]
	}
	keep := maxFileNameRunes - len([]rune(ext))
	return strings.TrimSpace(string(runes[:keep])) + ext
}
