package selection

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// isInvisible reports whether r is trimmed from the ends of a selection.
// unicode.IsSpace covers spaces, tabs, newlines and NBSP; the rest are
// zero-width format characters pages use for layout.
func isInvisible(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '\u200b', // zero width space
		'\u200c', // zero width non-joiner
		'\u200d', // zero width joiner
		'\u2060', // word joiner
		'\ufeff': // zero width no-break space
		return true
	}
	return false
}

// Normalize trims invisible characters from both ends of raw and returns the
// result in NFC form. Interior characters are preserved.
func Normalize(raw string) string {
	trimmed := strings.TrimFunc(raw, isInvisible)
	if trimmed == "" {
		return ""
	}
	return norm.NFC.String(trimmed)
}
