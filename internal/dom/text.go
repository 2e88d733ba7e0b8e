package dom

import (
	"strings"
	"unicode"
)

// isWhitespaceRune reports whether r belongs to the whitespace class used
// for filtering and normalization. Zero-width space is included because it
// appears in localized product pages and carries no content.
func isWhitespaceRune(r rune) bool {
	return unicode.IsSpace(r) || r == '\u200b'
}

// CollapseWhitespace replaces every run of whitespace with a single ASCII
// space.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if isWhitespaceRune(r) {
			pending = true
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	if pending {
		b.WriteByte(' ')
	}
	return b.String()
}

// NormalizeText collapses whitespace and strips leading/trailing space.
// Used when comparing gold-label text against node content.
func NormalizeText(s string) string {
	return strings.TrimSpace(CollapseWhitespace(s))
}

// IsEmptyOrWhitespace reports whether s contains no visible content.
func IsEmptyOrWhitespace(s string) bool {
	for _, r := range s {
		if !isWhitespaceRune(r) {
			return false
		}
	}
	return true
}
