package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeName is the stored form of category and product names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DisplayName renders a stored name in title case. Every run of letters is
// capitalized on its own, so "3d printer" becomes "3D Printer" and "o'neil"
// becomes "O'Neil". Display only, never persisted.
func DisplayName(name string) string {
	caser := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(name))
	for len(name) > 0 {
		end := strings.IndexFunc(name, func(r rune) bool { return !unicode.IsLetter(r) })
		if end == 0 {
			next := strings.IndexFunc(name, unicode.IsLetter)
			if next < 0 {
				next = len(name)
			}
			b.WriteString(name[:next])
			name = name[next:]
			continue
		}
		if end < 0 {
			end = len(name)
		}
		b.WriteString(caser.String(name[:end]))
		name = name[end:]
	}
	return b.String()
}
