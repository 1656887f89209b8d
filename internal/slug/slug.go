// Package slug derives URL identifiers from titles and names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make lowercases s, strips accents, collapses every run of characters outside
// [a-z0-9] into a single hyphen and trims hyphens at both ends.
// Make(Make(s)) == Make(s).
func Make(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// WithSuffix appends a disambiguating suffix, used when two records share a title.
func WithSuffix(s string, suffix string) string {
	base := Make(s)
	suffix = Make(suffix)
	switch {
	case suffix == "":
		return base
	case base == "":
		return suffix
	}
	return base + "-" + suffix
}
