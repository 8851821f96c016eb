package dedup

import (
	"html"
	"strings"
	"unicode"
)

// NormalizeTitle canonicalizes a free-text event title into a comparable
// key. Listings of the same event differ across publishers in casing,
// punctuation, and HTML entity encoding ("Heron&#8217;s" vs "Heron's");
// after normalization they compare equal.
//
// Steps, in order: lowercase, decode HTML entities, replace every rune that
// is not a letter, digit, or whitespace with a space, collapse whitespace. Entities must be
// decoded before punctuation stripping or "&#8217;" would leave digit noise
// behind instead of collapsing away. Punctuation becomes a separator, not a
// deletion, so "Work-Party" and "Work Party" normalize identically.
func NormalizeTitle(title string) string {
	s := html.UnescapeString(strings.ToLower(title))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
