package pages

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugTransformer decomposes unicode and strips combining marks, so
// "Écriture" slugs to "ecriture".
var slugTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug derives a deterministic URL segment from a title.
func Slug(title string) string {
	folded, _, err := transform.String(slugTransformer, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
