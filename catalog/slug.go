package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugAliases maps historical protocol slugs to their current names, so
// bookmarked links keep resolving after a rename.
var slugAliases = map[string]string{
	"arret-cardio":             "acr-enfant",
	"asthme-severe":            "aag",
	"choc-hemorragique-enfant": "choc-hemorragique",
}

var slugFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeSlug lowercases a protocol or drug identifier, strips accents
// ("état de choc" and "etat de choc" normalize identically) and replaces
// separator runs with single hyphens.
func NormalizeSlug(s string) string {
	folded, _, err := transform.String(slugFolder, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		folded = strings.ToLower(strings.TrimSpace(s))
	}
	var b strings.Builder
	b.Grow(len(folded))
	prevHyphen := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ResolveSlug normalizes a raw slug and follows one alias hop.
func ResolveSlug(raw string) string {
	slug := NormalizeSlug(raw)
	if target, ok := slugAliases[slug]; ok {
		return target
	}
	return slug
}
