// Package slug turns arbitrary text into URL and identifier safe slugs.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps generated slugs to the width of the slug column.
const MaxLength = 128

// fold strips combining marks after canonical decomposition, so "Crème"
// becomes "Creme". Chained transformers are stateful, so each call builds
// its own.
func fold() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Make returns the slug of s: ASCII lowercase letters and digits separated
// by single hyphens, without leading or trailing hyphens.
func Make(s string) string {
	return build(s, '-')
}

// Identifier returns a slug suitable as a table or column name component,
// separated by underscores.
func Identifier(s string) string {
	return build(s, '_')
}

func build(s string, sep rune) string {
	folded, _, err := transform.String(fold(), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(folded) {
		if r >= unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteRune(sep)
		}
		pending = false
		b.WriteRune(r)
		if b.Len() >= MaxLength {
			break
		}
	}
	out := b.String()
	if len(out) > MaxLength {
		out = out[:MaxLength]
	}
	return strings.TrimRight(out, string(sep))
}
