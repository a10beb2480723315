package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold produces a comparison key for names: compatibility decomposition,
// combining marks removed, punctuation runs collapsed to one space, and case
// folded. "Beyoncé & Jay-Z" and "beyonce  jay z" fold to the same key.
func Fold(value string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, value)
	if err != nil {
		stripped = value
	}
	var b strings.Builder
	b.Grow(len(stripped))
	pendingSpace := false
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return cases.Fold().String(b.String())
}

// EqualFold reports whether two names share the same Fold key.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
