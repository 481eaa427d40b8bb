package score

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases text and splits it on non-alphanumeric boundaries.
// Vocabulary matching is exact, so no stemming or stop-word removal is
// applied here; the vocabulary itself decides what is worth recognizing.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NormalizeTerm canonicalizes a vocabulary term into the token form
// produced by Tokenize, so "Machine Learning" and "machine-learning"
// match the same token sequence. Index buckets are keyed by exactly this
// form, and query callers normalize through it too.
func NormalizeTerm(term string) string {
	return strings.Join(Tokenize(term), " ")
}
