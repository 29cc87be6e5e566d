// SPDX-License-Identifier: MIT

package resolver

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent strips combining marks: NFD decomposition, drop the marks,
// recompose.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// French articles and elisions dropped before comparison, so "la
// serviette" and "serviette" are the same answer.
var articles = map[string]bool{
	"le": true, "la": true, "les": true,
	"un": true, "une": true, "des": true,
	"du": true, "de": true,
	"l": true, "d": true,
}

// Normalize lower-cases, strips accents, splits off apostrophes and drops
// French articles.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}
	s = strings.NewReplacer("'", " ", "’", " ").Replace(s)

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if articles[f] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// minSubstringLen guards the substring tolerance against trivial matches
// ("n" would otherwise match almost anything).
const minSubstringLen = 4

// Matches compares a submitted guess against the canonical answer and its
// accepted alternatives using normalized, substring-tolerant equality.
func Matches(guess, answer string, alternatives []string) bool {
	g := Normalize(guess)
	if g == "" {
		return false
	}
	for _, candidate := range append([]string{answer}, alternatives...) {
		n := Normalize(candidate)
		if n == "" {
			continue
		}
		if g == n {
			return true
		}
		if len(n) >= minSubstringLen && strings.Contains(g, n) {
			return true
		}
		if len(g) >= minSubstringLen && strings.Contains(n, g) {
			return true
		}
	}
	return false
}

// containsWord reports whether the normalized message contains the
// normalized word as a whole token.
func containsWord(message, word string) bool {
	w := Normalize(word)
	if w == "" {
		return false
	}
	for _, token := range strings.Fields(Normalize(message)) {
		if token == w {
			return true
		}
	}
	return false
}
