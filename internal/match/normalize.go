// Package match reconciles free-text reverse-geocoded street names against
// the canonical street list.
package match

import (
	"regexp"
	"strings"
)

// Street-prefix tokens removed during normalization. Word-boundary matching
// keeps the removal from touching substrings inside longer words, so
// "perjalanan" survives while "jalan" is dropped.
var prefixPattern = regexp.MustCompile(`\b(jalan|jln|jl|gang|gg|lorong)\b`)

var whitespacePattern = regexp.MustCompile(`\s+`)

var punctuation = strings.NewReplacer(".", "", ",", "")

// Normalize reduces a raw street string to its comparable canonical form:
// lowercase, period/comma punctuation stripped, street-prefix tokens removed
// as whole words, all whitespace removed. Normalizing an already-normalized
// string returns it unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(raw)
	s = punctuation.Replace(s)
	s = prefixPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, "")

	return s
}
