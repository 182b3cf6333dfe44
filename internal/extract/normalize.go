// Package extract turns free-form Portuguese player text into structured facts:
// names, ages, group size and a declared player roster.
//
// Every matcher works on text folded by Normalize, so "Água" and "agua"
// compare equal. Extractors never fail: a missing fact is reported as the zero
// value plus ok=false and callers fall back to defaults.
package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize decomposes s, strips combining marks and lowercases the result.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// tokenRE splits normalized text into words.
var tokenRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Tokens returns the normalized word tokens of s in order.
func Tokens(s string) []string {
	return tokenRE.FindAllString(Normalize(s), -1)
}

// HasToken reports whether the normalized text of s contains word as a whole token.
func HasToken(s, word string) bool {
	word = Normalize(word)
	for _, t := range Tokens(s) {
		if t == word {
			return true
		}
	}
	return false
}

// ContainsAny reports whether the normalized text of s contains any of the
// given phrases (also normalized) as substrings.
func ContainsAny(s string, phrases ...string) bool {
	n := Normalize(s)
	for _, p := range phrases {
		if p = Normalize(p); p != "" && strings.Contains(n, p) {
			return true
		}
	}
	return false
}
