package common

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StripPunctuation removes punctuation and symbol runes from s.
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}

// Capitalize upper-cases the first letter of every word in s.
func Capitalize(s string) string {
	return cases.Title(language.Und).String(s)
}

// OneOf returns true if s equals any of the given words.
func OneOf(s string, words ...string) bool {
	for _, w := range words {
		if s == w {
			return true
		}
	}
	return false
}
