// Package normalizers canonicalizes free-text profile fields before comparison.
package normalizers

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize lowercases and trims text.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// NormalizeOptional is Normalize for nullable fields. nil stays nil.
func NormalizeOptional(text *string) *string {
	if text == nil {
		return nil
	}
	normalized := Normalize(*text)
	return &normalized
}

func isTokenSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '/'
}

// Tokenize splits text on whitespace, commas and slashes. Empty tokens are dropped.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, isTokenSeparator)
}

// Words splits text on whitespace only.
func Words(text string) []string {
	return strings.Fields(text)
}

// LongerThan keeps tokens with more than n characters.
func LongerThan(tokens []string, n int) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if utf8.RuneCountInString(token) > n {
			out = append(out, token)
		}
	}
	return out
}

// IsBlank reports whether a nullable field is missing or whitespace only.
func IsBlank(text *string) bool {
	return text == nil || strings.TrimSpace(*text) == ""
}
