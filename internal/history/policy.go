// Package history persists translation lookups and decides which of
// them are worth keeping.
package history

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	numericPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
	alphaPattern   = regexp.MustCompile(`[a-zA-Z]`)
)

// ShouldPersist reports whether an original/translation pair carries
// enough signal to store. Noise is rejected: blank input, echoes of the
// original, single characters, bare punctuation, trivially short
// English words, and plain numbers.
func ShouldPersist(original, translation, detectedLang string) bool {
	original = strings.TrimSpace(original)
	translation = strings.TrimSpace(translation)

	if original == "" || translation == "" {
		return false
	}
	if strings.EqualFold(original, translation) {
		return false
	}
	if len([]rune(original)) == 1 {
		return false
	}
	if isPunctuationOnly(original) {
		return false
	}
	if detectedLang == "en" && isSingleShortEnglishWord(original) {
		return false
	}
	if numericPattern.MatchString(original) {
		return false
	}
	return true
}

func isPunctuationOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func isSingleShortEnglishWord(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	return len(alphaPattern.FindAllString(s, -1)) < 2
}
