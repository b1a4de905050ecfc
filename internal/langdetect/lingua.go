// Package langdetect resolves the language of selected text. Short
// selections are classified by Unicode script ranges; longer ones go
// through the lingua statistical detector.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// minLinguaLetters is the point below which statistical detection is
// too unreliable to trust.
const minLinguaLetters = 6

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns a two-letter language code for text, or "en"
// when nothing better can be determined. Single-word selections resolve
// through script ranges, so CJK text is classified even when lingua
// would refuse it.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return "en"
	}

	if code := detectByScript(sample); code != "" {
		return code
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minLinguaLetters {
		return "en"
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return "en"
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return "en"
	}
	return code
}

// detectByScript classifies text containing CJK codepoints, which
// identify the language regardless of sample length. Kana wins over Han
// because Japanese text mixes both.
func detectByScript(sample string) string {
	hasHan := false
	for _, r := range sample {
		switch {
		case r >= 0x3040 && r <= 0x30FF:
			return "ja"
		case r >= 0xAC00 && r <= 0xD7AF:
			return "ko"
		case r >= 0x4E00 && r <= 0x9FA5:
			hasHan = true
		}
	}
	if hasHan {
		return "zh"
	}
	return ""
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
