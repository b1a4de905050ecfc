package translation

import (
	"sort"
	"strings"

	"lexibridge/internal/language"
)

// SourceAuto asks the provider to detect the source language itself.
const SourceAuto = "auto"

type LanguageOption struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Native string `json:"native,omitempty"`
}

type languageLabel struct {
	english string
	chinese string
}

var translationLanguageLabels = map[string]languageLabel{
	"de": {english: "German", chinese: "德语"},
	"en": {english: "English", chinese: "英语"},
	"es": {english: "Spanish", chinese: "西班牙语"},
	"fr": {english: "French", chinese: "法语"},
	"ja": {english: "Japanese", chinese: "日语"},
	"ko": {english: "Korean", chinese: "韩语"},
	"ru": {english: "Russian", chinese: "俄语"},
	"zh": {english: "Chinese", chinese: "中文"},
}

// deeplLanguageCodes maps internal codes to DeepL target_lang values.
var deeplLanguageCodes = map[string]string{
	"zh": "ZH",
	"en": "EN",
	"ja": "JA",
	"ko": "KO",
	"fr": "FR",
	"de": "DE",
	"es": "ES",
	"ru": "RU",
}

// microsoftLanguageCodes maps internal codes to Translator API codes.
var microsoftLanguageCodes = map[string]string{
	"zh": "zh-Hans",
	"en": "en",
	"ja": "ja",
	"ko": "ko",
	"fr": "fr",
	"de": "de",
	"es": "es",
	"ru": "ru",
}

func SupportedTranslationLanguageCodes() []string {
	codes := make([]string, 0, len(translationLanguageLabels))
	for code := range translationLanguageLabels {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// TranslationLanguageOptions lists every language any registered
// provider can target, with display labels where known.
func TranslationLanguageOptions(registry *Registry) []LanguageOption {
	supported := map[string]struct{}{}
	for code := range translationLanguageLabels {
		supported[code] = struct{}{}
	}
	if registry != nil {
		for _, provider := range registry.All() {
			for _, code := range provider.SupportedLanguages() {
				normalized := normalizeLangCode(code)
				if normalized == "" {
					continue
				}
				supported[normalized] = struct{}{}
			}
		}
	}

	codes := make([]string, 0, len(supported))
	for code := range supported {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	options := make([]LanguageOption, 0, len(codes))
	for _, code := range codes {
		labels, ok := translationLanguageLabels[code]
		if ok {
			options = append(options, LanguageOption{Code: code, Label: labels.english, Native: labels.chinese})
			continue
		}
		options = append(options, LanguageOption{Code: code, Label: strings.ToUpper(code)})
	}
	return options
}

func deeplCode(code string) string {
	normalized := normalizeLangCode(code)
	if mapped, ok := deeplLanguageCodes[normalized]; ok {
		return mapped
	}
	return strings.ToUpper(normalized)
}

func microsoftCode(code string) string {
	normalized := normalizeLangCode(code)
	if mapped, ok := microsoftLanguageCodes[normalized]; ok {
		return mapped
	}
	return normalized
}

// promptLabel renders a language for use inside a chat-model prompt.
func promptLabel(code string) languageLabel {
	normalized := normalizeLangCode(code)
	if labels, ok := translationLanguageLabels[normalized]; ok {
		return labels
	}
	fallback := strings.TrimSpace(code)
	if fallback == "" {
		fallback = "English"
	}
	return languageLabel{english: fallback, chinese: fallback}
}

func isChineseLanguage(code string) bool {
	return normalizeLangCode(code) == "zh"
}

func normalizeLangCode(raw string) string {
	return language.NormalizeCodeOrAuto(raw)
}
