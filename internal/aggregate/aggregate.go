// Package aggregate fans a translation request out to every enabled
// provider and merges the answers into one result.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lexibridge/internal/dictionary"
	"lexibridge/internal/globaltime"
	"lexibridge/internal/langdetect"
	"lexibridge/internal/language"
	"lexibridge/internal/ratelimit"
	"lexibridge/internal/translation"
)

// MaxInputLength bounds the translated text, in runes.
const MaxInputLength = 2000

var (
	ErrEmptyInput         = errors.New("input text is empty")
	ErrInputTooLong       = fmt.Errorf("input text exceeds %d characters", MaxInputLength)
	ErrRateLimited        = errors.New("translation requests are rate limited")
	ErrSameLanguage       = errors.New("source and target language are the same")
	ErrNoProvidersEnabled = errors.New("no translation providers are enabled")
	ErrNoUsableResult     = errors.New("no provider returned a usable translation")
)

// DefaultPriority orders providers for merging, most trusted first.
var DefaultPriority = []string{
	translation.ProviderDeepL,
	translation.ProviderTencent,
	translation.ProviderMicrosoft,
	translation.ProviderAli,
	translation.ProviderZhipu,
	translation.ProviderSilicon,
	translation.ProviderGPT,
}

// Options tunes a new Aggregator.
type Options struct {
	// Priority overrides DefaultPriority when non-empty.
	Priority []string
	// DictionaryExclusive skips providers when the dictionary already
	// answers a word lookup.
	DictionaryExclusive bool
	// Timeout bounds each provider call. Zero means the registry
	// default.
	Timeout time.Duration
}

// Aggregator coordinates dictionary lookup and provider fan-out.
type Aggregator struct {
	registry *translation.Registry
	dict     *dictionary.Dictionary
	limiter  *ratelimit.MinInterval
	logger   zerolog.Logger

	priority            []string
	dictionaryExclusive bool
	timeout             time.Duration
}

func New(registry *translation.Registry, dict *dictionary.Dictionary, limiter *ratelimit.MinInterval, logger zerolog.Logger, opts Options) (*Aggregator, error) {
	if registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}

	priority := opts.Priority
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = translation.DefaultHTTPTimeout
	}

	return &Aggregator{
		registry:            registry,
		dict:                dict,
		limiter:             limiter,
		logger:              logger,
		priority:            priority,
		dictionaryExclusive: opts.DictionaryExclusive,
		timeout:             timeout,
	}, nil
}

// Input is one translation request.
type Input struct {
	Text       string
	SourceLang string
	TargetLang string
	// Credentials maps provider name to its credential. Providers
	// without an entry are skipped.
	Credentials map[string]translation.Credential
	// EnabledProviders restricts the fan-out when non-empty.
	EnabledProviders []string
}

// Result is the merged outcome of a translation request.
type Result struct {
	Original      string              `json:"original"`
	SourceLang    string              `json:"sourceLang"`
	TargetLang    string              `json:"targetLang"`
	Primary       string              `json:"primary"`
	PrimarySource string              `json:"primarySource"`
	Translations  []translation.Unit  `json:"translations"`
	Dictionary    *dictionary.Entry   `json:"dictionary,omitempty"`
	Failures      map[string]string   `json:"failures,omitempty"`
}

// Translate validates input, consults the dictionary, fans out to every
// enabled provider, and merges the results by priority.
func (a *Aggregator) Translate(ctx context.Context, input Input) (*Result, error) {
	if a == nil {
		return nil, fmt.Errorf("aggregator is not initialized")
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if len([]rune(text)) > MaxInputLength {
		return nil, ErrInputTooLong
	}

	if a.limiter != nil && !a.limiter.TryAcquire(globaltime.Now()) {
		return nil, ErrRateLimited
	}

	sourceLang := strings.TrimSpace(input.SourceLang)
	if sourceLang == "" || sourceLang == translation.SourceAuto {
		sourceLang = langdetect.DetectISO6391(text)
	}
	targetLang := strings.TrimSpace(input.TargetLang)
	if targetLang == "" {
		return nil, fmt.Errorf("target language is required")
	}
	if strings.EqualFold(sourceLang, targetLang) {
		return nil, ErrSameLanguage
	}

	result := &Result{
		Original:   text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	}

	if a.dict != nil && language.NormalizeCode(sourceLang) == "en" {
		result.Dictionary = a.dict.Lookup(text)
	}
	if a.dictionaryExclusive && result.Dictionary != nil {
		if primary, ok := dictionaryPrimary(result.Dictionary); ok {
			result.Primary = primary
			result.PrimarySource = translation.ProviderDictionary
			return result, nil
		}
	}

	providers := a.enabledProviders(input)
	if len(providers) == 0 {
		if primary, ok := dictionaryPrimary(result.Dictionary); ok {
			result.Primary = primary
			result.PrimarySource = translation.ProviderDictionary
			return result, nil
		}
		return nil, ErrNoProvidersEnabled
	}

	units, failures := a.fanOut(ctx, providers, translation.Request{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	}, input.Credentials)
	result.Failures = failures
	result.Translations = dedupeInOrder(units)

	if len(result.Translations) > 0 {
		primary := primaryUnit(units, a.priority)
		result.Primary = primary.Text
		result.PrimarySource = primary.Source
		return result, nil
	}
	if primary, ok := dictionaryPrimary(result.Dictionary); ok {
		result.Primary = primary
		result.PrimarySource = translation.ProviderDictionary
		return result, nil
	}
	return nil, ErrNoUsableResult
}

func (a *Aggregator) enabledProviders(input Input) []translation.Provider {
	restrict := map[string]bool{}
	for _, name := range input.EnabledProviders {
		restrict[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var providers []translation.Provider
	for _, provider := range a.registry.All() {
		name := provider.Name()
		if len(restrict) > 0 && !restrict[name] {
			continue
		}
		if _, ok := input.Credentials[name]; !ok {
			continue
		}
		providers = append(providers, provider)
	}
	return providers
}

type fanOutResult struct {
	unit *translation.Unit
	err  error
}

// fanOut calls every provider concurrently and waits for all of them.
// A provider failure never cancels its siblings. Returned units keep
// invocation order, not completion order.
func (a *Aggregator) fanOut(ctx context.Context, providers []translation.Provider, req translation.Request, creds map[string]translation.Credential) ([]translation.Unit, map[string]string) {
	results := make([]fanOutResult, len(providers))
	var wg sync.WaitGroup

	for i, provider := range providers {
		wg.Add(1)
		go func(i int, p translation.Provider) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			unit, err := p.Translate(callCtx, req, creds[p.Name()])
			results[i] = fanOutResult{unit: unit, err: err}
		}(i, provider)
	}
	wg.Wait()

	var units []translation.Unit
	failures := map[string]string{}
	for i, res := range results {
		name := providers[i].Name()
		if res.err != nil {
			a.logger.Warn().Str("provider", name).Err(res.err).Msg("provider translation failed")
			failures[name] = res.err.Error()
			continue
		}
		if res.unit == nil || strings.TrimSpace(res.unit.Text) == "" {
			failures[name] = "empty translation"
			continue
		}
		units = append(units, *res.unit)
	}
	if len(failures) == 0 {
		failures = nil
	}
	return units, failures
}

// dedupeInOrder drops units whose text duplicates an earlier one,
// compared case-insensitively after trimming. Invocation order is
// preserved; the first occurrence keeps its casing.
func dedupeInOrder(units []translation.Unit) []translation.Unit {
	seen := make(map[string]bool, len(units))
	merged := make([]translation.Unit, 0, len(units))
	for _, unit := range units {
		key := strings.ToLower(strings.TrimSpace(unit.Text))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, unit)
	}
	return merged
}

// primaryUnit picks the unit from the highest-priority provider that
// produced output. Providers outside the priority list only win when
// no listed provider answered, in which case the first-invoked unit is
// used. units must be non-empty.
func primaryUnit(units []translation.Unit, priority []string) translation.Unit {
	for _, name := range priority {
		for _, unit := range units {
			if unit.Source == name {
				return unit
			}
		}
	}
	return units[0]
}

func dictionaryPrimary(entry *dictionary.Entry) (string, bool) {
	if entry == nil {
		return "", false
	}
	if len(entry.Translations) > 0 {
		return entry.Translations[0], true
	}
	if len(entry.Meanings) > 0 && len(entry.Meanings[0].Definitions) > 0 {
		return entry.Meanings[0].Definitions[0].Definition, true
	}
	return "", false
}
