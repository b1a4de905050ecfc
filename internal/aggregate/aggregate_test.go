package aggregate

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lexibridge/internal/dictionary"
	"lexibridge/internal/globaltime"
	"lexibridge/internal/ratelimit"
	"lexibridge/internal/translation"
)

type stubProvider struct {
	name  string
	text  string
	err   error
	calls atomic.Int64
}

func (s *stubProvider) Translate(ctx context.Context, req translation.Request, cred translation.Credential) (*translation.Unit, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &translation.Unit{Source: s.name, SourceName: s.name, Text: s.text}, nil
}

func (s *stubProvider) Name() string                 { return s.name }
func (s *stubProvider) DisplayName() string          { return s.name }
func (s *stubProvider) SupportedLanguages() []string { return []string{"en", "zh"} }

func newTestAggregator(t *testing.T, opts Options, providers ...*stubProvider) (*Aggregator, map[string]translation.Credential) {
	t.Helper()
	registry := translation.NewRegistry()
	creds := map[string]translation.Credential{}
	for _, p := range providers {
		registry.Register(p)
		creds[p.name] = translation.Credential{APIKey: "test-key"}
	}
	agg, err := New(registry, nil, nil, zerolog.Nop(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return agg, creds
}

func TestTranslate_MergeDeduplicatesCaseInsensitive(t *testing.T) {
	providers := []*stubProvider{
		{name: translation.ProviderDeepL, text: "Hello"},
		{name: translation.ProviderTencent, text: "hello"},
		{name: translation.ProviderZhipu, text: "HELLO"},
		{name: translation.ProviderGPT, text: "World"},
	}
	agg, creds := newTestAggregator(t, Options{}, providers...)

	result, err := agg.Translate(context.Background(), Input{
		Text:        "你好",
		SourceLang:  "zh",
		TargetLang:  "en",
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(result.Translations) != 2 {
		t.Fatalf("len(translations) = %d, want 2", len(result.Translations))
	}
	if result.Translations[0].Text != "Hello" {
		t.Fatalf("first translation = %q, want the first-invoked casing", result.Translations[0].Text)
	}
	if result.Translations[1].Text != "World" {
		t.Fatalf("second translation = %q, want %q", result.Translations[1].Text, "World")
	}
}

func TestTranslate_MergeKeepsInvocationOrder(t *testing.T) {
	providers := []*stubProvider{
		{name: translation.ProviderGPT, text: "Hello"},
		{name: translation.ProviderDeepL, text: "hello"},
	}
	agg, creds := newTestAggregator(t, Options{}, providers...)

	result, err := agg.Translate(context.Background(), Input{
		Text:        "你好",
		SourceLang:  "zh",
		TargetLang:  "en",
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(result.Translations) != 1 {
		t.Fatalf("len(translations) = %d, want 1", len(result.Translations))
	}
	if result.Translations[0].Source != translation.ProviderGPT || result.Translations[0].Text != "Hello" {
		t.Fatalf("merged unit = %+v, want the first-invoked gpt result", result.Translations[0])
	}
	if result.Primary != "hello" || result.PrimarySource != translation.ProviderDeepL {
		t.Fatalf("primary = %q from %q, want the deepl result", result.Primary, result.PrimarySource)
	}
}

func TestTranslate_PriorityOrdersPrimary(t *testing.T) {
	providers := []*stubProvider{
		{name: translation.ProviderSilicon, text: "from silicon"},
		{name: translation.ProviderDeepL, text: "from deepl"},
	}
	agg, creds := newTestAggregator(t, Options{}, providers...)

	result, err := agg.Translate(context.Background(), Input{
		Text:        "hello world again",
		SourceLang:  "en",
		TargetLang:  "zh",
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Primary != "from deepl" {
		t.Fatalf("primary = %q, want deepl result", result.Primary)
	}
	if result.PrimarySource != translation.ProviderDeepL {
		t.Fatalf("primary source = %q", result.PrimarySource)
	}
}

func TestTranslate_PartialFailureStillSucceeds(t *testing.T) {
	providers := []*stubProvider{
		{name: translation.ProviderDeepL, err: errors.New("quota exceeded")},
		{name: translation.ProviderTencent, text: "你好"},
		{name: translation.ProviderGPT, err: errors.New("timeout")},
	}
	agg, creds := newTestAggregator(t, Options{}, providers...)

	result, err := agg.Translate(context.Background(), Input{
		Text:        "hello",
		SourceLang:  "en",
		TargetLang:  "zh",
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Primary != "你好" {
		t.Fatalf("primary = %q", result.Primary)
	}
	if len(result.Failures) != 2 {
		t.Fatalf("failures = %v, want 2 entries", result.Failures)
	}
}

func TestTranslate_AllFail(t *testing.T) {
	providers := []*stubProvider{
		{name: translation.ProviderDeepL, err: errors.New("down")},
		{name: translation.ProviderTencent, err: errors.New("down")},
	}
	agg, creds := newTestAggregator(t, Options{}, providers...)

	_, err := agg.Translate(context.Background(), Input{
		Text:        "hello",
		SourceLang:  "en",
		TargetLang:  "zh",
		Credentials: creds,
	})
	if !errors.Is(err, ErrNoUsableResult) {
		t.Fatalf("err = %v, want ErrNoUsableResult", err)
	}
}

func TestTranslate_RateLimited(t *testing.T) {
	provider := &stubProvider{name: translation.ProviderDeepL, text: "ok"}
	registry := translation.NewRegistry()
	registry.Register(provider)
	creds := map[string]translation.Credential{provider.name: {APIKey: "k"}}

	limiter := ratelimit.NewMinInterval(500 * time.Millisecond)
	agg, err := New(registry, nil, limiter, zerolog.Nop(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	defer globaltime.ResetTime()
	globaltime.SetMockTime(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	if _, err := agg.Translate(context.Background(), Input{Text: "hello", SourceLang: "en", TargetLang: "zh", Credentials: creds}); err != nil {
		t.Fatalf("first Translate: %v", err)
	}
	if got := provider.calls.Load(); got != 1 {
		t.Fatalf("provider calls = %d, want 1", got)
	}

	globaltime.SetMockTime(time.Date(2026, 8, 1, 0, 0, 0, int(200*time.Millisecond), time.UTC))
	_, err = agg.Translate(context.Background(), Input{Text: "hello again", SourceLang: "en", TargetLang: "zh", Credentials: creds})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if got := provider.calls.Load(); got != 1 {
		t.Fatalf("provider calls after rejection = %d, want 1", got)
	}
}

func TestTranslate_InputValidation(t *testing.T) {
	provider := &stubProvider{name: translation.ProviderDeepL, text: "ok"}
	agg, creds := newTestAggregator(t, Options{}, provider)

	if _, err := agg.Translate(context.Background(), Input{Text: "   ", SourceLang: "en", TargetLang: "zh", Credentials: creds}); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("empty input err = %v", err)
	}

	long := strings.Repeat("字", MaxInputLength+1)
	if _, err := agg.Translate(context.Background(), Input{Text: long, SourceLang: "zh", TargetLang: "en", Credentials: creds}); !errors.Is(err, ErrInputTooLong) {
		t.Fatalf("long input err = %v", err)
	}

	if _, err := agg.Translate(context.Background(), Input{Text: "hello", SourceLang: "en", TargetLang: "en", Credentials: creds}); !errors.Is(err, ErrSameLanguage) {
		t.Fatalf("same language err = %v", err)
	}

	if _, err := agg.Translate(context.Background(), Input{Text: "hello", SourceLang: "en", TargetLang: "zh"}); !errors.Is(err, ErrNoProvidersEnabled) {
		t.Fatalf("no providers err = %v", err)
	}
}

func TestTranslate_AutoDetectsSourceLanguage(t *testing.T) {
	provider := &stubProvider{name: translation.ProviderTencent, text: "hello"}
	agg, creds := newTestAggregator(t, Options{}, provider)

	result, err := agg.Translate(context.Background(), Input{
		Text:        "你好",
		SourceLang:  translation.SourceAuto,
		TargetLang:  "en",
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.SourceLang != "zh" {
		t.Fatalf("detected source = %q, want zh", result.SourceLang)
	}
}

func TestTranslate_EnabledProvidersRestrictFanOut(t *testing.T) {
	deepl := &stubProvider{name: translation.ProviderDeepL, text: "from deepl"}
	tencent := &stubProvider{name: translation.ProviderTencent, text: "from tencent"}
	agg, creds := newTestAggregator(t, Options{}, deepl, tencent)

	result, err := agg.Translate(context.Background(), Input{
		Text:             "hello",
		SourceLang:       "en",
		TargetLang:       "zh",
		Credentials:      creds,
		EnabledProviders: []string{translation.ProviderTencent},
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Primary != "from tencent" {
		t.Fatalf("primary = %q", result.Primary)
	}
	if deepl.calls.Load() != 0 {
		t.Fatal("disabled provider was invoked")
	}
}

func dictWith(t *testing.T, word string) *dictionary.Dictionary {
	t.Helper()
	dict, err := dictionary.Parse([]byte(`{"` + word + `": {"usphone": "helo", "trans": {"int": ["你好", "喂"]}}}`))
	if err != nil {
		t.Fatalf("Parse dictionary: %v", err)
	}
	return dict
}

func TestTranslate_DictionaryExclusiveSkipsProviders(t *testing.T) {
	provider := &stubProvider{name: translation.ProviderDeepL, text: "remote"}
	registry := translation.NewRegistry()
	registry.Register(provider)
	creds := map[string]translation.Credential{provider.name: {APIKey: "k"}}

	agg, err := New(registry, dictWith(t, "hello"), nil, zerolog.Nop(), Options{DictionaryExclusive: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agg.Translate(context.Background(), Input{Text: "hello", SourceLang: "en", TargetLang: "zh", Credentials: creds})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.PrimarySource != translation.ProviderDictionary {
		t.Fatalf("primary source = %q, want dictionary", result.PrimarySource)
	}
	if result.Primary != "你好" {
		t.Fatalf("primary = %q", result.Primary)
	}
	if provider.calls.Load() != 0 {
		t.Fatal("provider invoked despite dictionary-exclusive hit")
	}
}

func TestTranslate_DictionaryLookupNormalizesSourceLang(t *testing.T) {
	for _, sourceLang := range []string{"EN", "en-US"} {
		provider := &stubProvider{name: translation.ProviderDeepL, text: "remote"}
		registry := translation.NewRegistry()
		registry.Register(provider)
		creds := map[string]translation.Credential{provider.name: {APIKey: "k"}}

		agg, err := New(registry, dictWith(t, "hello"), nil, zerolog.Nop(), Options{})
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		result, err := agg.Translate(context.Background(), Input{Text: "hello", SourceLang: sourceLang, TargetLang: "zh", Credentials: creds})
		if err != nil {
			t.Fatalf("Translate(%q): %v", sourceLang, err)
		}
		if result.Dictionary == nil {
			t.Fatalf("source %q: dictionary entry missing from result", sourceLang)
		}
	}
}

func TestTranslate_DictionaryFallbackWhenProvidersFail(t *testing.T) {
	provider := &stubProvider{name: translation.ProviderDeepL, err: errors.New("down")}
	registry := translation.NewRegistry()
	registry.Register(provider)
	creds := map[string]translation.Credential{provider.name: {APIKey: "k"}}

	agg, err := New(registry, dictWith(t, "hello"), nil, zerolog.Nop(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agg.Translate(context.Background(), Input{Text: "hello", SourceLang: "en", TargetLang: "zh", Credentials: creds})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.PrimarySource != translation.ProviderDictionary {
		t.Fatalf("primary source = %q, want dictionary fallback", result.PrimarySource)
	}
	if result.Dictionary == nil {
		t.Fatal("dictionary entry missing from result")
	}
}

func TestTranslate_CustomPriority(t *testing.T) {
	providers := []*stubProvider{
		{name: translation.ProviderDeepL, text: "from deepl"},
		{name: translation.ProviderGPT, text: "from gpt"},
	}
	agg, creds := newTestAggregator(t, Options{Priority: []string{translation.ProviderGPT, translation.ProviderDeepL}}, providers...)

	result, err := agg.Translate(context.Background(), Input{Text: "hello", SourceLang: "en", TargetLang: "zh", Credentials: creds})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Primary != "from gpt" {
		t.Fatalf("primary = %q, want gpt first under custom priority", result.Primary)
	}
}
