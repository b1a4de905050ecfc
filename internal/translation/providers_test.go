package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTencentTranslate_Success(t *testing.T) {
	t.Parallel()

	var gotHeaders http.Header
	var gotBody tencentPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		_, _ = w.Write([]byte(`{"Response":{"TargetText":"你好","Source":"en","Target":"zh"}}`))
	}))
	defer srv.Close()

	provider := &TencentProvider{endpoint: srv.URL, host: tencentHost, client: srv.Client()}
	unit, err := provider.Translate(context.Background(), Request{
		Text:       "hello",
		SourceLang: "auto",
		TargetLang: "zh",
	}, Credential{SecretID: "id", SecretKey: "key", ProjectID: 7})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if unit.Text != "你好" || unit.Source != ProviderTencent {
		t.Fatalf("unexpected unit: %+v", unit)
	}
	if gotBody.SourceText != "hello" || gotBody.Source != "auto" || gotBody.Target != "zh" || gotBody.ProjectID != 7 {
		t.Fatalf("unexpected payload: %+v", gotBody)
	}
	if !strings.HasPrefix(gotHeaders.Get("Authorization"), "TC3-HMAC-SHA256 Credential=id/") {
		t.Fatalf("unexpected authorization header: %q", gotHeaders.Get("Authorization"))
	}
	if gotHeaders.Get("X-TC-Action") != "TextTranslate" {
		t.Fatalf("unexpected action header: %q", gotHeaders.Get("X-TC-Action"))
	}
	if gotHeaders.Get("X-TC-Version") != tencentAPIVersion {
		t.Fatalf("unexpected version header: %q", gotHeaders.Get("X-TC-Version"))
	}
}

func TestTencentTranslate_BusinessError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":{"Error":{"Code":"AuthFailure.SignatureFailure","Message":"signature mismatch"}}}`))
	}))
	defer srv.Close()

	provider := &TencentProvider{endpoint: srv.URL, host: tencentHost, client: srv.Client()}
	_, err := provider.Translate(context.Background(), Request{Text: "hello", TargetLang: "zh"},
		Credential{SecretID: "id", SecretKey: "key"})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Kind != KindBusiness || provErr.Code != "AuthFailure.SignatureFailure" {
		t.Fatalf("unexpected error: %+v", provErr)
	}
}

func TestTencentTranslate_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	provider := &TencentProvider{endpoint: srv.URL, host: tencentHost, client: srv.Client()}
	_, err := provider.Translate(context.Background(), Request{Text: "hello", TargetLang: "zh"},
		Credential{SecretID: "id", SecretKey: "key"})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Kind != KindHTTPStatus || provErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("unexpected error: %+v", provErr)
	}
}

func TestTencentTranslate_MissingCredential(t *testing.T) {
	t.Parallel()

	provider := NewTencentProvider(nil)
	_, err := provider.Translate(context.Background(), Request{Text: "hello", TargetLang: "zh"}, Credential{})

	var provErr *ProviderError
	if !errors.As(err, &provErr) || provErr.Kind != KindMissingCredential {
		t.Fatalf("expected missing credential error, got %v", err)
	}
}

func TestChatTranslate_Success(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  你好，世界  "}}]}`))
	}))
	defer srv.Close()

	provider := newChatProvider(srv.Client(), ProviderSilicon, "硅基流动", srv.URL, "Qwen/Qwen2.5-7B-Instruct")
	unit, err := provider.Translate(context.Background(), Request{
		Text:       "hello world",
		SourceLang: "en",
		TargetLang: "zh",
	}, Credential{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if unit.Text != "你好，世界" {
		t.Fatalf("expected trimmed content, got %q", unit.Text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected authorization: %q", gotAuth)
	}
	if gotReq.Model != "Qwen/Qwen2.5-7B-Instruct" {
		t.Fatalf("unexpected model: %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 1 || !strings.Contains(gotReq.Messages[0].Content, "hello world") {
		t.Fatalf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestChatTranslate_EmptyContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
	}))
	defer srv.Close()

	provider := newChatProvider(srv.Client(), ProviderGPT, "GPT", srv.URL, "gpt-3.5-turbo")
	_, err := provider.Translate(context.Background(), Request{Text: "hello", TargetLang: "zh"},
		Credential{APIKey: "sk-test"})

	var provErr *ProviderError
	if !errors.As(err, &provErr) || provErr.Kind != KindEmptyResult {
		t.Fatalf("expected empty result error, got %v", err)
	}
}

func TestChatTranslate_ModelOverride(t *testing.T) {
	t.Parallel()

	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	provider := newChatProvider(srv.Client(), ProviderZhipu, "智谱", srv.URL, "glm-4-flash")
	if _, err := provider.Translate(context.Background(), Request{Text: "hi", TargetLang: "zh"},
		Credential{APIKey: "sk", Model: "glm-4-plus"}); err != nil {
		t.Fatalf("translate: %v", err)
	}
	if gotReq.Model != "glm-4-plus" {
		t.Fatalf("expected credential model override, got %q", gotReq.Model)
	}
}

func TestDeepLTranslate_LanguageMapping(t *testing.T) {
	t.Parallel()

	var gotReq deeplRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "DeepL-Auth-Key dk-test" {
			t.Errorf("unexpected authorization: %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"EN","text":"你好"}]}`))
	}))
	defer srv.Close()

	provider := &DeepLProvider{endpointURL: srv.URL, client: srv.Client()}
	unit, err := provider.Translate(context.Background(), Request{
		Text:       "hello",
		SourceLang: "auto",
		TargetLang: "zh",
	}, Credential{APIKey: "dk-test"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if gotReq.TargetLang != "ZH" {
		t.Fatalf("expected DeepL target code ZH, got %q", gotReq.TargetLang)
	}
	if gotReq.SourceLang != "" {
		t.Fatalf("auto source must be omitted, got %q", gotReq.SourceLang)
	}
	if unit.Text != "你好" {
		t.Fatalf("unexpected translation: %q", unit.Text)
	}
}

func TestMicrosoftTranslate_LanguageMapping(t *testing.T) {
	t.Parallel()

	var gotQuery string
	var gotRegion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotRegion = r.Header.Get("Ocp-Apim-Subscription-Region")
		_, _ = w.Write([]byte(`[{"translations":[{"text":"你好","to":"zh-Hans"}]}]`))
	}))
	defer srv.Close()

	provider := &MicrosoftProvider{endpointURL: srv.URL, client: srv.Client()}
	unit, err := provider.Translate(context.Background(), Request{Text: "hello", TargetLang: "zh"},
		Credential{APIKey: "ms-test"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if !strings.Contains(gotQuery, "to=zh-Hans") {
		t.Fatalf("expected zh-Hans target code, got query %q", gotQuery)
	}
	if gotRegion != defaultMicrosoftRegion {
		t.Fatalf("unexpected region: %q", gotRegion)
	}
	if unit.Text != "你好" {
		t.Fatalf("unexpected translation: %q", unit.Text)
	}
}

func TestRegistry_OrderAndResolution(t *testing.T) {
	t.Parallel()

	registry := NewDefaultRegistry(nil)

	wantOrder := []string{
		ProviderTencent, ProviderDeepL, ProviderMicrosoft, ProviderAli,
		ProviderZhipu, ProviderSilicon, ProviderGPT,
	}
	gotOrder := registry.Names()
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("unexpected provider count: got %d want %d", len(gotOrder), len(wantOrder))
	}
	for i, name := range wantOrder {
		if gotOrder[i] != name {
			t.Fatalf("unexpected order at %d: got %q want %q", i, gotOrder[i], name)
		}
	}

	provider, err := registry.Provider(" DeepL ")
	if err != nil {
		t.Fatalf("resolve provider: %v", err)
	}
	if provider.Name() != ProviderDeepL {
		t.Fatalf("unexpected provider: %q", provider.Name())
	}

	if _, err := registry.Provider("nonexistent"); err == nil {
		t.Fatal("expected an error for unknown provider")
	}
}

func TestRegistry_DictionaryDisplayName(t *testing.T) {
	t.Parallel()

	registry := NewDefaultRegistry(nil)
	if got := registry.DisplayName(ProviderDictionary); got != "词典" {
		t.Fatalf("unexpected dictionary display name: %q", got)
	}
	if got := registry.DisplayName(ProviderTencent); got != "腾讯云" {
		t.Fatalf("unexpected tencent display name: %q", got)
	}
}
