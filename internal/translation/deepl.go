package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DeepLProvider calls the DeepL v2 REST API with key-based auth.
type DeepLProvider struct {
	endpointURL string
	client      *http.Client
}

func NewDeepLProvider(client *http.Client) *DeepLProvider {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &DeepLProvider{
		endpointURL: "https://api-free.deepl.com/v2/translate",
		client:      client,
	}
}

func (p *DeepLProvider) Name() string {
	return ProviderDeepL
}

func (p *DeepLProvider) DisplayName() string {
	return "DeepL"
}

func (p *DeepLProvider) SupportedLanguages() []string {
	codes := make([]string, 0, len(deeplLanguageCodes))
	for code := range deeplLanguageCodes {
		codes = append(codes, code)
	}
	return codes
}

type deeplRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang"`
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
	Message string `json:"message"`
}

func (p *DeepLProvider) Translate(ctx context.Context, req Request, cred Credential) (*Unit, error) {
	if strings.TrimSpace(cred.APIKey) == "" {
		return nil, missingCredentialErr(p.Name())
	}

	targetLang := normalizeLangCode(req.TargetLang)
	if targetLang == "" {
		return nil, transportErr(p.Name(), fmt.Errorf("target language is required"))
	}

	payload := deeplRequest{
		Text:       []string{req.Text},
		TargetLang: deeplCode(targetLang),
	}
	if sourceLang := normalizeLangCode(req.SourceLang); sourceLang != "" && sourceLang != SourceAuto {
		payload.SourceLang = deeplCode(sourceLang)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+cred.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, transportErr(p.Name(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed deeplResponse
		if json.Unmarshal(respBody, &parsed) == nil && strings.TrimSpace(parsed.Message) != "" {
			return nil, businessErr(p.Name(), fmt.Sprintf("%d", resp.StatusCode), parsed.Message)
		}
		return nil, httpStatusErr(p.Name(), resp.StatusCode)
	}

	var parsed deeplResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Translations) == 0 {
		return nil, emptyResultErr(p.Name())
	}

	translated := strings.TrimSpace(parsed.Translations[0].Text)
	if translated == "" {
		return nil, emptyResultErr(p.Name())
	}

	return &Unit{Source: p.Name(), SourceName: p.DisplayName(), Text: translated}, nil
}
