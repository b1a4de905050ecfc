package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultMicrosoftRegion = "eastasia"

// MicrosoftProvider calls the Azure Translator Text API v3.
type MicrosoftProvider struct {
	endpointURL string
	client      *http.Client
}

func NewMicrosoftProvider(client *http.Client) *MicrosoftProvider {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &MicrosoftProvider{
		endpointURL: "https://api.cognitive.microsofttranslator.com/translate",
		client:      client,
	}
}

func (p *MicrosoftProvider) Name() string {
	return ProviderMicrosoft
}

func (p *MicrosoftProvider) DisplayName() string {
	return "微软"
}

func (p *MicrosoftProvider) SupportedLanguages() []string {
	codes := make([]string, 0, len(microsoftLanguageCodes))
	for code := range microsoftLanguageCodes {
		codes = append(codes, code)
	}
	return codes
}

type microsoftItem struct {
	Text string `json:"Text"`
}

type microsoftResponse []struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

type microsoftError struct {
	Error struct {
		Code    json.Number `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func (p *MicrosoftProvider) Translate(ctx context.Context, req Request, cred Credential) (*Unit, error) {
	if strings.TrimSpace(cred.APIKey) == "" {
		return nil, missingCredentialErr(p.Name())
	}

	targetLang := normalizeLangCode(req.TargetLang)
	if targetLang == "" {
		return nil, transportErr(p.Name(), fmt.Errorf("target language is required"))
	}

	query := url.Values{}
	query.Set("api-version", "3.0")
	query.Set("to", microsoftCode(targetLang))
	if sourceLang := normalizeLangCode(req.SourceLang); sourceLang != "" && sourceLang != SourceAuto {
		query.Set("from", microsoftCode(sourceLang))
	}

	body, err := json.Marshal([]microsoftItem{{Text: req.Text}})
	if err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpointURL+"?"+query.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("build request: %w", err))
	}
	region := strings.TrimSpace(cred.Region)
	if region == "" {
		region = defaultMicrosoftRegion
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", cred.APIKey)
	httpReq.Header.Set("Ocp-Apim-Subscription-Region", region)
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
		var parsed microsoftError
		if json.Unmarshal(respBody, &parsed) == nil && strings.TrimSpace(parsed.Error.Message) != "" {
			return nil, businessErr(p.Name(), parsed.Error.Code.String(), parsed.Error.Message)
		}
		return nil, httpStatusErr(p.Name(), resp.StatusCode)
	}

	var parsed microsoftResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("decode response: %w", err))
	}
	if len(parsed) == 0 || len(parsed[0].Translations) == 0 {
		return nil, emptyResultErr(p.Name())
	}

	translated := strings.TrimSpace(parsed[0].Translations[0].Text)
	if translated == "" {
		return nil, emptyResultErr(p.Name())
	}

	return &Unit{Source: p.Name(), SourceName: p.DisplayName(), Text: translated}, nil
}
