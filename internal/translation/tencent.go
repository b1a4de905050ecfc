package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"lexibridge/internal/globaltime"
	"lexibridge/internal/tc3"
)

const (
	tencentHost       = "tmt.tencentcloudapi.com"
	tencentAPIVersion = "2018-03-21"
	tencentAPIRegion  = "ap-guangzhou"
	tencentAPIAction  = "TextTranslate"
)

// TencentProvider calls the Tencent Cloud TMT TextTranslate API with
// TC3-HMAC-SHA256 signed requests.
type TencentProvider struct {
	endpoint string
	host     string
	client   *http.Client
}

func NewTencentProvider(client *http.Client) *TencentProvider {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &TencentProvider{
		endpoint: "https://" + tencentHost + "/",
		host:     tencentHost,
		client:   client,
	}
}

func (p *TencentProvider) Name() string {
	return ProviderTencent
}

func (p *TencentProvider) DisplayName() string {
	return "腾讯云"
}

func (p *TencentProvider) SupportedLanguages() []string {
	return SupportedTranslationLanguageCodes()
}

type tencentPayload struct {
	SourceText string `json:"SourceText"`
	Source     string `json:"Source"`
	Target     string `json:"Target"`
	ProjectID  int64  `json:"ProjectId"`
}

type tencentResponse struct {
	Response struct {
		TargetText string `json:"TargetText"`
		Source     string `json:"Source"`
		Target     string `json:"Target"`
		Error      *struct {
			Code    string `json:"Code"`
			Message string `json:"Message"`
		} `json:"Error"`
	} `json:"Response"`
}

func (p *TencentProvider) Translate(ctx context.Context, req Request, cred Credential) (*Unit, error) {
	if strings.TrimSpace(cred.SecretID) == "" || strings.TrimSpace(cred.SecretKey) == "" {
		return nil, missingCredentialErr(p.Name())
	}

	sourceLang := normalizeLangCode(req.SourceLang)
	if sourceLang == "" {
		sourceLang = SourceAuto
	}
	targetLang := normalizeLangCode(req.TargetLang)
	if targetLang == "" {
		return nil, transportErr(p.Name(), fmt.Errorf("target language is required"))
	}

	payload, err := json.Marshal(tencentPayload{
		SourceText: req.Text,
		Source:     sourceLang,
		Target:     targetLang,
		ProjectID:  cred.ProjectID,
	})
	if err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("marshal payload: %w", err))
	}

	timestamp := globaltime.Unix()
	authorization, err := tc3.Authorization(tc3.SignInput{
		SecretID:  cred.SecretID,
		SecretKey: cred.SecretKey,
		Host:      p.host,
		Payload:   payload,
		Timestamp: timestamp,
	})
	if err != nil {
		// Signature construction failures are unexpected; surface them
		// as a transport failure for this provider call only.
		return nil, transportErr(p.Name(), fmt.Errorf("build signature: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Authorization", authorization)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Host", p.host)
	httpReq.Header.Set("X-TC-Action", tencentAPIAction)
	httpReq.Header.Set("X-TC-Timestamp", strconv.FormatInt(timestamp, 10))
	httpReq.Header.Set("X-TC-Version", tencentAPIVersion)
	httpReq.Header.Set("X-TC-Region", tencentAPIRegion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, transportErr(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpStatusErr(p.Name(), resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("read response: %w", err))
	}

	var parsed tencentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, transportErr(p.Name(), fmt.Errorf("decode response: %w", err))
	}
	if parsed.Response.Error != nil {
		return nil, businessErr(p.Name(), parsed.Response.Error.Code, parsed.Response.Error.Message)
	}

	translated := strings.TrimSpace(parsed.Response.TargetText)
	if translated == "" {
		return nil, emptyResultErr(p.Name())
	}

	return &Unit{Source: p.Name(), SourceName: p.DisplayName(), Text: translated}, nil
}
