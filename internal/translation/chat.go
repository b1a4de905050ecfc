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

// chatProvider translates by calling an OpenAI-compatible chat
// completions endpoint with a natural-language translation instruction.
// Silicon, Zhipu, GPT, and Ali all share this wire shape and differ
// only in endpoint, default model, and display name.
type chatProvider struct {
	name         string
	displayName  string
	endpointURL  string
	defaultModel string
	client       *http.Client
}

func NewSiliconProvider(client *http.Client) Provider {
	return newChatProvider(client, ProviderSilicon, "硅基流动",
		"https://api.siliconflow.cn/v1/chat/completions", "Qwen/Qwen2.5-7B-Instruct")
}

func NewGPTProvider(client *http.Client) Provider {
	return newChatProvider(client, ProviderGPT, "GPT",
		"https://api.openai.com/v1/chat/completions", "gpt-3.5-turbo")
}

func NewZhipuProvider(client *http.Client) Provider {
	return newChatProvider(client, ProviderZhipu, "智谱",
		"https://open.bigmodel.cn/api/paas/v4/chat/completions", "glm-4-flash")
}

func NewAliProvider(client *http.Client) Provider {
	return newChatProvider(client, ProviderAli, "阿里云",
		"https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions", "qwen-mt-turbo")
}

func newChatProvider(client *http.Client, name, displayName, endpoint, model string) *chatProvider {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &chatProvider{
		name:         name,
		displayName:  displayName,
		endpointURL:  endpoint,
		defaultModel: model,
		client:       client,
	}
}

func (p *chatProvider) Name() string {
	return p.name
}

func (p *chatProvider) DisplayName() string {
	return p.displayName
}

func (p *chatProvider) SupportedLanguages() []string {
	return SupportedTranslationLanguageCodes()
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *chatProvider) Translate(ctx context.Context, req Request, cred Credential) (*Unit, error) {
	if strings.TrimSpace(cred.APIKey) == "" {
		return nil, missingCredentialErr(p.name)
	}

	targetLang := normalizeLangCode(req.TargetLang)
	if targetLang == "" {
		return nil, transportErr(p.name, fmt.Errorf("target language is required"))
	}

	model := strings.TrimSpace(cred.Model)
	if model == "" {
		model = p.defaultModel
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: buildTranslationPrompt(req.Text, req.SourceLang, targetLang)},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, transportErr(p.name, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, transportErr(p.name, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+cred.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, transportErr(p.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(p.name, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpStatusErr(p.name, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, transportErr(p.name, fmt.Errorf("decode response: %w", err))
	}
	if parsed.Error != nil {
		return nil, businessErr(p.name, parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, emptyResultErr(p.name)
	}

	translated := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if translated == "" {
		return nil, emptyResultErr(p.name)
	}

	return &Unit{Source: p.name, SourceName: p.displayName, Text: translated}, nil
}

// buildTranslationPrompt asks the model for the bare translation. The
// zh-involved template is phrased in Chinese, which the upstream models
// follow more reliably for zh<=>xx pairs.
func buildTranslationPrompt(text, sourceLang, targetLang string) string {
	target := promptLabel(targetLang)
	if isChineseLanguage(sourceLang) || isChineseLanguage(targetLang) {
		return fmt.Sprintf("请将以下文本翻译为%s，只返回翻译结果，不要任何解释：\n\n%s", target.chinese, text)
	}
	return fmt.Sprintf("Translate the following text into %s. Return only the translation, without explanation.\n\n%s", target.english, text)
}
