package translation

import "context"

// Provider translates free-form text between languages. Implementations
// perform exactly one outbound call per invocation and never retry;
// failure policy belongs to the aggregation layer.
type Provider interface {
	Translate(ctx context.Context, req Request, cred Credential) (*Unit, error)
	Name() string
	DisplayName() string
	SupportedLanguages() []string
}

// Request describes one translation request.
type Request struct {
	Text       string
	SourceLang string // ISO 639-1 or "auto"
	TargetLang string
}

// Credential is a per-provider configuration record, passed by value on
// every call. Providers never retain it. Field usage depends on the
// provider: Tencent reads SecretID/SecretKey/ProjectID, chat-style
// providers read APIKey/Model, Microsoft additionally reads Region.
type Credential struct {
	SecretID  string `json:"secretId,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
	ProjectID int64  `json:"projectId,omitempty"`
	APIKey    string `json:"apiKey,omitempty"`
	Model     string `json:"model,omitempty"`
	Region    string `json:"region,omitempty"`
}

// Unit is one provider's single translated-text contribution. Immutable
// once constructed.
type Unit struct {
	Source     string `json:"source"`
	SourceName string `json:"sourceName"`
	Text       string `json:"text"`
}
