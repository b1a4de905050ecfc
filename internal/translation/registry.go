package translation

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider name constants. The dictionary is not a network provider and
// lives outside the registry, but merge results reference its name.
const (
	ProviderTencent    = "tencent"
	ProviderSilicon    = "silicon"
	ProviderAli        = "ali"
	ProviderDeepL      = "deepl"
	ProviderMicrosoft  = "microsoft"
	ProviderZhipu      = "zhipu"
	ProviderGPT        = "gpt"
	ProviderDictionary = "dictionary"
)

// DefaultHTTPTimeout bounds a single provider call when the caller's
// context carries no earlier deadline.
const DefaultHTTPTimeout = 15 * time.Second

// Registry stores translation providers in registration order. The
// aggregator iterates the enabled subset instead of branching on
// provider names.
type Registry struct {
	providers map[string]Provider
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// NewDefaultRegistry registers every supported network provider against
// a shared HTTP client.
func NewDefaultRegistry(client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	registry := NewRegistry()
	_ = registry.Register(NewTencentProvider(client))
	_ = registry.Register(NewDeepLProvider(client))
	_ = registry.Register(NewMicrosoftProvider(client))
	_ = registry.Register(NewAliProvider(client))
	_ = registry.Register(NewZhipuProvider(client))
	_ = registry.Register(NewSiliconProvider(client))
	_ = registry.Register(NewGPTProvider(client))
	return registry
}

// Register adds one provider. Re-registering a name replaces the
// provider but keeps its original position.
func (r *Registry) Register(provider Provider) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if provider == nil {
		return fmt.Errorf("provider is nil")
	}
	name := normalizeProviderName(provider.Name())
	if name == "" {
		return fmt.Errorf("provider name is required")
	}
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = provider
	return nil
}

// Provider resolves a provider by name.
func (r *Registry) Provider(name string) (Provider, error) {
	if r == nil || len(r.providers) == 0 {
		return nil, fmt.Errorf("no translation providers are registered")
	}
	resolved := normalizeProviderName(name)
	provider, ok := r.providers[resolved]
	if !ok {
		return nil, fmt.Errorf("translation provider %q is not registered (available: %s)",
			resolved, strings.Join(r.Names(), ", "))
	}
	return provider, nil
}

// All returns every provider in registration order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	providers := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		providers = append(providers, r.providers[name])
	}
	return providers
}

// Names returns provider names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// DisplayName resolves a human-readable provider label, falling back to
// the raw name for unknown providers.
func (r *Registry) DisplayName(name string) string {
	resolved := normalizeProviderName(name)
	if resolved == ProviderDictionary {
		return "词典"
	}
	if r != nil {
		if provider, ok := r.providers[resolved]; ok {
			return provider.DisplayName()
		}
	}
	return resolved
}

func normalizeProviderName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
