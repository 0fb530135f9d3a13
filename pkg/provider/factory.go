package provider

import "github.com/sahayak-ai/sahayak/pkg/config"

// FromConfig builds a Registry from configured providers. A provider with an
// unset API key is still registered; its first call fails with an auth-class
// error and the health registry takes it out of rotation.
func FromConfig(providers []config.ProviderConfig) *Registry {
	reg := NewRegistry()
	for _, p := range providers {
		switch p.Type {
		case "anthropic":
			reg.Register(NewAnthropicClient(p.Name, p.URL, p.APIKey, p.Model))
		default:
			reg.Register(NewOpenAIClient(p.Name, p.URL, p.APIKey, p.Model))
		}
	}
	return reg
}
