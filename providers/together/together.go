// Package together provides a Together AI provider for think-tools.
package together

import (
	thinktools "github.com/oieieio/think-tools"
	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/providers"
	"github.com/oieieio/think-tools/providers/openai"
)

// Provider configuration constants.
const (
	defaultBaseURL = "https://api.together.xyz/v1"
	envAPIKey      = "TOGETHER_API_KEY"
	envBaseURL     = "TOGETHER_BASE_URL"
	providerName   = "together"
)

func init() {
	thinktools.Register(providerName, func(opts ...config.Option) (providers.Provider, error) {
		p, err := New(opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// Ensure Provider implements the required interfaces.
var (
	_ providers.CapabilityProvider = (*Provider)(nil)
	_ providers.ErrorConverter     = (*Provider)(nil)
	_ providers.Provider           = (*Provider)(nil)
	_ providers.StreamingProvider  = (*Provider)(nil)
)

// Provider implements the providers.Provider interface for Together AI.
type Provider struct {
	*openai.CompatibleProvider
}

// New creates a new Together AI provider.
func New(opts ...config.Option) (*Provider, error) {
	base, err := openai.NewCompatible(openai.CompatibleConfig{
		APIKeyEnvVars:  []string{envAPIKey},
		BaseURLEnvVar:  envBaseURL,
		Capabilities:   togetherCapabilities(),
		DefaultBaseURL: defaultBaseURL,
		Name:           providerName,
		RequireAPIKey:  true,
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &Provider{CompatibleProvider: base}, nil
}

func togetherCapabilities() providers.Capabilities {
	return providers.Capabilities{
		Completion:          true,
		CompletionReasoning: true,
		CompletionStreaming: true,
	}
}
