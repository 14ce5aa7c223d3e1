package openai

import (
	thinktools "github.com/oieieio/think-tools"
	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/providers"
)

// Provider configuration constants.
const (
	defaultBaseURL = "https://api.openai.com/v1"
	envAPIKey      = "OPENAI_API_KEY"
	envBaseURL     = "OPENAI_BASE_URL"
	providerName   = "openai"
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

// Provider implements the providers.Provider interface for OpenAI.
// It embeds CompatibleProvider which handles the OpenAI SDK integration.
type Provider struct {
	*CompatibleProvider
}

// New creates a new OpenAI provider.
func New(opts ...config.Option) (*Provider, error) {
	base, err := NewCompatible(CompatibleConfig{
		APIKeyEnvVars:  []string{envAPIKey},
		BaseURLEnvVar:  envBaseURL,
		Capabilities:   openAICapabilities(),
		DefaultBaseURL: defaultBaseURL,
		Name:           providerName,
		RequireAPIKey:  true,
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &Provider{CompatibleProvider: base}, nil
}

// openAICapabilities returns the capabilities for the OpenAI provider.
func openAICapabilities() providers.Capabilities {
	return providers.Capabilities{
		Completion:          true,
		CompletionReasoning: true,
		CompletionStreaming: true,
	}
}
