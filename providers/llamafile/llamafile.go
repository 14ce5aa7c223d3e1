// Package llamafile provides a Llamafile provider implementation for think-tools.
// Llamafile is a single-file executable that bundles a model with llama.cpp,
// exposing an OpenAI-compatible API.
package llamafile

import (
	thinktools "github.com/oieieio/think-tools"
	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/providers"
	"github.com/oieieio/think-tools/providers/openai"
)

// Provider configuration constants.
const (
	defaultAPIKey  = "llamafile" // Dummy key; Llamafile doesn't require auth.
	defaultBaseURL = "http://localhost:8080/v1"
	envBaseURL     = "LLAMAFILE_BASE_URL"
	providerName   = "llamafile"
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

// Provider implements the providers.Provider interface for Llamafile.
// It embeds openai.CompatibleProvider since Llamafile exposes an OpenAI-compatible API.
type Provider struct {
	*openai.CompatibleProvider
}

// New creates a new Llamafile provider.
func New(opts ...config.Option) (*Provider, error) {
	base, err := openai.NewCompatible(openai.CompatibleConfig{
		BaseURLEnvVar:  envBaseURL,
		Capabilities:   llamafileCapabilities(),
		DefaultAPIKey:  defaultAPIKey,
		DefaultBaseURL: defaultBaseURL,
		Name:           providerName,
		RequireAPIKey:  false,
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &Provider{CompatibleProvider: base}, nil
}

// llamafileCapabilities returns the capabilities for the Llamafile provider.
// Reasoning models served by llama.cpp emit their thinking inline in content.
func llamafileCapabilities() providers.Capabilities {
	return providers.Capabilities{
		Completion:          true,
		CompletionReasoning: false,
		CompletionStreaming: true,
	}
}
