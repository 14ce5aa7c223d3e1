// Package huggingface provides a Hugging Face Inference provider for think-tools.
// Requests go through the Hugging Face router, which serves an OpenAI-compatible
// chat completions API in front of the hosted inference providers.
package huggingface

import (
	thinktools "github.com/oieieio/think-tools"
	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/providers"
	"github.com/oieieio/think-tools/providers/openai"
)

// Provider configuration constants.
const (
	defaultBaseURL = "https://router.huggingface.co/v1"
	envAPIKey      = "HF_TOKEN"
	envAPIKeyHub   = "HUGGING_FACE_HUB_TOKEN"
	envBaseURL     = "HF_INFERENCE_BASE_URL"
	providerName   = "huggingface"
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

// Provider implements the providers.Provider interface for Hugging Face Inference.
type Provider struct {
	*openai.CompatibleProvider
}

// New creates a new Hugging Face provider.
// The token is read from HF_TOKEN, then HUGGING_FACE_HUB_TOKEN.
func New(opts ...config.Option) (*Provider, error) {
	base, err := openai.NewCompatible(openai.CompatibleConfig{
		APIKeyEnvVars:  []string{envAPIKey, envAPIKeyHub},
		BaseURLEnvVar:  envBaseURL,
		Capabilities:   huggingFaceCapabilities(),
		DefaultBaseURL: defaultBaseURL,
		Name:           providerName,
		RequireAPIKey:  true,
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &Provider{CompatibleProvider: base}, nil
}

func huggingFaceCapabilities() providers.Capabilities {
	return providers.Capabilities{
		Completion:          true,
		CompletionReasoning: true,
		CompletionStreaming: true,
	}
}
