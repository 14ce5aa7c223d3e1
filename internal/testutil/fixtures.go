// Package testutil provides testing utilities and fixtures for think-tools.
package testutil

import (
	"os"
	"time"

	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/providers"
)

// StopThinking mirrors the stop sequence the completion fetcher sends.
const StopThinking = "</think>"

// ProviderModelMap maps providers to small, cheap test models.
var ProviderModelMap = map[string]string{
	"anthropic":   "claude-3-5-haiku-latest",
	"gemini":      "gemini-2.5-flash",
	"huggingface": "meta-llama/Llama-3.1-8B-Instruct",
	"llamafile":   "LLaMA_CPP",
	"ollama":      "llama3.2",
	"openai":      "gpt-4o-mini",
	"together":    "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo",
}

// ProviderReasoningModelMap maps providers to reasoning-capable models.
var ProviderReasoningModelMap = map[string]string{
	"anthropic":   "claude-sonnet-4-20250514",
	"gemini":      "gemini-2.5-flash",
	"huggingface": "deepseek-ai/DeepSeek-R1",
	"ollama":      "deepseek-r1:1.5b",
	"openai":      "o4-mini",
	"together":    "deepseek-ai/DeepSeek-R1",
}

// ProviderClientConfig holds provider-specific configuration for tests.
var ProviderClientConfig = map[string][]config.Option{
	"anthropic":   {config.WithTimeout(60 * time.Second)},
	"huggingface": {config.WithTimeout(180 * time.Second)},
}

// LocalProviders are providers that run locally and don't need API keys.
var LocalProviders = map[string]bool{
	"llamafile": true,
	"ollama":    true,
}

// providerEnvKeys maps provider names to their API key environment variable names.
var providerEnvKeys = map[string]string{
	"anthropic":   "ANTHROPIC_API_KEY",
	"gemini":      "GEMINI_API_KEY",
	"huggingface": "HF_TOKEN",
	"openai":      "OPENAI_API_KEY",
	"together":    "TOGETHER_API_KEY",
}

// SimpleMessages returns a simple test message.
func SimpleMessages() []providers.Message {
	return []providers.Message{
		{Role: providers.RoleUser, Content: "Say 'Hello World' exactly, nothing else."},
	}
}

// MessagesWithSystem returns messages with a system prompt.
func MessagesWithSystem() []providers.Message {
	return []providers.Message{
		{Role: providers.RoleSystem, Content: "You are a helpful assistant that follows instructions exactly."},
		{Role: providers.RoleUser, Content: "Say 'Hello World' exactly, nothing else."},
	}
}

// ThinkingMessages returns the single user turn the completion fetcher sends.
func ThinkingMessages() []providers.Message {
	return []providers.Message{
		{Role: providers.RoleUser, Content: "What is 17 * 23? Think step by step."},
	}
}

// ThinkingParams returns completion params that stop at the end of the thinking block.
func ThinkingParams(model string) providers.CompletionParams {
	return providers.CompletionParams{
		Model:    model,
		Messages: ThinkingMessages(),
		Stop:     []string{StopThinking},
	}
}

// HasAPIKey checks if the API key environment variable is set for a provider.
func HasAPIKey(provider string) bool {
	if LocalProviders[provider] {
		return true
	}

	envKey, ok := providerEnvKeys[provider]
	if !ok {
		return false
	}
	return os.Getenv(envKey) != ""
}

// SkipIfNoAPIKey reports whether a test should be skipped because the
// provider's API key is not set.
func SkipIfNoAPIKey(provider string) bool {
	return !HasAPIKey(provider)
}

// TestModel returns the test model for a provider.
func TestModel(provider string) string {
	return ProviderModelMap[provider]
}

// ReasoningModel returns the reasoning model for a provider.
func ReasoningModel(provider string) string {
	return ProviderReasoningModelMap[provider]
}

// ClientOptions returns the client options for a provider.
func ClientOptions(provider string) []config.Option {
	return ProviderClientConfig[provider]
}
