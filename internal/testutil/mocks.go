package testutil

import (
	"context"
	"sync"

	"github.com/oieieio/think-tools/providers"
)

// MockProvider is a mock implementation of the Provider interface for testing.
type MockProvider struct {
	NameFunc             func() string
	CompletionFunc       func(ctx context.Context, params providers.CompletionParams) (*providers.ChatCompletion, error)
	CompletionStreamFunc func(ctx context.Context, params providers.CompletionParams) (<-chan providers.ChatCompletionChunk, <-chan error)
	CapabilitiesFunc     func() providers.Capabilities

	mu sync.Mutex

	// Track calls for assertions
	CompletionCalls       []providers.CompletionParams
	CompletionStreamCalls []providers.CompletionParams
}

// Ensure MockProvider implements all interfaces.
var (
	_ providers.CapabilityProvider = (*MockProvider)(nil)
	_ providers.Provider           = (*MockProvider)(nil)
	_ providers.StreamingProvider  = (*MockProvider)(nil)
)

// NewMockProvider creates a new MockProvider with default implementations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		NameFunc: func() string { return "mock" },
		CompletionFunc: func(_ context.Context, params providers.CompletionParams) (*providers.ChatCompletion, error) {
			resp := MockChatCompletion("Hello World")
			resp.Model = params.Model
			return resp, nil
		},
		CompletionStreamFunc: func(_ context.Context, params providers.CompletionParams) (<-chan providers.ChatCompletionChunk, <-chan error) {
			return MockStream(params.Model, "Hello", " World")
		},
		CapabilitiesFunc: func() providers.Capabilities {
			return providers.Capabilities{
				Completion:          true,
				CompletionStreaming: true,
			}
		},
	}
}

func (m *MockProvider) Name() string {
	return m.NameFunc()
}

func (m *MockProvider) Completion(ctx context.Context, params providers.CompletionParams) (*providers.ChatCompletion, error) {
	m.mu.Lock()
	m.CompletionCalls = append(m.CompletionCalls, params)
	m.mu.Unlock()
	return m.CompletionFunc(ctx, params)
}

func (m *MockProvider) CompletionStream(ctx context.Context, params providers.CompletionParams) (<-chan providers.ChatCompletionChunk, <-chan error) {
	m.mu.Lock()
	m.CompletionStreamCalls = append(m.CompletionStreamCalls, params)
	m.mu.Unlock()
	return m.CompletionStreamFunc(ctx, params)
}

func (m *MockProvider) Capabilities() providers.Capabilities {
	return m.CapabilitiesFunc()
}

// MockStream returns channels that emit one content delta per part followed
// by a stop chunk.
func MockStream(model string, parts ...string) (<-chan providers.ChatCompletionChunk, <-chan error) {
	chunks := make(chan providers.ChatCompletionChunk, len(parts)+2)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		chunks <- providers.ChatCompletionChunk{
			ID:     "mock-chunk-id",
			Object: providers.ObjectChatCompletionChunk,
			Model:  model,
			Choices: []providers.ChunkChoice{
				{Index: 0, Delta: providers.ChunkDelta{Role: providers.RoleAssistant}},
			},
		}
		for _, part := range parts {
			chunks <- providers.ChatCompletionChunk{
				ID:     "mock-chunk-id",
				Object: providers.ObjectChatCompletionChunk,
				Model:  model,
				Choices: []providers.ChunkChoice{
					{Index: 0, Delta: providers.ChunkDelta{Content: part}},
				},
			}
		}
		chunks <- providers.ChatCompletionChunk{
			ID:     "mock-chunk-id",
			Object: providers.ObjectChatCompletionChunk,
			Model:  model,
			Choices: []providers.ChunkChoice{
				{Index: 0, FinishReason: providers.FinishReasonStop},
			},
		}
	}()

	return chunks, errs
}

// MockChatCompletion creates a mock ChatCompletion response.
func MockChatCompletion(content string) *providers.ChatCompletion {
	return &providers.ChatCompletion{
		ID:     "mock-id",
		Object: providers.ObjectChatCompletion,
		Model:  "mock-model",
		Choices: []providers.Choice{
			{
				Index: 0,
				Message: providers.Message{
					Role:    providers.RoleAssistant,
					Content: content,
				},
				FinishReason: providers.FinishReasonStop,
			},
		},
		Usage: &providers.Usage{
			PromptTokens:     10,
			CompletionTokens: 5,
			TotalTokens:      15,
		},
	}
}

// MockChatCompletionWithReasoning creates a mock ChatCompletion with reasoning.
func MockChatCompletionWithReasoning(content, reasoning string) *providers.ChatCompletion {
	resp := MockChatCompletion(content)
	resp.Choices[0].Message.Reasoning = &providers.Reasoning{Content: reasoning}
	resp.Usage = &providers.Usage{
		PromptTokens:     10,
		CompletionTokens: 50,
		TotalTokens:      60,
		ReasoningTokens:  30,
	}
	return resp
}

// MockEmptyCompletion creates a ChatCompletion with no choices.
func MockEmptyCompletion() *providers.ChatCompletion {
	return &providers.ChatCompletion{
		ID:     "mock-id",
		Object: providers.ObjectChatCompletion,
		Model:  "mock-model",
	}
}
