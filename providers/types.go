// Package providers defines the core provider interface and related types.
package providers

import (
	"context"
)

// Message roles.
const (
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleUser      = "user"
)

// Finish reasons.
const (
	FinishReasonContentFilter = "content_filter"
	FinishReasonLength        = "length"
	FinishReasonStop          = "stop"
)

// Object type constants.
const (
	ObjectChatCompletion      = "chat.completion"
	ObjectChatCompletionChunk = "chat.completion.chunk"
)

// ReasoningEffort levels for extended thinking.
const (
	ReasoningEffortAuto   ReasoningEffort = "auto"
	ReasoningEffortHigh   ReasoningEffort = "high"
	ReasoningEffortLow    ReasoningEffort = "low"
	ReasoningEffortMedium ReasoningEffort = "medium"
	ReasoningEffortNone   ReasoningEffort = "none"
)

// Capabilities describes what features a provider supports.
type Capabilities struct {
	Completion          bool
	CompletionReasoning bool
	CompletionStreaming bool
}

// CapabilityProvider is an optional interface for providers to report capabilities.
type CapabilityProvider interface {
	Provider
	Capabilities() Capabilities
}

// ChatCompletion represents a chat completion response in OpenAI format.
type ChatCompletion struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	Choices           []Choice `json:"choices"`
	Usage             *Usage   `json:"usage,omitempty"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
}

// FirstContent returns the content of the first choice.
// ok is false when the completion has no choices.
func (c *ChatCompletion) FirstContent() (content string, ok bool) {
	if c == nil || len(c.Choices) == 0 {
		return "", false
	}
	return c.Choices[0].Message.ContentString(), true
}

// ChatCompletionChunk represents a streaming chunk in OpenAI format.
type ChatCompletionChunk struct {
	ID                string        `json:"id"`
	Object            string        `json:"object"`
	Created           int64         `json:"created"`
	Model             string        `json:"model"`
	Choices           []ChunkChoice `json:"choices"`
	Usage             *Usage        `json:"usage,omitempty"`
	SystemFingerprint string        `json:"system_fingerprint,omitempty"`
}

// Choice represents a completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// ChunkChoice represents a choice in a streaming chunk.
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

// ChunkDelta represents the delta content in a streaming chunk.
type ChunkDelta struct {
	Role      string     `json:"role,omitempty"`
	Content   string     `json:"content,omitempty"`
	Reasoning *Reasoning `json:"reasoning,omitempty"`
}

// CompletionParams represents normalized parameters for chat completion requests.
type CompletionParams struct {
	Model           string          `json:"model"`
	Messages        []Message       `json:"messages"`
	Temperature     *float64        `json:"temperature,omitempty"`
	TopP            *float64        `json:"top_p,omitempty"`
	MaxTokens       *int            `json:"max_tokens,omitempty"`
	Stop            []string        `json:"stop,omitempty"`
	Stream          bool            `json:"stream,omitempty"`
	StreamOptions   *StreamOptions  `json:"stream_options,omitempty"`
	ReasoningEffort ReasoningEffort `json:"reasoning_effort,omitempty"`
	Seed            *int            `json:"seed,omitempty"`
	User            string          `json:"user,omitempty"`
	Extra           map[string]any  `json:"-"`
}

// ErrorConverter is implemented by providers that map SDK errors onto the
// shared error taxonomy.
type ErrorConverter interface {
	ConvertError(err error) error
}

// Message represents a chat message in OpenAI format.
type Message struct {
	Role      string     `json:"role"`
	Content   any        `json:"content"`
	Name      string     `json:"name,omitempty"`
	Reasoning *Reasoning `json:"reasoning,omitempty"`
}

// ContentString extracts string content from a message.
func (m *Message) ContentString() string {
	if s, ok := m.Content.(string); ok {
		return s
	}
	return ""
}

// Provider is the core interface that all LLM providers must implement.
type Provider interface {
	// Name returns the provider's identifier (e.g., "huggingface", "anthropic").
	Name() string

	// Completion performs a chat completion request.
	Completion(ctx context.Context, params CompletionParams) (*ChatCompletion, error)
}

// StreamingProvider is an optional interface for providers that can stream completions.
type StreamingProvider interface {
	Provider

	// CompletionStream performs a streaming chat completion request.
	// The error channel receives at most one error; both channels are closed
	// when the stream ends.
	CompletionStream(ctx context.Context, params CompletionParams) (<-chan ChatCompletionChunk, <-chan error)
}

// Reasoning represents extended thinking/reasoning content.
type Reasoning struct {
	Content string `json:"content,omitempty"`
}

// ReasoningEffort levels for extended thinking.
type ReasoningEffort string

// StreamOptions contains options for streaming responses.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	ReasoningTokens  int `json:"reasoning_tokens,omitempty"`
}

// SupportsStreaming reports whether p can stream completions.
func SupportsStreaming(p Provider) bool {
	sp, ok := p.(StreamingProvider)
	if !ok {
		return false
	}
	if cp, ok := sp.(CapabilityProvider); ok {
		return cp.Capabilities().CompletionStreaming
	}
	return true
}

// SupportsReasoning reports whether p returns separate reasoning content.
func SupportsReasoning(p Provider) bool {
	if cp, ok := p.(CapabilityProvider); ok {
		return cp.Capabilities().CompletionReasoning
	}
	return false
}
