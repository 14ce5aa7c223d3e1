// Package ollama provides an Ollama provider implementation for think-tools.
package ollama

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"

	thinktools "github.com/oieieio/think-tools"
	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/errors"
	"github.com/oieieio/think-tools/providers"
)

// Provider configuration constants.
const (
	defaultBaseURL = "http://localhost:11434"
	defaultNumCtx  = 32000
	envBaseURL     = "OLLAMA_HOST"
	providerName   = "ollama"
)

// Ollama done reasons.
const (
	doneReasonLength = "length"
	doneReasonStop   = "stop"
)

// Ollama option keys.
const (
	optionNumCtx      = "num_ctx"
	optionNumPredict  = "num_predict"
	optionSeed        = "seed"
	optionStop        = "stop"
	optionTemperature = "temperature"
	optionTopP        = "top_p"
)

// Thinking tag constants.
const (
	thinkingTagClose = "</think>"
	thinkingTagOpen  = "<think>"
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

// Provider implements the providers.Provider interface for Ollama.
type Provider struct {
	client *api.Client
	config *config.Config
	numCtx int
}

// streamState tracks accumulated state during streaming.
type streamState struct {
	id        string
	model     string
	created   int64
	content   strings.Builder
	reasoning strings.Builder
}

// New creates a new Ollama provider.
// The context window defaults to 32000 tokens and can be changed with
// config.WithExtra("num_ctx", n).
func New(opts ...config.Option) (*Provider, error) {
	cfg, err := config.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = cfg.ResolveEnv(envBaseURL)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	numCtx := defaultNumCtx
	if v, ok := cfg.ExtraValue(optionNumCtx); ok {
		n, ok := v.(int)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("invalid %s: %v", optionNumCtx, v)
		}
		numCtx = n
	}

	return &Provider{
		client: api.NewClient(parsedURL, cfg.HTTPClient()),
		config: cfg,
		numCtx: numCtx,
	}, nil
}

// Capabilities returns the provider's capabilities.
func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Completion:          true,
		CompletionReasoning: true,
		CompletionStreaming: true,
	}
}

// Completion performs a chat completion request.
func (p *Provider) Completion(
	ctx context.Context,
	params providers.CompletionParams,
) (*providers.ChatCompletion, error) {
	req, err := p.convertParams(params)
	if err != nil {
		return nil, err
	}

	// Disable streaming for non-stream requests.
	stream := false
	req.Stream = &stream

	var response api.ChatResponse
	err = p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return nil, p.ConvertError(err)
	}

	return convertResponse(&response), nil
}

// CompletionStream performs a streaming chat completion request.
func (p *Provider) CompletionStream(
	ctx context.Context,
	params providers.CompletionParams,
) (<-chan providers.ChatCompletionChunk, <-chan error) {
	chunks := make(chan providers.ChatCompletionChunk)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		req, err := p.convertParams(params)
		if err != nil {
			errs <- err
			return
		}

		state := newStreamState()

		err = p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			select {
			case chunks <- state.handleChunk(&resp):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- p.ConvertError(err)
		}
	}()

	return chunks, errs
}

// ConvertError converts Ollama errors to unified error types.
// Implements providers.ErrorConverter.
func (p *Provider) ConvertError(err error) error {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewProviderError(providerName, err)
	}

	var authErr api.AuthorizationError
	if stderrors.As(err, &authErr) {
		return errors.NewAuthenticationError(providerName, err)
	}

	var statusErr api.StatusError
	if stderrors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 401, 403:
			return errors.NewAuthenticationError(providerName, err)
		case 404:
			return errors.NewModelNotFoundError(providerName, err)
		case 429:
			return errors.NewRateLimitError(providerName, err)
		case 400:
			if strings.Contains(statusErr.ErrorMessage, "context") {
				return errors.NewContextLengthError(providerName, err)
			}
			return errors.NewInvalidRequestError(providerName, err)
		}

		provErr := errors.NewProviderError(providerName, err)
		provErr.StatusCode = statusErr.StatusCode
		return provErr
	}

	// Network-level errors (connection refused, etc.) - string check acceptable here.
	if strings.Contains(err.Error(), "connection refused") {
		return errors.NewProviderError(providerName, fmt.Errorf("ollama server not running: %w", err))
	}

	return errors.NewProviderError(providerName, err)
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// convertParams converts providers.CompletionParams to Ollama ChatRequest.
func (p *Provider) convertParams(params providers.CompletionParams) (*api.ChatRequest, error) {
	if params.Model == "" {
		return nil, errors.NewInvalidRequestError(providerName, fmt.Errorf("model is required"))
	}
	if len(params.Messages) == 0 {
		return nil, errors.NewInvalidRequestError(providerName, fmt.Errorf("at least one message is required"))
	}

	messages, err := convertMessages(params.Messages)
	if err != nil {
		return nil, errors.NewInvalidRequestError(providerName, err)
	}

	req := &api.ChatRequest{
		Model:    params.Model,
		Messages: messages,
		Options: map[string]any{
			optionNumCtx: p.numCtx,
		},
	}

	if params.Temperature != nil {
		req.Options[optionTemperature] = *params.Temperature
	}

	if params.TopP != nil {
		req.Options[optionTopP] = *params.TopP
	}

	if len(params.Stop) > 0 {
		req.Options[optionStop] = params.Stop
	}

	if params.MaxTokens != nil {
		req.Options[optionNumPredict] = *params.MaxTokens
	}

	if params.Seed != nil {
		req.Options[optionSeed] = *params.Seed
	}

	// Handle reasoning/thinking.
	if params.ReasoningEffort != "" &&
		params.ReasoningEffort != providers.ReasoningEffortNone &&
		params.ReasoningEffort != providers.ReasoningEffortAuto {
		think := api.ThinkValue{Value: true}
		req.Think = &think
	}

	return req, nil
}

// newStreamState creates a new stream state.
func newStreamState() *streamState {
	return &streamState{
		id:      generateID(),
		created: time.Now().Unix(),
	}
}

// chunk creates a ChatCompletionChunk with common fields populated.
func (s *streamState) chunk() providers.ChatCompletionChunk {
	return providers.ChatCompletionChunk{
		ID:      s.id,
		Object:  providers.ObjectChatCompletionChunk,
		Created: s.created,
		Model:   s.model,
		Choices: []providers.ChunkChoice{{Index: 0}},
	}
}

// handleChunk processes a streaming response and returns a chunk.
func (s *streamState) handleChunk(resp *api.ChatResponse) providers.ChatCompletionChunk {
	s.updateMetadata(resp)

	chunk := s.chunk()
	chunk.Choices[0].Delta = s.buildDelta(resp)

	if resp.Done {
		s.handleDone(resp, &chunk)
	}

	return chunk
}

// updateMetadata updates stream state metadata from response.
func (s *streamState) updateMetadata(resp *api.ChatResponse) {
	if s.model == "" {
		s.model = resp.Model
	}
	if resp.CreatedAt.Unix() > 0 {
		s.created = resp.CreatedAt.Unix()
	}
}

// buildDelta constructs the delta content from a response.
func (s *streamState) buildDelta(resp *api.ChatResponse) providers.ChunkDelta {
	delta := providers.ChunkDelta{}

	if resp.Message.Content != "" {
		s.content.WriteString(resp.Message.Content)
		delta.Content = resp.Message.Content
	}

	if resp.Message.Thinking != "" {
		s.reasoning.WriteString(resp.Message.Thinking)
		delta.Reasoning = &providers.Reasoning{Content: resp.Message.Thinking}
	}

	return delta
}

// handleDone processes the final chunk when streaming is complete.
func (s *streamState) handleDone(resp *api.ChatResponse, chunk *providers.ChatCompletionChunk) {
	chunk.Choices[0].FinishReason = convertDoneReason(resp.DoneReason)
	chunk.Usage = &providers.Usage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
}

// convertDoneReason converts Ollama done reason to OpenAI finish reason.
func convertDoneReason(reason string) string {
	switch reason {
	case doneReasonLength:
		return providers.FinishReasonLength
	case doneReasonStop:
		return providers.FinishReasonStop
	default:
		return providers.FinishReasonStop
	}
}

// convertMessage converts a single message to Ollama format.
func convertMessage(msg providers.Message) (api.Message, error) {
	switch msg.Role {
	case providers.RoleAssistant, providers.RoleSystem, providers.RoleUser:
		return api.Message{
			Role:    msg.Role,
			Content: msg.ContentString(),
		}, nil
	default:
		return api.Message{}, fmt.Errorf("unknown message role: %q", msg.Role)
	}
}

// convertMessages converts provider messages to Ollama format.
func convertMessages(messages []providers.Message) ([]api.Message, error) {
	result := make([]api.Message, 0, len(messages))

	for _, msg := range messages {
		ollamaMsg, err := convertMessage(msg)
		if err != nil {
			return nil, err
		}
		result = append(result, ollamaMsg)
	}

	return result, nil
}

// convertResponse converts an Ollama response to provider format.
func convertResponse(resp *api.ChatResponse) *providers.ChatCompletion {
	content, reasoning := extractThinking(resp.Message.Content, resp.Message.Thinking)

	return &providers.ChatCompletion{
		ID:      generateID(),
		Object:  providers.ObjectChatCompletion,
		Created: resp.CreatedAt.Unix(),
		Model:   resp.Model,
		Choices: []providers.Choice{{
			Index: 0,
			Message: providers.Message{
				Role:      providers.RoleAssistant,
				Content:   content,
				Reasoning: reasoning,
			},
			FinishReason: convertDoneReason(resp.DoneReason),
		}},
		Usage: &providers.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}
}

// extractThinking extracts thinking content from response.
// It checks the dedicated Thinking field first, then falls back to parsing a
// complete <think>...</think> block. Content cut at the stop sequence has no
// closing tag and is returned unchanged.
func extractThinking(content, thinking string) (string, *providers.Reasoning) {
	if thinking != "" {
		return content, &providers.Reasoning{Content: thinking}
	}

	if !strings.Contains(content, thinkingTagOpen) || !strings.Contains(content, thinkingTagClose) {
		return content, nil
	}

	before, rest, found := strings.Cut(content, thinkingTagOpen)
	if !found {
		return content, nil
	}

	inner, after, found := strings.Cut(rest, thinkingTagClose)
	if !found {
		return content, nil
	}

	return strings.TrimSpace(before + after), &providers.Reasoning{Content: inner}
}

// generateID generates a unique completion ID.
func generateID() string {
	return "chatcmpl-" + uuid.NewString()
}
