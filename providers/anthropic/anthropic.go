// Package anthropic provides an Anthropic provider implementation for think-tools.
// Claude's extended thinking is surfaced as reasoning content, separate from
// the answer text.
package anthropic

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	thinktools "github.com/oieieio/think-tools"
	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/errors"
	"github.com/oieieio/think-tools/providers"
)

// Provider configuration constants.
const (
	defaultMaxTokens = 4096
	envAPIKey        = "ANTHROPIC_API_KEY"
	envBaseURL       = "ANTHROPIC_BASE_URL"
	providerName     = "anthropic"
)

// Anthropic content block and delta types.
const (
	blockText     = "text"
	blockThinking = "thinking"
	deltaText     = "text_delta"
	deltaThinking = "thinking_delta"
)

// Anthropic stream event types.
const (
	eventContentBlockDelta = "content_block_delta"
	eventMessageDelta      = "message_delta"
	eventMessageStart      = "message_start"
)

// Anthropic stop reasons.
const (
	stopReasonEndTurn      = "end_turn"
	stopReasonMaxTokens    = "max_tokens"
	stopReasonRefusal      = "refusal"
	stopReasonStopSequence = "stop_sequence"
)

// Reasoning effort to thinking budget tokens mapping.
var reasoningEffortToBudget = map[providers.ReasoningEffort]int64{
	providers.ReasoningEffortLow:    1024,
	providers.ReasoningEffortMedium: 4096,
	providers.ReasoningEffortHigh:   16384,
}

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

// Provider implements the providers.Provider interface for Anthropic.
type Provider struct {
	client anthropic.Client
	config *config.Config
}

// New creates a new Anthropic provider.
func New(opts ...config.Option) (*Provider, error) {
	cfg, err := config.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	apiKey := cfg.ResolveAPIKey(envAPIKey)
	if apiKey == "" {
		return nil, errors.NewMissingAPIKeyError(providerName, envAPIKey)
	}

	baseURL, err := cfg.ResolveBaseURL(envBaseURL, "")
	if err != nil {
		return nil, err
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.HTTPClient()),
		option.WithMaxRetries(0),
	}

	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	return &Provider{
		client: anthropic.NewClient(clientOpts...),
		config: cfg,
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
	req, err := convertParams(params)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Messages.New(ctx, req)
	if err != nil {
		return nil, p.ConvertError(err)
	}

	return convertResponse(resp), nil
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

		req, err := convertParams(params)
		if err != nil {
			errs <- err
			return
		}

		stream := p.client.Messages.NewStreaming(ctx, req)
		defer stream.Close()

		state := newStreamState()

		for stream.Next() {
			chunk := state.handleEvent(stream.Current())
			if chunk == nil {
				continue
			}

			select {
			case chunks <- *chunk:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}

		if err := stream.Err(); err != nil {
			errs <- p.ConvertError(err)
		}
	}()

	return chunks, errs
}

// ConvertError converts Anthropic SDK errors to unified error types.
func (p *Provider) ConvertError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !stderrors.As(err, &apiErr) {
		return errors.NewProviderError(providerName, err)
	}

	switch apiErr.StatusCode {
	case 400:
		if strings.Contains(strings.ToLower(apiErr.Error()), "prompt is too long") {
			return errors.NewContextLengthError(providerName, err)
		}
		return errors.NewInvalidRequestError(providerName, err)
	case 401, 403:
		return errors.NewAuthenticationError(providerName, err)
	case 404:
		return errors.NewModelNotFoundError(providerName, err)
	case 429:
		return errors.NewRateLimitError(providerName, err)
	}

	provErr := errors.NewProviderError(providerName, err)
	provErr.StatusCode = apiErr.StatusCode
	return provErr
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// streamState accumulates what a streaming response has produced so far.
type streamState struct {
	messageID   string
	model       string
	inputTokens int64
	content     strings.Builder
	reasoning   strings.Builder
}

func newStreamState() *streamState {
	return &streamState{}
}

// handleEvent converts one stream event into a chunk, or nil when the event
// carries nothing for the caller.
func (s *streamState) handleEvent(event anthropic.MessageStreamEventUnion) *providers.ChatCompletionChunk {
	switch event.Type {
	case eventMessageStart:
		e := event.AsMessageStart()
		s.messageID = e.Message.ID
		s.model = string(e.Message.Model)
		s.inputTokens = e.Message.Usage.InputTokens
		return s.chunk(providers.ChunkDelta{Role: providers.RoleAssistant}, "")

	case eventContentBlockDelta:
		e := event.AsContentBlockDelta()
		switch e.Delta.Type {
		case deltaText:
			return s.handleTextDelta(e.Delta.Text)
		case deltaThinking:
			return s.handleThinkingDelta(e.Delta.Thinking)
		}

	case eventMessageDelta:
		e := event.AsMessageDelta()
		chunk := s.chunk(providers.ChunkDelta{}, convertStopReason(string(e.Delta.StopReason)))
		chunk.Usage = &providers.Usage{
			PromptTokens:     int(s.inputTokens),
			CompletionTokens: int(e.Usage.OutputTokens),
			TotalTokens:      int(s.inputTokens + e.Usage.OutputTokens),
		}
		return chunk
	}

	return nil
}

func (s *streamState) handleTextDelta(text string) *providers.ChatCompletionChunk {
	s.content.WriteString(text)
	return s.chunk(providers.ChunkDelta{Content: text}, "")
}

func (s *streamState) handleThinkingDelta(thinking string) *providers.ChatCompletionChunk {
	s.reasoning.WriteString(thinking)
	return s.chunk(providers.ChunkDelta{Reasoning: &providers.Reasoning{Content: thinking}}, "")
}

func (s *streamState) chunk(delta providers.ChunkDelta, finishReason string) *providers.ChatCompletionChunk {
	return &providers.ChatCompletionChunk{
		ID:     s.messageID,
		Object: providers.ObjectChatCompletionChunk,
		Model:  s.model,
		Choices: []providers.ChunkChoice{{
			Index:        0,
			Delta:        delta,
			FinishReason: finishReason,
		}},
	}
}

// applyThinking enables extended thinking for the given effort, raising
// MaxTokens so the answer still has room after the budget.
func applyThinking(req *anthropic.MessageNewParams, effort providers.ReasoningEffort, maxTokens int64) {
	budget, ok := thinkingBudget(effort)
	if !ok {
		return
	}

	req.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
	if maxTokens < budget*2 {
		req.MaxTokens = budget * 2
	}
}

// convertMessage converts a single message. System messages return nil since
// Anthropic carries them outside the message list.
func convertMessage(msg providers.Message) (*anthropic.MessageParam, error) {
	switch msg.Role {
	case providers.RoleSystem:
		return nil, nil
	case providers.RoleUser:
		m := anthropic.NewUserMessage(anthropic.NewTextBlock(msg.ContentString()))
		return &m, nil
	case providers.RoleAssistant:
		m := anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.ContentString()))
		return &m, nil
	default:
		return nil, fmt.Errorf("unknown message role: %q", msg.Role)
	}
}

// convertMessages converts messages to Anthropic format.
// Returns the messages and the combined system prompt.
func convertMessages(messages []providers.Message) ([]anthropic.MessageParam, string, error) {
	result := make([]anthropic.MessageParam, 0, len(messages))
	var systemParts []string

	for _, msg := range messages {
		if msg.Role == providers.RoleSystem {
			systemParts = append(systemParts, msg.ContentString())
			continue
		}

		converted, err := convertMessage(msg)
		if err != nil {
			return nil, "", err
		}
		result = append(result, *converted)
	}

	return result, strings.Join(systemParts, "\n"), nil
}

// convertParams converts providers.CompletionParams to Anthropic request parameters.
func convertParams(params providers.CompletionParams) (anthropic.MessageNewParams, error) {
	if params.Model == "" {
		return anthropic.MessageNewParams{}, errors.NewInvalidRequestError(providerName, fmt.Errorf("model is required"))
	}
	if len(params.Messages) == 0 {
		return anthropic.MessageNewParams{}, errors.NewInvalidRequestError(providerName, fmt.Errorf("at least one message is required"))
	}

	messages, system, err := convertMessages(params.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, errors.NewInvalidRequestError(providerName, err)
	}

	maxTokens := int64(defaultMaxTokens)
	if params.MaxTokens != nil {
		maxTokens = int64(*params.MaxTokens)
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(params.Model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}

	if system != "" {
		req.System = []anthropic.TextBlockParam{{Text: system}}
	}

	if params.Temperature != nil {
		req.Temperature = anthropic.Float(*params.Temperature)
	}

	if params.TopP != nil {
		req.TopP = anthropic.Float(*params.TopP)
	}

	if len(params.Stop) > 0 {
		req.StopSequences = params.Stop
	}

	applyThinking(&req, params.ReasoningEffort, maxTokens)

	return req, nil
}

// convertResponse converts an Anthropic response to provider format.
func convertResponse(resp *anthropic.Message) *providers.ChatCompletion {
	var content strings.Builder
	var reasoning *providers.Reasoning

	for _, block := range resp.Content {
		switch block.Type {
		case blockText:
			content.WriteString(block.Text)
		case blockThinking:
			reasoning = &providers.Reasoning{Content: block.Thinking}
		}
	}

	return &providers.ChatCompletion{
		ID:     resp.ID,
		Object: providers.ObjectChatCompletion,
		Model:  string(resp.Model),
		Choices: []providers.Choice{{
			Index: 0,
			Message: providers.Message{
				Role:      providers.RoleAssistant,
				Content:   content.String(),
				Reasoning: reasoning,
			},
			FinishReason: convertStopReason(string(resp.StopReason)),
		}},
		Usage: &providers.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}

// convertStopReason converts Anthropic stop reason to OpenAI finish reason.
func convertStopReason(reason string) string {
	switch reason {
	case stopReasonMaxTokens:
		return providers.FinishReasonLength
	case stopReasonRefusal:
		return providers.FinishReasonContentFilter
	case stopReasonEndTurn, stopReasonStopSequence:
		return providers.FinishReasonStop
	default:
		return providers.FinishReasonStop
	}
}

// thinkingBudget returns the thinking token budget for a reasoning effort.
func thinkingBudget(effort providers.ReasoningEffort) (int64, bool) {
	budget, ok := reasoningEffortToBudget[effort]
	return budget, ok
}
