// Package gemini provides a Google Gemini provider for think-tools, built on
// the native genai SDK. Thought parts are returned as reasoning content.
package gemini

import (
	"context"
	stderrors "errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	thinktools "github.com/oieieio/think-tools"
	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/errors"
	"github.com/oieieio/think-tools/providers"
)

// Provider configuration constants.
const (
	envAPIKey       = "GEMINI_API_KEY"
	envAPIKeyGoogle = "GOOGLE_API_KEY"
	envBaseURL      = "GEMINI_BASE_URL"
	providerName    = "gemini"
)

// Reasoning effort to thinking budget tokens mapping.
// -1 lets the model pick its own budget.
var reasoningEffortToBudget = map[providers.ReasoningEffort]int32{
	providers.ReasoningEffortAuto:   -1,
	providers.ReasoningEffortHigh:   16384,
	providers.ReasoningEffortLow:    1024,
	providers.ReasoningEffortMedium: 4096,
	providers.ReasoningEffortNone:   0,
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

// modelsClient is the subset of genai.Models the provider calls.
type modelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

var newClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// Provider implements the providers.Provider interface for Gemini.
type Provider struct {
	models modelsClient
	config *config.Config
}

// New creates a new Gemini provider.
// The key is read from GEMINI_API_KEY, then GOOGLE_API_KEY.
func New(opts ...config.Option) (*Provider, error) {
	cfg, err := config.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	apiKey := cfg.ResolveAPIKey(envAPIKey, envAPIKeyGoogle)
	if apiKey == "" {
		return nil, errors.NewMissingAPIKeyError(providerName, envAPIKey)
	}

	baseURL, err := cfg.ResolveBaseURL(envBaseURL, "")
	if err != nil {
		return nil, err
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient(),
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := newClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	cfg.Logger().Debug("provider_ready",
		"provider", providerName,
		"base_url", baseURL,
	)

	return &Provider{
		models: client.Models,
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
	contents, genCfg, err := convertParams(params)
	if err != nil {
		return nil, err
	}

	resp, err := p.models.GenerateContent(ctx, params.Model, contents, genCfg)
	if err != nil {
		return nil, p.ConvertError(err)
	}

	return convertResponse(resp, params.Model), nil
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

		contents, genCfg, err := convertParams(params)
		if err != nil {
			errs <- err
			return
		}

		id := generateID()
		created := time.Now().Unix()

		for resp, err := range p.models.GenerateContentStream(ctx, params.Model, contents, genCfg) {
			if err != nil {
				errs <- p.ConvertError(err)
				return
			}

			chunk := convertChunk(resp, id, created, params.Model)
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return chunks, errs
}

// ConvertError converts genai errors to unified error types.
func (p *Provider) ConvertError(err error) error {
	if err == nil {
		return nil
	}

	code, ok := apiErrorCode(err)
	if !ok {
		return errors.NewProviderError(providerName, err)
	}

	switch code {
	case 400:
		return errors.NewInvalidRequestError(providerName, err)
	case 401, 403:
		return errors.NewAuthenticationError(providerName, err)
	case 404:
		return errors.NewModelNotFoundError(providerName, err)
	case 429:
		return errors.NewRateLimitError(providerName, err)
	}

	provErr := errors.NewProviderError(providerName, err)
	provErr.StatusCode = code
	return provErr
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code, true
	}

	var apiErrPtr *genai.APIError
	if stderrors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}

	return 0, false
}

// convertParams builds the genai request. System messages become the system
// instruction; the stop list maps onto StopSequences.
func convertParams(params providers.CompletionParams) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	if strings.TrimSpace(params.Model) == "" {
		return nil, nil, errors.NewInvalidRequestError(providerName, fmt.Errorf("model is required"))
	}
	if len(params.Messages) == 0 {
		return nil, nil, errors.NewInvalidRequestError(providerName, fmt.Errorf("at least one message is required"))
	}

	contents := make([]*genai.Content, 0, len(params.Messages))
	var systemParts []string

	for _, msg := range params.Messages {
		switch msg.Role {
		case providers.RoleSystem:
			systemParts = append(systemParts, msg.ContentString())
		case providers.RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.ContentString(), genai.RoleUser))
		case providers.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.ContentString(), genai.RoleModel))
		default:
			return nil, nil, errors.NewInvalidRequestError(providerName, fmt.Errorf("unknown message role: %q", msg.Role))
		}
	}

	if len(contents) == 0 {
		return nil, nil, errors.NewInvalidRequestError(providerName, fmt.Errorf("at least one user or assistant message is required"))
	}

	genCfg := &genai.GenerateContentConfig{}

	if len(systemParts) > 0 {
		genCfg.SystemInstruction = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), "")
	}

	if params.Temperature != nil {
		genCfg.Temperature = genai.Ptr(float32(*params.Temperature))
	}

	if params.TopP != nil {
		genCfg.TopP = genai.Ptr(float32(*params.TopP))
	}

	if params.MaxTokens != nil {
		genCfg.MaxOutputTokens = int32(*params.MaxTokens)
	}

	if len(params.Stop) > 0 {
		genCfg.StopSequences = params.Stop
	}

	if params.Seed != nil {
		genCfg.Seed = genai.Ptr(int32(*params.Seed))
	}

	if budget, ok := reasoningEffortToBudget[params.ReasoningEffort]; ok {
		genCfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: budget != 0,
			ThinkingBudget:  genai.Ptr(budget),
		}
	}

	return contents, genCfg, nil
}

// splitParts separates visible text from thought text in the first candidate.
func splitParts(resp *genai.GenerateContentResponse) (text, thought string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", ""
	}

	var textSB, thoughtSB strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if part.Thought {
			thoughtSB.WriteString(part.Text)
			continue
		}
		textSB.WriteString(part.Text)
	}

	return textSB.String(), thoughtSB.String()
}

// convertResponse converts a genai response to provider format.
// A response with no candidates yields a completion with no choices.
func convertResponse(resp *genai.GenerateContentResponse, model string) *providers.ChatCompletion {
	result := &providers.ChatCompletion{
		ID:      responseID(resp),
		Object:  providers.ObjectChatCompletion,
		Created: time.Now().Unix(),
		Model:   responseModel(resp, model),
		Choices: []providers.Choice{},
		Usage:   convertUsage(resp),
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return result
	}

	text, thought := splitParts(resp)
	message := providers.Message{
		Role:    providers.RoleAssistant,
		Content: text,
	}
	if thought != "" {
		message.Reasoning = &providers.Reasoning{Content: thought}
	}

	result.Choices = append(result.Choices, providers.Choice{
		Index:        0,
		Message:      message,
		FinishReason: convertFinishReason(resp.Candidates[0].FinishReason),
	})

	return result
}

// convertChunk converts one streamed genai response to a chunk.
func convertChunk(resp *genai.GenerateContentResponse, id string, created int64, model string) providers.ChatCompletionChunk {
	text, thought := splitParts(resp)

	delta := providers.ChunkDelta{Content: text}
	if thought != "" {
		delta.Reasoning = &providers.Reasoning{Content: thought}
	}

	choice := providers.ChunkChoice{Index: 0, Delta: delta}
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0] != nil && resp.Candidates[0].FinishReason != "" {
		choice.FinishReason = convertFinishReason(resp.Candidates[0].FinishReason)
	}

	return providers.ChatCompletionChunk{
		ID:      id,
		Object:  providers.ObjectChatCompletionChunk,
		Created: created,
		Model:   responseModel(resp, model),
		Choices: []providers.ChunkChoice{choice},
		Usage:   convertUsage(resp),
	}
}

// convertFinishReason converts a genai finish reason to OpenAI finish reason.
func convertFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonMaxTokens:
		return providers.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent, genai.FinishReasonSPII:
		return providers.FinishReasonContentFilter
	default:
		return providers.FinishReasonStop
	}
}

func convertUsage(resp *genai.GenerateContentResponse) *providers.Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}

	u := resp.UsageMetadata
	return &providers.Usage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount + u.ThoughtsTokenCount),
		TotalTokens:      int(u.TotalTokenCount),
		ReasoningTokens:  int(u.ThoughtsTokenCount),
	}
}

func responseID(resp *genai.GenerateContentResponse) string {
	if resp != nil && resp.ResponseID != "" {
		return resp.ResponseID
	}
	return generateID()
}

func responseModel(resp *genai.GenerateContentResponse, fallback string) string {
	if resp != nil && resp.ModelVersion != "" {
		return resp.ModelVersion
	}
	return fallback
}

func generateID() string {
	return "chatcmpl-" + uuid.NewString()
}
