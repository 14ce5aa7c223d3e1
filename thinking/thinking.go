// Package thinking fetches the thinking section of a reasoning model's reply.
//
// The request carries one user message and stops at the closing </think>
// marker, so the returned content is the model's thought process. An optional
// second step sends that thinking, with the question, to an answer model.
package thinking

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/oieieio/think-tools/errors"
	"github.com/oieieio/think-tools/providers"
)

// StopThinking is the marker that ends a reasoning model's thought process.
const StopThinking = "</think>"

// Fetcher issues thinking requests against a provider.
type Fetcher struct {
	provider providers.Provider
	model    string
	stop     string
	logger   *slog.Logger

	answerProvider providers.Provider
	answerModel    string
}

// Option configures a Fetcher.
type Option func(*Fetcher) error

// WithStop replaces the stop sequence.
func WithStop(stop string) Option {
	return func(f *Fetcher) error {
		if stop == "" {
			return fmt.Errorf("stop sequence cannot be empty")
		}

		f.stop = stop
		return nil
	}
}

// WithAnswer enables Answer, sending the formatted prompt to model on p.
func WithAnswer(p providers.Provider, model string) Option {
	return func(f *Fetcher) error {
		if p == nil {
			return fmt.Errorf("answer provider cannot be nil")
		}
		if strings.TrimSpace(model) == "" {
			return fmt.Errorf("answer model cannot be empty")
		}

		f.answerProvider = p
		f.answerModel = model
		return nil
	}
}

// WithLogger sets the logger. Reasoning returned by the provider is logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}

		f.logger = logger
		return nil
	}
}

// NewFetcher returns a Fetcher that asks model on p.
func NewFetcher(p providers.Provider, model string, opts ...Option) (*Fetcher, error) {
	if p == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}

	f := &Fetcher{
		provider: p,
		model:    model,
		stop:     StopThinking,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// ThinkingParams builds the thinking request: one user message and a single
// stop sequence, StopThinking.
func ThinkingParams(model, question string) providers.CompletionParams {
	return providers.CompletionParams{
		Model: model,
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: question},
		},
		Stop: []string{StopThinking},
	}
}

func (f *Fetcher) params(question string) providers.CompletionParams {
	params := ThinkingParams(f.model, question)
	params.Stop = []string{f.stop}
	return params
}

// Think sends question and returns the first choice's content.
func (f *Fetcher) Think(ctx context.Context, question string) (string, error) {
	resp, err := f.provider.Completion(ctx, f.params(question))
	if err != nil {
		return "", err
	}

	content, ok := resp.FirstContent()
	if !ok {
		return "", errors.NewEmptyCompletionError(f.provider.Name())
	}

	f.logCompletion(resp)

	return content, nil
}

// ThinkStream sends question and writes content to w as it arrives.
// It returns the full content. Providers that cannot stream fall back to Think.
func (f *Fetcher) ThinkStream(ctx context.Context, question string, w io.Writer) (string, error) {
	sp, ok := f.provider.(providers.StreamingProvider)
	if !ok || !providers.SupportsStreaming(f.provider) {
		content, err := f.Think(ctx, question)
		if err != nil {
			return "", err
		}
		if _, err := io.WriteString(w, content); err != nil {
			return "", fmt.Errorf("write content: %w", err)
		}
		return content, nil
	}

	params := f.params(question)
	params.Stream = true

	chunks, errs := sp.CompletionStream(ctx, params)

	var content, reasoning strings.Builder
	var writeErr error
	for chunk := range chunks {
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Reasoning != nil {
			reasoning.WriteString(delta.Reasoning.Content)
		}
		if delta.Content == "" || writeErr != nil {
			continue
		}

		content.WriteString(delta.Content)
		if _, err := io.WriteString(w, delta.Content); err != nil {
			writeErr = fmt.Errorf("write content: %w", err)
		}
	}

	if err := <-errs; err != nil {
		return "", err
	}
	if writeErr != nil {
		return "", writeErr
	}

	if reasoning.Len() > 0 {
		f.logger.Debug("reasoning_received",
			"provider", f.provider.Name(),
			"model", f.model,
			"reasoning", reasoning.String(),
		)
	}

	return content.String(), nil
}

// Answer sends the thinking and the question to the answer model and returns
// its first choice's content. It fails unless WithAnswer was given.
func (f *Fetcher) Answer(ctx context.Context, thinking, question string) (string, error) {
	if f.answerProvider == nil {
		return "", fmt.Errorf("answer step is not configured")
	}

	resp, err := f.answerProvider.Completion(ctx, providers.CompletionParams{
		Model: f.answerModel,
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: FormatPrompt(thinking, question)},
		},
	})
	if err != nil {
		return "", err
	}

	content, ok := resp.FirstContent()
	if !ok {
		return "", errors.NewEmptyCompletionError(f.answerProvider.Name())
	}

	return content, nil
}

func (f *Fetcher) logCompletion(resp *providers.ChatCompletion) {
	attrs := []any{
		"provider", f.provider.Name(),
		"model", resp.Model,
		"finish_reason", resp.Choices[0].FinishReason,
	}
	if resp.Usage != nil {
		attrs = append(attrs,
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
		)
	}
	f.logger.Debug("completion_received", attrs...)

	if r := resp.Choices[0].Message.Reasoning; r != nil && r.Content != "" {
		f.logger.Debug("reasoning_received",
			"provider", f.provider.Name(),
			"model", resp.Model,
			"reasoning", r.Content,
		)
	}
}
