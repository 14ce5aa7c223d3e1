package thinking

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oieieio/think-tools/errors"
	"github.com/oieieio/think-tools/internal/testutil"
	"github.com/oieieio/think-tools/providers"
)

const (
	testModel    = "deepseek-ai/DeepSeek-R1"
	testQuestion = "Ask question here"
)

func TestThinkingParams(t *testing.T) {
	t.Parallel()

	params := ThinkingParams(testModel, testQuestion)

	require.Equal(t, testModel, params.Model)
	require.Len(t, params.Messages, 1)
	require.Equal(t, providers.RoleUser, params.Messages[0].Role)
	require.Equal(t, testQuestion, params.Messages[0].Content)
	require.Equal(t, []string{"</think>"}, params.Stop)
	require.False(t, params.Stream)
}

func TestNewFetcher(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockProvider()

	tests := []struct {
		name    string
		p       providers.Provider
		model   string
		opts    []Option
		wantErr string
	}{
		{name: "valid", p: mock, model: testModel},
		{name: "nil provider", p: nil, model: testModel, wantErr: "provider cannot be nil"},
		{name: "empty model", p: mock, model: " ", wantErr: "model cannot be empty"},
		{name: "empty stop", p: mock, model: testModel, opts: []Option{WithStop("")}, wantErr: "stop sequence cannot be empty"},
		{name: "nil answer provider", p: mock, model: testModel, opts: []Option{WithAnswer(nil, "m")}, wantErr: "answer provider cannot be nil"},
		{name: "empty answer model", p: mock, model: testModel, opts: []Option{WithAnswer(mock, "")}, wantErr: "answer model cannot be empty"},
		{name: "nil logger", p: mock, model: testModel, opts: []Option{WithLogger(nil)}, wantErr: "logger cannot be nil"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f, err := NewFetcher(tc.p, tc.model, tc.opts...)
			if tc.wantErr != "" {
				require.EqualError(t, err, tc.wantErr)
				require.Nil(t, f)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, f)
		})
	}
}

func TestThink(t *testing.T) {
	t.Parallel()

	t.Run("sends one user message with the stop marker", func(t *testing.T) {
		t.Parallel()

		mock := testutil.NewMockProvider()
		mock.CompletionFunc = func(_ context.Context, _ providers.CompletionParams) (*providers.ChatCompletion, error) {
			return testutil.MockChatCompletion("<think>\n17 * 23 = 391\n"), nil
		}

		f, err := NewFetcher(mock, testModel)
		require.NoError(t, err)

		content, err := f.Think(context.Background(), testQuestion)
		require.NoError(t, err)
		require.Equal(t, "<think>\n17 * 23 = 391\n", content)

		require.Len(t, mock.CompletionCalls, 1)
		params := mock.CompletionCalls[0]
		require.Equal(t, testModel, params.Model)
		require.Len(t, params.Messages, 1)
		require.Equal(t, providers.RoleUser, params.Messages[0].Role)
		require.Equal(t, testQuestion, params.Messages[0].Content)
		require.Equal(t, []string{StopThinking}, params.Stop)
	})

	t.Run("custom stop sequence", func(t *testing.T) {
		t.Parallel()

		mock := testutil.NewMockProvider()
		f, err := NewFetcher(mock, testModel, WithStop("</reasoning>"))
		require.NoError(t, err)

		_, err = f.Think(context.Background(), testQuestion)
		require.NoError(t, err)
		require.Equal(t, []string{"</reasoning>"}, mock.CompletionCalls[0].Stop)
	})

	t.Run("no choices is an error", func(t *testing.T) {
		t.Parallel()

		mock := testutil.NewMockProvider()
		mock.CompletionFunc = func(context.Context, providers.CompletionParams) (*providers.ChatCompletion, error) {
			return testutil.MockEmptyCompletion(), nil
		}

		f, err := NewFetcher(mock, testModel)
		require.NoError(t, err)

		_, err = f.Think(context.Background(), testQuestion)
		require.ErrorIs(t, err, errors.ErrEmptyCompletion)
	})

	t.Run("provider error is returned unchanged", func(t *testing.T) {
		t.Parallel()

		want := errors.NewRateLimitError("mock", fmt.Errorf("slow down"))
		mock := testutil.NewMockProvider()
		mock.CompletionFunc = func(context.Context, providers.CompletionParams) (*providers.ChatCompletion, error) {
			return nil, want
		}

		f, err := NewFetcher(mock, testModel)
		require.NoError(t, err)

		_, err = f.Think(context.Background(), testQuestion)
		require.Same(t, want, err)
	})

	t.Run("reasoning is logged at debug", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

		mock := testutil.NewMockProvider()
		mock.CompletionFunc = func(context.Context, providers.CompletionParams) (*providers.ChatCompletion, error) {
			return testutil.MockChatCompletionWithReasoning("391", "multiply tens then units"), nil
		}

		f, err := NewFetcher(mock, testModel, WithLogger(logger))
		require.NoError(t, err)

		content, err := f.Think(context.Background(), testQuestion)
		require.NoError(t, err)
		require.Equal(t, "391", content)
		require.Contains(t, logs.String(), "msg=reasoning_received")
		require.Contains(t, logs.String(), "multiply tens then units")
		require.Contains(t, logs.String(), "completion_tokens=50")
	})
}

func TestThinkStream(t *testing.T) {
	t.Parallel()

	t.Run("writes deltas as they arrive", func(t *testing.T) {
		t.Parallel()

		mock := testutil.NewMockProvider()
		mock.CompletionStreamFunc = func(_ context.Context, params providers.CompletionParams) (<-chan providers.ChatCompletionChunk, <-chan error) {
			return testutil.MockStream(params.Model, "<think>", "\n17 * 23", " = 391\n")
		}

		f, err := NewFetcher(mock, testModel)
		require.NoError(t, err)

		var out bytes.Buffer
		content, err := f.ThinkStream(context.Background(), testQuestion, &out)
		require.NoError(t, err)
		require.Equal(t, "<think>\n17 * 23 = 391\n", content)
		require.Equal(t, content, out.String())

		require.Empty(t, mock.CompletionCalls)
		require.Len(t, mock.CompletionStreamCalls, 1)
		params := mock.CompletionStreamCalls[0]
		require.True(t, params.Stream)
		require.Len(t, params.Messages, 1)
		require.Equal(t, []string{StopThinking}, params.Stop)
	})

	t.Run("stream error is returned", func(t *testing.T) {
		t.Parallel()

		mock := testutil.NewMockProvider()
		mock.CompletionStreamFunc = func(context.Context, providers.CompletionParams) (<-chan providers.ChatCompletionChunk, <-chan error) {
			chunks := make(chan providers.ChatCompletionChunk)
			errs := make(chan error, 1)
			errs <- errors.NewAuthenticationError("mock", fmt.Errorf("bad token"))
			close(chunks)
			close(errs)
			return chunks, errs
		}

		f, err := NewFetcher(mock, testModel)
		require.NoError(t, err)

		var out bytes.Buffer
		_, err = f.ThinkStream(context.Background(), testQuestion, &out)
		require.ErrorIs(t, err, errors.ErrAuthentication)
	})

	t.Run("falls back when streaming is unsupported", func(t *testing.T) {
		t.Parallel()

		mock := testutil.NewMockProvider()
		mock.CapabilitiesFunc = func() providers.Capabilities {
			return providers.Capabilities{Completion: true}
		}

		f, err := NewFetcher(mock, testModel)
		require.NoError(t, err)

		var out bytes.Buffer
		content, err := f.ThinkStream(context.Background(), testQuestion, &out)
		require.NoError(t, err)
		require.Equal(t, "Hello World", content)
		require.Equal(t, "Hello World", out.String())
		require.Len(t, mock.CompletionCalls, 1)
		require.Empty(t, mock.CompletionStreamCalls)
	})
}

func TestAnswer(t *testing.T) {
	t.Parallel()

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()

		f, err := NewFetcher(testutil.NewMockProvider(), testModel)
		require.NoError(t, err)

		_, err = f.Answer(context.Background(), "thought", testQuestion)
		require.EqualError(t, err, "answer step is not configured")
	})

	t.Run("sends formatted prompt without stop", func(t *testing.T) {
		t.Parallel()

		thinker := testutil.NewMockProvider()
		answerer := testutil.NewMockProvider()
		answerer.CompletionFunc = func(context.Context, providers.CompletionParams) (*providers.ChatCompletion, error) {
			return testutil.MockChatCompletion("391"), nil
		}

		f, err := NewFetcher(thinker, testModel, WithAnswer(answerer, "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo"))
		require.NoError(t, err)

		answer, err := f.Answer(context.Background(), "17 * 23 = 391", "What is 17 * 23?")
		require.NoError(t, err)
		require.Equal(t, "391", answer)

		require.Empty(t, thinker.CompletionCalls)
		require.Len(t, answerer.CompletionCalls, 1)

		params := answerer.CompletionCalls[0]
		require.Equal(t, "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo", params.Model)
		require.Empty(t, params.Stop)
		require.Len(t, params.Messages, 1)
		require.Equal(t, providers.RoleUser, params.Messages[0].Role)
		require.Equal(t,
			"\nThought process: 17 * 23 = 391 </think>\nQuestion: What is 17 * 23?\nAnswer:\n",
			params.Messages[0].Content)
	})

	t.Run("empty answer", func(t *testing.T) {
		t.Parallel()

		answerer := testutil.NewMockProvider()
		answerer.CompletionFunc = func(context.Context, providers.CompletionParams) (*providers.ChatCompletion, error) {
			return testutil.MockEmptyCompletion(), nil
		}

		f, err := NewFetcher(testutil.NewMockProvider(), testModel, WithAnswer(answerer, "m"))
		require.NoError(t, err)

		_, err = f.Answer(context.Background(), "t", "q")
		require.ErrorIs(t, err, errors.ErrEmptyCompletion)
	})
}

func TestFormatPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		thinking string
		question string
		expected string
	}{
		{
			name:     "fills both fields",
			thinking: "add them",
			question: "1+1?",
			expected: "\nThought process: add them </think>\nQuestion: 1+1?\nAnswer:\n",
		},
		{
			name:     "placeholders in input are not expanded",
			thinking: "maybe {question}",
			question: "why {thinking_tokens}",
			expected: "\nThought process: maybe {question} </think>\nQuestion: why {thinking_tokens}\nAnswer:\n",
		},
		{
			name:     "empty fields",
			expected: "\nThought process:  </think>\nQuestion: \nAnswer:\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, FormatPrompt(tc.thinking, tc.question))
		})
	}
}
