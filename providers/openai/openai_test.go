package openai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/errors"
	"github.com/oieieio/think-tools/internal/testutil"
	"github.com/oieieio/think-tools/providers"
)

func TestNew(t *testing.T) {
	t.Run("creates provider with API key", func(t *testing.T) {
		provider, err := New(config.WithAPIKey("test-api-key"))
		require.NoError(t, err)
		assert.NotNil(t, provider)
		assert.Equal(t, "openai", provider.Name())
	})

	t.Run("creates provider from environment variable", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "env-api-key")

		provider, err := New()
		require.NoError(t, err)
		assert.NotNil(t, provider)
	})

	t.Run("returns error when API key is missing", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")

		provider, err := New()
		assert.Nil(t, provider)
		assert.Error(t, err)

		var missingKeyErr *errors.MissingAPIKeyError
		assert.ErrorAs(t, err, &missingKeyErr)
		assert.Equal(t, "openai", missingKeyErr.Provider)
		assert.Equal(t, "OPENAI_API_KEY", missingKeyErr.EnvVar)
	})
}

func TestCapabilities(t *testing.T) {
	provider, err := New(config.WithAPIKey("test-key"))
	require.NoError(t, err)

	caps := provider.Capabilities()

	assert.True(t, caps.Completion)
	assert.True(t, caps.CompletionStreaming)
	assert.True(t, caps.CompletionReasoning)
}

func TestConvertParams(t *testing.T) {
	t.Run("converts basic params", func(t *testing.T) {
		params := providers.CompletionParams{
			Model: "gpt-4",
			Messages: []providers.Message{
				{Role: providers.RoleUser, Content: "Hello"},
			},
		}

		req := convertParams(params)

		assert.Equal(t, "gpt-4", string(req.Model))
		assert.Len(t, req.Messages, 1)
		assert.Nil(t, req.Stop.OfStringArray)
	})

	t.Run("converts temperature and top_p", func(t *testing.T) {
		temp := 0.7
		topP := 0.9
		params := providers.CompletionParams{
			Model:       "gpt-4",
			Messages:    testutil.SimpleMessages(),
			Temperature: &temp,
			TopP:        &topP,
		}

		req := convertParams(params)

		assert.Equal(t, 0.7, req.Temperature.Value)
		assert.Equal(t, 0.9, req.TopP.Value)
	})

	t.Run("converts max_tokens", func(t *testing.T) {
		maxTokens := 100
		params := providers.CompletionParams{
			Model:     "gpt-4",
			Messages:  testutil.SimpleMessages(),
			MaxTokens: &maxTokens,
		}

		req := convertParams(params)

		assert.Equal(t, int64(100), req.MaxCompletionTokens.Value)
	})

	t.Run("converts stop sequences", func(t *testing.T) {
		req := convertParams(testutil.ThinkingParams("gpt-4"))

		assert.Equal(t, []string{"</think>"}, req.Stop.OfStringArray)
	})

	t.Run("converts reasoning_effort", func(t *testing.T) {
		params := providers.CompletionParams{
			Model:           "o4-mini",
			Messages:        testutil.SimpleMessages(),
			ReasoningEffort: providers.ReasoningEffortHigh,
		}

		req := convertParams(params)

		assert.Equal(t, "high", string(req.ReasoningEffort))
	})

	t.Run("omits reasoning_effort none", func(t *testing.T) {
		params := providers.CompletionParams{
			Model:           "o4-mini",
			Messages:        testutil.SimpleMessages(),
			ReasoningEffort: providers.ReasoningEffortNone,
		}

		req := convertParams(params)

		assert.Empty(t, string(req.ReasoningEffort))
	})

	t.Run("converts seed", func(t *testing.T) {
		seed := 42
		params := providers.CompletionParams{
			Model:    "gpt-4",
			Messages: testutil.SimpleMessages(),
			Seed:     &seed,
		}

		req := convertParams(params)

		assert.Equal(t, int64(42), req.Seed.Value)
	})

	t.Run("converts user", func(t *testing.T) {
		params := providers.CompletionParams{
			Model:    "gpt-4",
			Messages: testutil.SimpleMessages(),
			User:     "test-user",
		}

		req := convertParams(params)

		assert.Equal(t, "test-user", req.User.Value)
	})

	t.Run("converts stream options", func(t *testing.T) {
		params := providers.CompletionParams{
			Model:         "gpt-4",
			Messages:      testutil.SimpleMessages(),
			StreamOptions: &providers.StreamOptions{IncludeUsage: true},
		}

		req := convertParams(params)

		assert.True(t, req.StreamOptions.IncludeUsage.Value)
	})
}

func TestConvertMessage(t *testing.T) {
	t.Run("converts system message", func(t *testing.T) {
		msg, err := convertMessage(providers.Message{Role: providers.RoleSystem, Content: "You are helpful."})
		require.NoError(t, err)
		assert.NotNil(t, msg.OfSystem)
	})

	t.Run("converts user message", func(t *testing.T) {
		msg, err := convertMessage(providers.Message{Role: providers.RoleUser, Content: "Hello"})
		require.NoError(t, err)
		assert.NotNil(t, msg.OfUser)
	})

	t.Run("converts assistant message", func(t *testing.T) {
		msg, err := convertMessage(providers.Message{Role: providers.RoleAssistant, Content: "Hi"})
		require.NoError(t, err)
		assert.NotNil(t, msg.OfAssistant)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := convertMessage(providers.Message{Role: "function", Content: "Hi"})
		assert.Error(t, err)
	})
}

// Integration tests - only run if API key is available.

func TestIntegrationCompletion(t *testing.T) {
	if testutil.SkipIfNoAPIKey("openai") {
		t.Skip("OPENAI_API_KEY not set")
	}

	provider, err := New()
	require.NoError(t, err)

	ctx := context.Background()
	params := providers.CompletionParams{
		Model:    testutil.TestModel("openai"),
		Messages: testutil.SimpleMessages(),
	}

	resp, err := provider.Completion(ctx, params)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "chat.completion", resp.Object)
	assert.Len(t, resp.Choices, 1)
	assert.NotEmpty(t, resp.Choices[0].Message.Content)
	assert.Equal(t, providers.RoleAssistant, resp.Choices[0].Message.Role)
	assert.NotNil(t, resp.Usage)
	assert.Greater(t, resp.Usage.TotalTokens, 0)
}

func TestIntegrationCompletionStream(t *testing.T) {
	if testutil.SkipIfNoAPIKey("openai") {
		t.Skip("OPENAI_API_KEY not set")
	}

	provider, err := New()
	require.NoError(t, err)

	ctx := context.Background()
	params := providers.CompletionParams{
		Model:    testutil.TestModel("openai"),
		Messages: testutil.SimpleMessages(),
		Stream:   true,
	}

	chunks, errs := provider.CompletionStream(ctx, params)

	var content strings.Builder
	chunkCount := 0

	for chunk := range chunks {
		chunkCount++
		assert.Equal(t, "chat.completion.chunk", chunk.Object)
		if len(chunk.Choices) > 0 {
			content.WriteString(chunk.Choices[0].Delta.Content)
		}
	}

	err = <-errs
	require.NoError(t, err)

	assert.Greater(t, chunkCount, 0)
	assert.NotEmpty(t, content.String())
}

func TestIntegrationAuthenticationError(t *testing.T) {
	if testutil.SkipIfNoAPIKey("openai") {
		t.Skip("OPENAI_API_KEY not set")
	}

	provider, err := New(config.WithAPIKey("invalid-key"))
	require.NoError(t, err)

	_, err = provider.Completion(context.Background(), providers.CompletionParams{
		Model:    testutil.TestModel("openai"),
		Messages: testutil.SimpleMessages(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAuthentication)
}
