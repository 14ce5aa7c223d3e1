package huggingface

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/errors"
	"github.com/oieieio/think-tools/internal/testutil"
)

func TestNew(t *testing.T) {
	t.Run("creates provider with API key", func(t *testing.T) {
		provider, err := New(config.WithAPIKey("hf_test"))
		require.NoError(t, err)
		require.Equal(t, "huggingface", provider.Name())
	})

	t.Run("reads HF_TOKEN", func(t *testing.T) {
		t.Setenv(envAPIKey, "hf_env")
		t.Setenv(envAPIKeyHub, "")

		provider, err := New()
		require.NoError(t, err)
		require.NotNil(t, provider)
	})

	t.Run("falls back to HUGGING_FACE_HUB_TOKEN", func(t *testing.T) {
		t.Setenv(envAPIKey, "")
		t.Setenv(envAPIKeyHub, "hf_hub")

		provider, err := New()
		require.NoError(t, err)
		require.NotNil(t, provider)
	})

	t.Run("returns error when no token is set", func(t *testing.T) {
		t.Setenv(envAPIKey, "")
		t.Setenv(envAPIKeyHub, "")

		provider, err := New()
		require.Nil(t, provider)

		var missingKeyErr *errors.MissingAPIKeyError
		require.ErrorAs(t, err, &missingKeyErr)
		require.Equal(t, "huggingface", missingKeyErr.Provider)
		require.Equal(t, envAPIKey, missingKeyErr.EnvVar)
	})
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	provider, err := New(config.WithAPIKey("hf_test"))
	require.NoError(t, err)

	caps := provider.Capabilities()
	require.True(t, caps.Completion)
	require.True(t, caps.CompletionReasoning)
	require.True(t, caps.CompletionStreaming)
}

func TestCompletionAgainstRouter(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		gotAuth string
		gotPath string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"Let me think"},"finish_reason":"stop"}]}`)
	}))
	t.Cleanup(srv.Close)

	provider, err := New(config.WithAPIKey("hf_test"), config.WithBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	resp, err := provider.Completion(context.Background(), testutil.ThinkingParams("deepseek-ai/DeepSeek-R1"))
	require.NoError(t, err)

	content, ok := resp.FirstContent()
	require.True(t, ok)
	require.Equal(t, "Let me think", content)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "Bearer hf_test", gotAuth)
	require.Equal(t, "/v1/chat/completions", gotPath)
}

// Integration tests - only run if API key is available.

func TestIntegrationThinkingCompletion(t *testing.T) {
	if testutil.SkipIfNoAPIKey(providerName) {
		t.Skip("HF_TOKEN not set")
	}

	provider, err := New(testutil.ClientOptions(providerName)...)
	require.NoError(t, err)

	resp, err := provider.Completion(context.Background(), testutil.ThinkingParams(testutil.ReasoningModel(providerName)))
	require.NoError(t, err)

	content, ok := resp.FirstContent()
	require.True(t, ok)
	require.NotContains(t, content, testutil.StopThinking)
}
