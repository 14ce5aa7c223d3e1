package together

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	thinktools "github.com/oieieio/think-tools"
	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/errors"
	"github.com/oieieio/think-tools/internal/testutil"
	"github.com/oieieio/think-tools/providers"
)

func TestRegistered(t *testing.T) {
	t.Parallel()

	require.True(t, thinktools.IsRegistered(providerName))

	p, err := thinktools.NewProvider(providerName, config.WithAPIKey("test-key"))
	require.NoError(t, err)
	require.Equal(t, providerName, p.Name())
}

func TestNew(t *testing.T) {
	t.Run("creates provider with API key", func(t *testing.T) {
		provider, err := New(config.WithAPIKey("test-key"))
		require.NoError(t, err)
		require.Equal(t, "together", provider.Name())
	})

	t.Run("creates provider from environment variable", func(t *testing.T) {
		t.Setenv(envAPIKey, "env-key")

		provider, err := New()
		require.NoError(t, err)
		require.NotNil(t, provider)
	})

	t.Run("returns error when API key is missing", func(t *testing.T) {
		t.Setenv(envAPIKey, "")

		provider, err := New()
		require.Nil(t, provider)
		require.ErrorIs(t, err, errors.ErrMissingAPIKey)
	})

	t.Run("custom base URL from environment", func(t *testing.T) {
		t.Setenv(envAPIKey, "env-key")
		t.Setenv(envBaseURL, "http://proxy.local:8080/v1")

		provider, err := New()
		require.NoError(t, err)
		require.NotNil(t, provider)
	})
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	provider, err := New(config.WithAPIKey("test-key"))
	require.NoError(t, err)
	require.True(t, providers.SupportsStreaming(provider))
	require.True(t, providers.SupportsReasoning(provider))
}

// Integration tests - only run if API key is available.

func TestIntegrationCompletion(t *testing.T) {
	if testutil.SkipIfNoAPIKey(providerName) {
		t.Skip("TOGETHER_API_KEY not set")
	}

	provider, err := New()
	require.NoError(t, err)

	resp, err := provider.Completion(context.Background(), providers.CompletionParams{
		Model:    testutil.TestModel(providerName),
		Messages: testutil.SimpleMessages(),
	})
	require.NoError(t, err)

	content, ok := resp.FirstContent()
	require.True(t, ok)
	require.NotEmpty(t, content)
}
