// Package config holds provider options and the settings file shared by the
// think-tools commands.
package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds a single provider request when no timeout is configured.
const DefaultTimeout = 120 * time.Second

// Config holds the configuration for a provider.
type Config struct {
	// APIKey is the API key for authentication.
	APIKey string

	// BaseURL is the base URL for the API. If empty, the provider's default is used.
	BaseURL string

	// Extra holds provider-specific configuration options.
	Extra map[string]any

	// Timeout is the request timeout. If zero, a default timeout is used.
	Timeout time.Duration

	// httpClient is a custom HTTP client. Access via HTTPClient() method which
	// handles lazy creation with the configured Timeout if not explicitly set on the client.
	httpClient     *http.Client
	httpClientOnce sync.Once

	logger *slog.Logger
}

// Option is a function that modifies the Config.
type Option func(*Config) error

// New creates a Config with the given options applied.
// The HTTP client is created lazily by HTTPClient() so that a later WithTimeout
// is still honoured.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		Timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// WithAPIKey sets the API key. Whitespace is automatically trimmed.
func WithAPIKey(key string) Option {
	return func(c *Config) error {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("API key cannot be empty")
		}

		c.APIKey = key
		return nil
	}
}

// WithBaseURL sets the base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Config) error {
		baseURL = strings.TrimSpace(baseURL)
		if baseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}

		if err := validateURL(baseURL); err != nil {
			return err
		}

		c.BaseURL = baseURL
		return nil
	}
}

// WithExtra sets extra provider-specific configuration.
// Whitespace is automatically trimmed from the key.
func WithExtra(key string, value any) Option {
	return func(c *Config) error {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("extra key cannot be empty")
		}

		if c.Extra == nil {
			c.Extra = make(map[string]any)
		}

		c.Extra[key] = value
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client.
// A custom client manages its own timeout, so Timeout is ignored for HTTP requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}

		c.httpClient = client
		return nil
	}
}

// WithLogger sets the logger providers use for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}

		c.logger = logger
		return nil
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}

		c.Timeout = d
		return nil
	}
}

// ExtraString retrieves a provider-specific string value, or "" when unset.
func (c *Config) ExtraString(key string) string {
	v, ok := c.ExtraValue(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// ExtraValue retrieves a provider-specific configuration value.
func (c *Config) ExtraValue(key string) (any, bool) {
	if c.Extra == nil {
		return nil, false
	}

	v, ok := c.Extra[key]
	return v, ok
}

// HTTPClient returns the configured HTTP client, or lazily creates one using
// the configured Timeout if no custom client was provided via WithHTTPClient.
// The lazily-created client is cached and reused on subsequent calls.
func (c *Config) HTTPClient() *http.Client {
	c.httpClientOnce.Do(func() {
		if c.httpClient == nil {
			c.httpClient = &http.Client{Timeout: c.Timeout}
		}
	})

	return c.httpClient
}

// Logger returns the configured logger, falling back to slog.Default().
func (c *Config) Logger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// ResolveAPIKey returns the API key from config if set, otherwise falls back
// to the first non-empty environment variable in envVars.
func (c *Config) ResolveAPIKey(envVars ...string) string {
	if c.APIKey != "" {
		return c.APIKey
	}

	for _, envVar := range envVars {
		if v := c.ResolveEnv(envVar); v != "" {
			return v
		}
	}

	return ""
}

// ResolveEnv returns the value of the specified environment variable,
// trimming whitespace. Returns empty string if the variable is not set or empty.
func (c *Config) ResolveEnv(envVar string) string {
	if envVar == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(envVar))
}

// ResolveBaseURL resolves the base URL from config, environment variable, or default value.
// It validates that the resolved URL has a scheme and host.
func (c *Config) ResolveBaseURL(envVar, defaultVal string) (string, error) {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = c.ResolveEnv(envVar)
	}
	if baseURL == "" {
		baseURL = defaultVal
	}

	if baseURL == "" {
		return "", nil
	}

	baseURL = strings.TrimSpace(baseURL)
	if err := validateURL(baseURL); err != nil {
		return "", err
	}

	return baseURL, nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", raw, err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("base URL %q must have scheme and host", raw)
	}

	return nil
}
