// Package thinktools exposes the provider registry and re-exports the common
// types used by the think-tools commands, so most callers need two imports:
//
//	import (
//	    thinktools "github.com/oieieio/think-tools"
//	    _ "github.com/oieieio/think-tools/providers/together"
//	)
//
//	provider, err := thinktools.NewProvider("together", thinktools.WithAPIKey("..."))
//	response, err := provider.Completion(ctx, thinktools.CompletionParams{
//	    Model: "deepseek-ai/DeepSeek-R1",
//	    Messages: []thinktools.Message{
//	        {Role: thinktools.RoleUser, Content: "What is 17 * 23?"},
//	    },
//	    Stop: []string{"</think>"},
//	})
package thinktools

import (
	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/errors"
	"github.com/oieieio/think-tools/providers"
)

// Message roles.
const (
	RoleAssistant = providers.RoleAssistant
	RoleSystem    = providers.RoleSystem
	RoleUser      = providers.RoleUser
)

// Finish reasons.
const (
	FinishReasonContentFilter = providers.FinishReasonContentFilter
	FinishReasonLength        = providers.FinishReasonLength
	FinishReasonStop          = providers.FinishReasonStop
)

// ReasoningEffort levels.
const (
	ReasoningEffortAuto   = providers.ReasoningEffortAuto
	ReasoningEffortHigh   = providers.ReasoningEffortHigh
	ReasoningEffortLow    = providers.ReasoningEffortLow
	ReasoningEffortMedium = providers.ReasoningEffortMedium
	ReasoningEffortNone   = providers.ReasoningEffortNone
)

// Provider types.
type (
	Capabilities       = providers.Capabilities
	CapabilityProvider = providers.CapabilityProvider
	Provider           = providers.Provider
	StreamingProvider  = providers.StreamingProvider
)

// Request/Response types.
type (
	ChatCompletion      = providers.ChatCompletion
	ChatCompletionChunk = providers.ChatCompletionChunk
	Choice              = providers.Choice
	ChunkChoice         = providers.ChunkChoice
	ChunkDelta          = providers.ChunkDelta
	CompletionParams    = providers.CompletionParams
	Message             = providers.Message
	Reasoning           = providers.Reasoning
	ReasoningEffort     = providers.ReasoningEffort
	StreamOptions       = providers.StreamOptions
	Usage               = providers.Usage
)

// Config types.
type (
	Config = config.Config
	Option = config.Option
)

// Configuration options.
var (
	NewConfig      = config.New
	WithAPIKey     = config.WithAPIKey
	WithBaseURL    = config.WithBaseURL
	WithExtra      = config.WithExtra
	WithHTTPClient = config.WithHTTPClient
	WithLogger     = config.WithLogger
	WithTimeout    = config.WithTimeout
)

// Sentinel errors for type checking with errors.Is().
var (
	ErrAuthentication      = errors.ErrAuthentication
	ErrContentFilter       = errors.ErrContentFilter
	ErrContextLength       = errors.ErrContextLength
	ErrDatasetNotFound     = errors.ErrDatasetNotFound
	ErrEmptyCompletion     = errors.ErrEmptyCompletion
	ErrInvalidRequest      = errors.ErrInvalidRequest
	ErrMissingAPIKey       = errors.ErrMissingAPIKey
	ErrModelNotFound       = errors.ErrModelNotFound
	ErrProvider            = errors.ErrProvider
	ErrRateLimit           = errors.ErrRateLimit
	ErrSource              = errors.ErrSource
	ErrUnsupportedProvider = errors.ErrUnsupportedProvider
)

// Error types.
type (
	AuthenticationError      = errors.AuthenticationError
	BaseError                = errors.BaseError
	ContentFilterError       = errors.ContentFilterError
	ContextLengthError       = errors.ContextLengthError
	DatasetNotFoundError     = errors.DatasetNotFoundError
	EmptyCompletionError     = errors.EmptyCompletionError
	InvalidRequestError      = errors.InvalidRequestError
	MissingAPIKeyError       = errors.MissingAPIKeyError
	ModelNotFoundError       = errors.ModelNotFoundError
	ProviderError            = errors.ProviderError
	RateLimitError           = errors.RateLimitError
	SourceError              = errors.SourceError
	UnsupportedProviderError = errors.UnsupportedProviderError
)
