// Package errors defines the error taxonomy shared by the dataset sources and
// the completion providers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes used in BaseError.Code field.
const (
	CodeAuthError           = "auth_error"
	CodeContentFilter       = "content_filter"
	CodeContextLength       = "context_length_exceeded"
	CodeDatasetNotFound     = "dataset_not_found"
	CodeEmptyCompletion     = "empty_completion"
	CodeInvalidRequest      = "invalid_request"
	CodeMissingAPIKey       = "missing_api_key"
	CodeModelNotFound       = "model_not_found"
	CodeProviderError       = "provider_error"
	CodeRateLimit           = "rate_limit"
	CodeSourceError         = "source_error"
	CodeUnsupportedProvider = "unsupported_provider"
)

// Sentinel errors for type checking with errors.Is().
var (
	ErrAuthentication      = stderrors.New("authentication failed")
	ErrContentFilter       = stderrors.New("content filtered")
	ErrContextLength       = stderrors.New("context length exceeded")
	ErrDatasetNotFound     = stderrors.New("dataset not found")
	ErrEmptyCompletion     = stderrors.New("completion has no choices")
	ErrInvalidRequest      = stderrors.New("invalid request")
	ErrMissingAPIKey       = stderrors.New("missing API key")
	ErrModelNotFound       = stderrors.New("model not found")
	ErrProvider            = stderrors.New("provider error")
	ErrRateLimit           = stderrors.New("rate limit exceeded")
	ErrSource              = stderrors.New("dataset source error")
	ErrUnsupportedProvider = stderrors.New("unsupported provider")
)

// BaseError is the base error type for all think-tools errors.
// It wraps the original error and records where it came from.
type BaseError struct {
	// Code is a short error code (e.g., "rate_limit", "dataset_not_found").
	Code string

	// Provider is the name of the completion provider or dataset source
	// that produced the error.
	Provider string

	// Err is the underlying error.
	Err error

	// sentinel is the sentinel error for errors.Is() matching.
	sentinel error
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Is allows checking error types with errors.Is().
func (e *BaseError) Is(target error) bool {
	return e.sentinel != nil && target == e.sentinel
}

// Unwrap returns the underlying error for errors.Is() and errors.As().
func (e *BaseError) Unwrap() error {
	return e.Err
}

// AuthenticationError is returned when the remote service rejects the credentials.
type AuthenticationError struct {
	BaseError
}

// ContentFilterError is returned when content is blocked by safety filters.
type ContentFilterError struct {
	BaseError
}

// ContextLengthError is returned when the prompt exceeds the model's limit.
type ContextLengthError struct {
	BaseError
}

// DatasetNotFoundError is returned when a dataset, config or split does not exist.
type DatasetNotFoundError struct {
	BaseError
	Dataset string
}

// EmptyCompletionError is returned when a completion carries no choices to read.
type EmptyCompletionError struct {
	BaseError
}

// InvalidRequestError is returned when the request is malformed.
type InvalidRequestError struct {
	BaseError
}

// MissingAPIKeyError is returned when no API key is provided.
type MissingAPIKeyError struct {
	BaseError
	EnvVar string // The environment variable that should contain the key
}

// ModelNotFoundError is returned when the requested model doesn't exist.
type ModelNotFoundError struct {
	BaseError
}

// ProviderError is returned for general provider-side errors.
type ProviderError struct {
	BaseError
	StatusCode int
}

// RateLimitError is returned when the API rate limit is exceeded.
type RateLimitError struct {
	BaseError
	RetryAfter int // Seconds until retry is allowed, if known
}

// SourceError is returned for transport or decoding failures of a dataset source.
type SourceError struct {
	BaseError
	StatusCode int
}

// UnsupportedProviderError is returned when the provider is not registered.
type UnsupportedProviderError struct {
	BaseError
}

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(provider string, err error) *AuthenticationError {
	return &AuthenticationError{
		BaseError: BaseError{
			Code:     CodeAuthError,
			Provider: provider,
			Err:      err,
			sentinel: ErrAuthentication,
		},
	}
}

// NewContentFilterError creates a new ContentFilterError.
func NewContentFilterError(provider string, err error) *ContentFilterError {
	return &ContentFilterError{
		BaseError: BaseError{
			Code:     CodeContentFilter,
			Provider: provider,
			Err:      err,
			sentinel: ErrContentFilter,
		},
	}
}

// NewContextLengthError creates a new ContextLengthError.
func NewContextLengthError(provider string, err error) *ContextLengthError {
	return &ContextLengthError{
		BaseError: BaseError{
			Code:     CodeContextLength,
			Provider: provider,
			Err:      err,
			sentinel: ErrContextLength,
		},
	}
}

// NewDatasetNotFoundError creates a new DatasetNotFoundError.
func NewDatasetNotFoundError(source, dataset string, err error) *DatasetNotFoundError {
	return &DatasetNotFoundError{
		BaseError: BaseError{
			Code:     CodeDatasetNotFound,
			Provider: source,
			Err:      err,
			sentinel: ErrDatasetNotFound,
		},
		Dataset: dataset,
	}
}

// NewEmptyCompletionError creates a new EmptyCompletionError.
func NewEmptyCompletionError(provider string) *EmptyCompletionError {
	return &EmptyCompletionError{
		BaseError: BaseError{
			Code:     CodeEmptyCompletion,
			Provider: provider,
			Err:      fmt.Errorf("response contained no choices"),
			sentinel: ErrEmptyCompletion,
		},
	}
}

// NewInvalidRequestError creates a new InvalidRequestError.
func NewInvalidRequestError(provider string, err error) *InvalidRequestError {
	return &InvalidRequestError{
		BaseError: BaseError{
			Code:     CodeInvalidRequest,
			Provider: provider,
			Err:      err,
			sentinel: ErrInvalidRequest,
		},
	}
}

// NewMissingAPIKeyError creates a new MissingAPIKeyError.
func NewMissingAPIKeyError(provider string, envVar string) *MissingAPIKeyError {
	return &MissingAPIKeyError{
		BaseError: BaseError{
			Code:     CodeMissingAPIKey,
			Provider: provider,
			Err: fmt.Errorf(
				"API key not provided. Set %s environment variable or pass WithAPIKey option",
				envVar,
			),
			sentinel: ErrMissingAPIKey,
		},
		EnvVar: envVar,
	}
}

// NewModelNotFoundError creates a new ModelNotFoundError.
func NewModelNotFoundError(provider string, err error) *ModelNotFoundError {
	return &ModelNotFoundError{
		BaseError: BaseError{
			Code:     CodeModelNotFound,
			Provider: provider,
			Err:      err,
			sentinel: ErrModelNotFound,
		},
	}
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		BaseError: BaseError{
			Code:     CodeProviderError,
			Provider: provider,
			Err:      err,
			sentinel: ErrProvider,
		},
	}
}

// NewRateLimitError creates a new RateLimitError.
func NewRateLimitError(provider string, err error) *RateLimitError {
	return &RateLimitError{
		BaseError: BaseError{
			Code:     CodeRateLimit,
			Provider: provider,
			Err:      err,
			sentinel: ErrRateLimit,
		},
	}
}

// NewSourceError creates a new SourceError.
func NewSourceError(source string, statusCode int, err error) *SourceError {
	return &SourceError{
		BaseError: BaseError{
			Code:     CodeSourceError,
			Provider: source,
			Err:      err,
			sentinel: ErrSource,
		},
		StatusCode: statusCode,
	}
}

// NewUnsupportedProviderError creates a new UnsupportedProviderError.
func NewUnsupportedProviderError(provider string) *UnsupportedProviderError {
	return &UnsupportedProviderError{
		BaseError: BaseError{
			Code:     CodeUnsupportedProvider,
			Provider: provider,
			Err:      fmt.Errorf("provider %q is not supported", provider),
			sentinel: ErrUnsupportedProvider,
		},
	}
}
