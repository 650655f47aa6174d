package tune

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/joshuawatkins04/tune_sdk/config"
)

// Sentinel errors for the three failure kinds and common remote conditions.
var (
	// ErrConfig indicates a missing or invalid SDK configuration, such as the API key.
	ErrConfig = errors.New("tune: configuration error")

	// ErrValidation indicates a missing or invalid request parameter.
	ErrValidation = errors.New("tune: validation error")

	// ErrRemote indicates the API call failed: transport failure, non-success
	// status, or a malformed envelope.
	ErrRemote = errors.New("tune: remote error")

	// ErrMalformedEnvelope indicates the response body is not a valid API envelope.
	ErrMalformedEnvelope = errors.New("tune: malformed response envelope")

	// ErrUnauthorized indicates an invalid or missing API key.
	ErrUnauthorized = errors.New("tune: unauthorized")

	// ErrRateLimited indicates the request was rate limited.
	ErrRateLimited = errors.New("tune: rate limited")

	// ErrExportFailed indicates the export job finished in a failed state.
	ErrExportFailed = errors.New("tune: export failed")
)

// ErrorDetail is a single entry of the envelope's "errors" array.
type ErrorDetail struct {
	Message string `json:"message"`
}

// ConfigError represents an invalid SDK configuration.
type ConfigError struct {
	// Field is the configuration key at fault.
	Field string
	// Message is the human-readable error message.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tune: configuration error: %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("tune: configuration error: %s: %s", e.Field, e.Message)
}

// Is implements errors.Is support.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ValidationError represents a client-side parameter validation error.
// It wraps failures from the internal validation package and provides a
// consistent public error type.
type ValidationError struct {
	// Field is the name of the parameter that failed validation.
	Field string
	// Message is the human-readable error message.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tune: validation error: %s: %s", e.Field, e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// APIError represents a failed API call: a non-success HTTP status, a non-success
// envelope status, or a body that is not a valid envelope.
type APIError struct {
	// Label names the operation, e.g. "advertiser/stats/installs/count".
	Label string
	// HTTPStatus is the transport status code.
	HTTPStatus int
	// StatusCode is the envelope status_code, zero when absent.
	StatusCode int
	// Message is the human-readable error message.
	Message string
	// Errors holds the envelope's error entries.
	Errors []ErrorDetail
	// RequestID is the identifier sent in X-Request-ID (for support).
	RequestID string
	// Err is the underlying cause, such as ErrMalformedEnvelope.
	Err error
}

func (e *APIError) Error() string {
	msg := e.Message
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, d := range e.Errors {
			parts = append(parts, d.Message)
		}
		msg = msg + ": " + strings.Join(parts, "; ")
	}
	if e.RequestID != "" {
		return fmt.Sprintf("tune: %s: %s (status=%d, request_id=%s)",
			e.Label, msg, e.HTTPStatus, e.RequestID)
	}
	return fmt.Sprintf("tune: %s: %s (status=%d)", e.Label, msg, e.HTTPStatus)
}

// Is implements errors.Is support for sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRemote:
		return true
	case ErrUnauthorized:
		return e.HTTPStatus == http.StatusUnauthorized || e.StatusCode == http.StatusUnauthorized
	case ErrRateLimited:
		return e.HTTPStatus == http.StatusTooManyRequests || e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NetworkError wraps network-related errors.
type NetworkError struct {
	Op  string // Operation that failed, e.g. "request" or "download"
	Err error  // Underlying error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("tune: network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *NetworkError) Is(target error) bool {
	return target == ErrRemote
}

// IsConfigError reports whether the error is a configuration error, including
// errors returned by config.Load and config.Parse.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig) || errors.Is(err, config.ErrInvalidConfig)
}

// IsValidationError reports whether the error is a client-side validation error.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsRemoteError reports whether the error came from the remote call.
func IsRemoteError(err error) bool {
	return errors.Is(err, ErrRemote)
}

// IsUnauthorized reports whether the error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRateLimited reports whether the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
