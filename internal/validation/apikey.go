package validation

import (
	"errors"
	"regexp"
)

// Auth types accepted by the API. The auth type doubles as the query parameter name.
const (
	AuthTypeAPIKey       = "api_key"
	AuthTypeSessionToken = "session_token"
)

// placeholderAPIKey is the value shipped in sample configuration files.
const placeholderAPIKey = "API_KEY"

var apiKeyRegexp = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

var (
	// ErrAPIKeyEmpty indicates the API key is missing.
	ErrAPIKeyEmpty = errors.New("API key is required")
	// ErrAPIKeyPlaceholder indicates the sample placeholder was never replaced.
	ErrAPIKeyPlaceholder = errors.New("API key is still the API_KEY placeholder")
	// ErrAPIKeyInvalidFormat indicates the API key format is invalid.
	ErrAPIKeyInvalidFormat = errors.New("API key must be 32 hexadecimal characters")
	// ErrSessionTokenEmpty indicates the session token is missing.
	ErrSessionTokenEmpty = errors.New("session token is required")
	// ErrAuthTypeInvalid indicates an unknown auth type.
	ErrAuthTypeInvalid = errors.New("auth type must be api_key or session_token")
)

// ValidateAPIKey validates the API key format.
// The API key must be 32 hexadecimal characters and must not be the placeholder.
//
// Returns nil if valid, or a descriptive error if invalid.
func ValidateAPIKey(apiKey string) error {
	if apiKey == "" {
		return ErrAPIKeyEmpty
	}
	if apiKey == placeholderAPIKey {
		return ErrAPIKeyPlaceholder
	}
	if !apiKeyRegexp.MatchString(apiKey) {
		return ErrAPIKeyInvalidFormat
	}
	return nil
}

// ValidateAuth validates a credential for the given auth type.
func ValidateAuth(authType, authKey string) error {
	switch authType {
	case AuthTypeAPIKey:
		return ValidateAPIKey(authKey)
	case AuthTypeSessionToken:
		if authKey == "" {
			return ErrSessionTokenEmpty
		}
		return nil
	default:
		return ErrAuthTypeInvalid
	}
}
