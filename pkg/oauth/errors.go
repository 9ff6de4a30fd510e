package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates the OAuth state value is unknown or expired.
	ErrInvalidState = errors.New("oauth: invalid or expired oauth state")

	// ErrStateProviderMismatch indicates the stored state belongs to a
	// different provider than the one handling the callback.
	ErrStateProviderMismatch = errors.New("oauth: oauth state provider mismatch")

	// ErrStateExpired indicates the state record outlived its TTL.
	ErrStateExpired = errors.New("oauth: oauth state expired")

	// ErrMissingCode indicates the callback carried no authorization code.
	ErrMissingCode = errors.New("oauth: missing authorization code")

	// ErrMissingState indicates the callback carried no state parameter.
	ErrMissingState = errors.New("oauth: missing state parameter")

	// ErrProviderDenied indicates the provider returned an error parameter
	// on the callback (for example access_denied).
	ErrProviderDenied = errors.New("oauth: provider returned an error")

	// ErrTokenExchangeFailed indicates the code-for-token exchange failed.
	ErrTokenExchangeFailed = errors.New("oauth: token exchange failed")

	// ErrMissingAccessToken indicates a successful token response without
	// an access token.
	ErrMissingAccessToken = errors.New("oauth: no access token in response")

	// ErrUserInfoNotSupported indicates the provider declares no userinfo
	// endpoint.
	ErrUserInfoNotSupported = errors.New("oauth: userinfo endpoint not configured")

	// ErrUserInfoFailed indicates the userinfo request failed.
	ErrUserInfoFailed = errors.New("oauth: userinfo request failed")

	// ErrProfileInvalid indicates the identity profile could not be
	// normalized into a user.
	ErrProfileInvalid = errors.New("oauth: invalid profile")

	// ErrIDTokenInvalid indicates the id_token failed verification.
	ErrIDTokenInvalid = errors.New("oauth: invalid id token")

	// ErrInvalidConfiguration indicates the engine or provider
	// configuration is invalid.
	ErrInvalidConfiguration = errors.New("oauth: invalid configuration")
)

// Error codes carried by FlowError for machine consumption.
const (
	CodeAuthorization = "AUTHORIZATION_ERROR"
	CodeConfiguration = "CONFIGURATION_ERROR"
)

// FlowError is the structured error returned by engine operations. It
// carries a stable code, a human-readable message, and free-form metadata
// for diagnostics. It wraps one of the package sentinels so callers can
// match with errors.Is.
type FlowError struct {
	Code     string
	Message  string
	Metadata map[string]any

	cause error
}

func (e *FlowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *FlowError) Unwrap() error { return e.cause }

// authError builds an AUTHORIZATION_ERROR FlowError wrapping a sentinel.
func authError(sentinel error, message string, metadata map[string]any) *FlowError {
	if message == "" {
		message = sentinel.Error()
	}
	return &FlowError{
		Code:     CodeAuthorization,
		Message:  message,
		Metadata: metadata,
		cause:    sentinel,
	}
}

// configError builds a CONFIGURATION_ERROR FlowError.
func configError(message string) *FlowError {
	return &FlowError{
		Code:    CodeConfiguration,
		Message: message,
		cause:   ErrInvalidConfiguration,
	}
}
