package session

import (
	"errors"
	"fmt"
)

var (
	// ErrAdapterNotConfigured indicates the store-backed strategy was
	// constructed without a persistence adapter.
	ErrAdapterNotConfigured = errors.New("session: adapter not configured")

	// ErrAdapterCapability indicates the adapter lacks an optional
	// capability the requested operation needs.
	ErrAdapterCapability = errors.New("session: adapter does not support this operation")

	// ErrAdapterFailed indicates an adapter call failed.
	ErrAdapterFailed = errors.New("session: adapter operation failed")

	// ErrInvalidConfiguration indicates the session configuration is
	// invalid.
	ErrInvalidConfiguration = errors.New("session: invalid configuration")
)

// Error codes carried by Error for machine consumption.
const (
	CodeAdapter       = "ADAPTER_ERROR"
	CodeConfiguration = "CONFIGURATION_ERROR"
)

// Error is the structured error returned by session operations, carrying
// a stable code and free-form metadata. It wraps a package sentinel so
// callers can match with errors.Is.
type Error struct {
	Code     string
	Message  string
	Metadata map[string]any

	cause error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.cause }

func adapterError(sentinel error, message string, metadata map[string]any) *Error {
	if message == "" {
		message = sentinel.Error()
	}
	return &Error{
		Code:     CodeAdapter,
		Message:  message,
		Metadata: metadata,
		cause:    sentinel,
	}
}

func configurationError(message string) *Error {
	return &Error{
		Code:    CodeConfiguration,
		Message: message,
		cause:   ErrInvalidConfiguration,
	}
}
