package errors

import (
	"errors"
	"fmt"
)

// Standard error types
var (
	ErrAuthUnavailable = errors.New("authorization unavailable")
	ErrConfiguration   = errors.New("configuration error")
	ErrTransport       = errors.New("transport error")
	ErrDecode          = errors.New("decode error")
	ErrEncode          = errors.New("encode error")
	ErrGraphQL         = errors.New("graphql error")
	ErrPagination      = errors.New("pagination error")
)

// WrapError wraps an error with a standard error type.
// Both errType and err stay reachable through errors.Is / errors.As.
func WrapError(err error, errType error, message string) error {
	return fmt.Errorf("%w: %s: %w", errType, message, err)
}

// TransportError carries a network, connection or timeout failure.
// Err is the error returned by the underlying transport, untouched.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransport) match any *TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// DecodeError is returned when a response body is not valid JSON.
// The raw bytes and status stay available to the caller.
type DecodeError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DecodeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("decode response (status %d, %d bytes): %v", e.StatusCode, len(e.Body), e.Err)
	}
	return fmt.Sprintf("decode %d bytes: %v", len(e.Body), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDecode) match any *DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Is provides a convenience wrapper around errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As provides a convenience wrapper around errors.As
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap provides a convenience wrapper around errors.Unwrap
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
