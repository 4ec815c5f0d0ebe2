package session

import (
	"errors"
	"fmt"

	"github.com/smnsjas/go-winrm-console/client"
)

// Kind classifies a dispatch failure.
type Kind int

const (
	// KindUnexpected is anything not covered by another kind.
	KindUnexpected Kind = iota
	// KindConnection is a failure reaching the host.
	KindConnection
	// KindInvalidCredentials is the host rejecting the login.
	KindInvalidCredentials
	// KindDecode is remote output that the configured encoding cannot decode.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindInvalidCredentials:
		return "invalid credentials"
	case KindDecode:
		return "decode"
	default:
		return "unexpected"
	}
}

// Error is a classified dispatch failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether the console should print the error and keep
// going. Connection and credential failures only affect one command.
func (e *Error) Recoverable() bool {
	return e.Kind == KindConnection || e.Kind == KindInvalidCredentials
}

// classify maps a client error onto a Kind.
func classify(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}

	var de *DecodeError
	switch {
	case errors.As(err, &de):
		return &Error{Kind: KindDecode, Err: err}
	case errors.Is(err, client.ErrInvalidCredentials):
		return &Error{Kind: KindInvalidCredentials, Err: err}
	case errors.Is(err, client.ErrConnection):
		return &Error{Kind: KindConnection, Err: err}
	default:
		return &Error{Kind: KindUnexpected, Err: err}
	}
}

// DecodeError reports remote output that is not valid in the configured
// encoding.
type DecodeError struct {
	Encoding string
	// Offset is the first offending byte, or -1 when unknown.
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("cannot decode output as %s: invalid byte at offset %d", e.Encoding, e.Offset)
	}
	return fmt.Sprintf("cannot decode output as %s: %v", e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
