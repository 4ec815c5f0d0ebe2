package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/smnsjas/go-winrm-console/wsman"
	"github.com/smnsjas/go-winrm-console/wsman/auth"
	"github.com/smnsjas/go-winrm-console/wsman/transport"
)

var (
	// ErrConnection marks failures reaching the host.
	ErrConnection = errors.New("connection failed")

	// ErrInvalidCredentials marks the host rejecting the credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// classify wraps err with ErrInvalidCredentials or ErrConnection when it
// falls into either class; anything else is returned unchanged.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isAuthError(err):
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	case isConnectionError(err):
		return fmt.Errorf("%w: %w", ErrConnection, err)
	default:
		return err
	}
}

func isAuthError(err error) bool {
	if errors.Is(err, transport.ErrUnauthorized) ||
		errors.Is(err, transport.ErrForbidden) ||
		errors.Is(err, auth.ErrAuthFailed) {
		return true
	}
	var fault *wsman.Fault
	return errors.As(err, &fault) && fault.IsAccessDenied()
}

func isConnectionError(err error) bool {
	// Cancellation is the operator's doing, not the network's.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no route to host") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "broken pipe")
}
