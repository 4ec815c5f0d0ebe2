package auth

import (
	"errors"
	"log/slog"
	"net/http"
)

// ErrAuthFailed is returned when the handshake finished and the server
// still answered 401.
var ErrAuthFailed = errors.New("auth: authentication failed")

// Authenticator adds one HTTP authentication scheme to a transport.
type Authenticator interface {
	Transport(base http.RoundTripper) http.RoundTripper
	Name() string
}

// Credentials identify the remote user. Username may be a bare name,
// DOMAIN\user or user@domain; Domain only applies to bare names.
type Credentials struct {
	Username string
	Password string
	Domain   string
}

// LogValue keeps the password out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("domain", c.Domain),
		slog.String("password", "[REDACTED]"),
	)
}
