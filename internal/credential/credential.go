// Package credential resolves the username and password for a host from
// explicit values, the secret store, or interactive prompts.
package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/smnsjas/go-winrm-console/internal/secret"
)

// Credential is a resolved login for one host.
type Credential struct {
	Host     string
	Username string
	Password string
}

// String never includes the password.
func (c Credential) String() string {
	return c.Username + "@" + c.Host
}

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("host", c.Host),
		slog.String("username", c.Username),
		slog.String("password", "[REDACTED]"),
	)
}

// ErrNotInteractive is wrapped by AuthInputError when stdin is not a
// terminal.
var ErrNotInteractive = errors.New("no interactive terminal")

// AuthInputError reports that a value had to be prompted for and could not be.
type AuthInputError struct {
	// Field is "user" or "password".
	Field string
	Err   error
}

func (e *AuthInputError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Field, e.Err)
}

func (e *AuthInputError) Unwrap() error {
	return e.Err
}

// Resolver resolves credentials against a secret store. Values typed at a
// prompt are saved; explicit values are used as given and never saved.
type Resolver struct {
	Store    secret.Store
	Prompter Prompter

	// Out receives the one-line status messages.
	Out io.Writer

	Logger *slog.Logger
}

// Resolve returns the credential for host. Empty explicitUser or
// explicitPassword means the value was not given.
func (r *Resolver) Resolve(ctx context.Context, host, explicitUser, explicitPassword string) (Credential, error) {
	cred, err := r.ResolveUser(ctx, host, explicitUser)
	if err != nil {
		return Credential{}, err
	}

	cred.Password = explicitPassword
	if cred.Password == "" {
		pass, err := r.lookupOrPrompt(ctx, secret.ServiceName(host), cred.Username, "password", true)
		if err != nil {
			return Credential{}, err
		}
		cred.Password = pass.value
		if pass.saved {
			r.printf("Saved new password for user %s for host %s\n", cred.Username, host)
		} else {
			r.printf("Password for user from keyring\n")
		}
	}

	r.logger().Debug("credential resolved", "credential", cred)
	return cred, nil
}

// ResolveUser resolves only the username, for logins that need no
// password such as a Kerberos credential cache.
func (r *Resolver) ResolveUser(ctx context.Context, host, explicitUser string) (Credential, error) {
	cred := Credential{Host: host, Username: explicitUser}
	if cred.Username != "" {
		return cred, nil
	}

	user, err := r.lookupOrPrompt(ctx, secret.ServiceName(host), secret.DefaultUserAccount, "user", false)
	if err != nil {
		return Credential{}, err
	}
	cred.Username = user.value
	if user.saved {
		r.printf("Saved new default user %s for host %s\n", cred.Username, host)
	} else {
		r.printf("User from keyring: %s\n", cred.Username)
	}
	return cred, nil
}

type lookup struct {
	value string
	saved bool
}

func (r *Resolver) lookupOrPrompt(ctx context.Context, service, account, field string, masked bool) (lookup, error) {
	if r.Store != nil {
		value, found, err := r.Store.Get(service, account)
		switch {
		case err != nil:
			r.logger().Warn("secret store lookup failed", "service", service, "field", field, "error", err)
		case found && value != "":
			return lookup{value: value}, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return lookup{}, err
	}
	if r.Prompter == nil || !r.Prompter.Interactive() {
		return lookup{}, &AuthInputError{Field: field, Err: ErrNotInteractive}
	}

	read := r.Prompter.ReadLine
	if masked {
		read = r.Prompter.ReadPassword
	}
	value, err := read(field + ": ")
	if err != nil {
		return lookup{}, &AuthInputError{Field: field, Err: err}
	}
	if value == "" {
		return lookup{}, &AuthInputError{Field: field, Err: errors.New("empty input")}
	}

	if r.Store != nil {
		if err := r.Store.Set(service, account, value); err != nil {
			// The value is still usable for this run.
			r.logger().Warn("secret store save failed", "service", service, "field", field, "error", err)
		}
	}
	return lookup{value: value, saved: true}, nil
}

func (r *Resolver) printf(format string, args ...any) {
	if r.Out != nil {
		_, _ = fmt.Fprintf(r.Out, format, args...)
	}
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}
