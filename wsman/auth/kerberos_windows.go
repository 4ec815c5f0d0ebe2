//go:build windows

package auth

import (
	"context"
	"fmt"

	"github.com/alexbrainman/sspi"
	"github.com/alexbrainman/sspi/negotiate"
)

// SSPIProvider implements SecurityProvider with the Windows Negotiate
// package. Without a password it authenticates as the logged-in user.
type SSPIProvider struct {
	cred      *sspi.Credentials
	ctx       *negotiate.ClientContext
	targetSPN string
	complete  bool
}

// NewKerberosProvider returns the platform Kerberos provider.
func NewKerberosProvider(cfg KerberosProviderConfig) (SecurityProvider, error) {
	return NewSSPIProvider(cfg)
}

// SupportsSSO reports whether the platform can authenticate as the
// logged-in user without a password or ccache.
func SupportsSSO() bool {
	return true
}

// NewSSPIProvider acquires credentials for the configured user, or the
// current user when no password is given.
func NewSSPIProvider(cfg KerberosProviderConfig) (*SSPIProvider, error) {
	var (
		cred *sspi.Credentials
		err  error
	)
	if cfg.Credentials != nil && cfg.Credentials.Password != "" {
		user, domain := SplitPrincipal(cfg.Credentials.Username, cfg.Credentials.Domain)
		cred, err = negotiate.AcquireUserCredentials(domain, user, cfg.Credentials.Password)
	} else {
		cred, err = negotiate.AcquireCurrentUserCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("acquire SSPI credentials: %w", err)
	}
	return &SSPIProvider{cred: cred, targetSPN: cfg.TargetSPN}, nil
}

// Step advances the SSPI security context. A nil input token starts a
// fresh context, as happens on every new connection.
func (p *SSPIProvider) Step(_ context.Context, inputToken []byte) ([]byte, bool, error) {
	if len(inputToken) == 0 || p.ctx == nil {
		if p.ctx != nil {
			_ = p.ctx.Release()
			p.ctx = nil
		}
		p.complete = false
		cc, token, err := negotiate.NewClientContext(p.cred, p.targetSPN)
		if err != nil {
			return nil, false, fmt.Errorf("init security context for %s: %w", p.targetSPN, err)
		}
		p.ctx = cc
		return token, true, nil
	}

	done, token, err := p.ctx.Update(inputToken)
	if err != nil {
		return nil, false, fmt.Errorf("update security context: %w", err)
	}
	p.complete = done
	return token, !done, nil
}

// Complete reports whether the security context is established.
func (p *SSPIProvider) Complete() bool {
	return p.complete
}

// Close releases the context and credential handles.
func (p *SSPIProvider) Close() error {
	if p.ctx != nil {
		if err := p.ctx.Release(); err != nil {
			return err
		}
		p.ctx = nil
	}
	return p.cred.Release()
}
