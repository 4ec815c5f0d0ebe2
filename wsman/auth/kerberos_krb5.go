//go:build !windows

package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-krb5/krb5/client"
	"github.com/go-krb5/krb5/config"
	"github.com/go-krb5/krb5/credentials"
	"github.com/go-krb5/krb5/spnego"
)

const defaultKrb5Conf = "/etc/krb5.conf"

// KRB5Provider implements SecurityProvider with the pure Go krb5 library.
// Each Step(nil) produces a fresh single-leg SPNEGO token; the server's
// mutual-auth reply is accepted without further verification.
type KRB5Provider struct {
	client     *client.Client
	targetSPN  string
	isComplete bool
}

// NewKerberosProvider returns the platform Kerberos provider.
func NewKerberosProvider(cfg KerberosProviderConfig) (SecurityProvider, error) {
	return NewKRB5Provider(cfg)
}

// SupportsSSO reports whether the platform can authenticate as the
// logged-in user without a password or ccache.
func SupportsSSO() bool {
	return false
}

// NewKRB5Provider loads krb5.conf and builds a client from the ccache or,
// failing that, the password.
func NewKRB5Provider(cfg KerberosProviderConfig) (*KRB5Provider, error) {
	confPath := cfg.Krb5ConfPath
	if confPath == "" {
		confPath = os.Getenv("KRB5_CONFIG")
	}
	if confPath == "" {
		confPath = defaultKrb5Conf
	}
	conf, err := config.Load(confPath)
	if err != nil {
		return nil, fmt.Errorf("load krb5.conf from %s: %w", confPath, err)
	}

	var cl *client.Client
	switch {
	case cfg.CCachePath != "":
		cc, err := credentials.LoadCCache(cfg.CCachePath)
		if err != nil {
			return nil, fmt.Errorf("load ccache from %s: %w", cfg.CCachePath, err)
		}
		cl, err = client.NewFromCCache(cc, conf, client.DisablePAFXFAST(true))
		if err != nil {
			return nil, fmt.Errorf("create client from ccache: %w", err)
		}
	case cfg.Credentials != nil && cfg.Credentials.Password != "":
		user, realm := SplitPrincipal(cfg.Credentials.Username, cfg.Credentials.Domain)
		if cfg.Realm != "" {
			realm = cfg.Realm
		}
		if realm == "" {
			realm = conf.LibDefaults.DefaultRealm
		}
		if realm == "" {
			return nil, errors.New("kerberos realm unknown: pass --realm or set default_realm in krb5.conf")
		}
		cl = client.NewWithPassword(user, realm, cfg.Credentials.Password, conf, client.DisablePAFXFAST(true))
	default:
		return nil, errors.New("no kerberos credentials: a ccache or password is required")
	}

	return &KRB5Provider{client: cl, targetSPN: cfg.TargetSPN}, nil
}

// Step performs the single SPNEGO leg.
func (p *KRB5Provider) Step(_ context.Context, inputToken []byte) ([]byte, bool, error) {
	if len(inputToken) > 0 {
		if !p.isComplete {
			return nil, false, errors.New("received server token before the client token was sent")
		}
		return nil, false, nil
	}

	if err := p.client.Login(); err != nil {
		return nil, false, fmt.Errorf("kerberos login: %w", err)
	}

	tkn, err := spnego.SPNEGOClient(p.client, p.targetSPN).InitSecContext()
	if err != nil {
		return nil, false, fmt.Errorf("init security context for %s: %w", p.targetSPN, err)
	}
	token, err := tkn.Marshal()
	if err != nil {
		return nil, false, fmt.Errorf("marshal token: %w", err)
	}

	p.isComplete = true
	return token, false, nil
}

// Complete returns true once the token has been produced.
func (p *KRB5Provider) Complete() bool {
	return p.isComplete
}

// Close destroys the client's tickets.
func (p *KRB5Provider) Close() error {
	p.client.Destroy()
	return nil
}
