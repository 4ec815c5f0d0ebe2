package auth

import (
	"net/http"
	"strings"

	"github.com/Azure/go-ntlmssp"
)

// NTLMAuth implements NTLM authentication.
type NTLMAuth struct {
	creds Credentials
}

// NewNTLMAuth creates a new NTLM authentication handler.
func NewNTLMAuth(creds Credentials) *NTLMAuth {
	return &NTLMAuth{creds: creds}
}

// Name returns the authentication scheme name.
func (a *NTLMAuth) Name() string {
	return "NTLM"
}

// Transport wraps base with the go-ntlmssp negotiator. The negotiator reads
// the credentials from a Basic Authorization header, which is set on every
// request before it is handed over.
func (a *NTLMAuth) Transport(base http.RoundTripper) http.RoundTripper {
	return &credentialsRoundTripper{
		username: a.qualifiedUser(),
		password: a.creds.Password,
		next:     ntlmssp.Negotiator{RoundTripper: base},
	}
}

// qualifiedUser returns the username in the form go-ntlmssp splits on:
// DOMAIN\user, user@domain, or a bare name when no domain is known.
func (a *NTLMAuth) qualifiedUser() string {
	user := a.creds.Username
	if a.creds.Domain == "" || strings.ContainsAny(user, `\@`) {
		return user
	}
	return a.creds.Domain + `\` + user
}

type credentialsRoundTripper struct {
	username string
	password string
	next     http.RoundTripper
}

func (rt *credentialsRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(rt.username, rt.password)
	return rt.next.RoundTrip(clone)
}
