package auth

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxNegotiateLegs bounds how many 401 challenges one request may receive.
const maxNegotiateLegs = 5

const negotiateScheme = "Negotiate"

// NegotiateAuth runs SPNEGO over HTTP with tokens from a SecurityProvider.
type NegotiateAuth struct {
	provider SecurityProvider
}

// NewNegotiateAuth returns an authenticator backed by provider.
func NewNegotiateAuth(provider SecurityProvider) *NegotiateAuth {
	return &NegotiateAuth{provider: provider}
}

// Name returns "Negotiate".
func (a *NegotiateAuth) Name() string {
	return negotiateScheme
}

// Transport wraps base with the Negotiate handshake.
func (a *NegotiateAuth) Transport(base http.RoundTripper) http.RoundTripper {
	return &negotiateRoundTripper{base: base, provider: a.provider}
}

type negotiateRoundTripper struct {
	base     http.RoundTripper
	provider SecurityProvider
}

// RoundTrip sends req, answering each Negotiate challenge with the
// provider's next token. The body is buffered so every leg can resend it.
func (rt *negotiateRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	var (
		token    []byte
		lastLeg  bool
		legCount int
	)
	for legCount < maxNegotiateLegs {
		legCount++

		resp, err := rt.base.RoundTrip(withBody(req, body, token))
		if err != nil {
			return nil, err
		}
		challenge, ok := negotiateChallenge(resp)
		if !ok {
			return resp, nil
		}
		_ = resp.Body.Close()

		if lastLeg {
			return nil, fmt.Errorf("%w: server rejected the negotiate token", ErrAuthFailed)
		}

		var more bool
		token, more, err = rt.provider.Step(req.Context(), challenge)
		if err != nil {
			return nil, fmt.Errorf("negotiate step: %w", err)
		}
		lastLeg = !more
	}

	return nil, fmt.Errorf("%w: negotiate gave up after %d attempts", ErrAuthFailed, maxNegotiateLegs)
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.ContentLength <= 0 {
		return nil, nil
	}
	defer req.Body.Close()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return body, nil
}

// withBody clones req with a fresh reader over body and, once there is a
// token, the Authorization header.
func withBody(req *http.Request, body, token []byte) *http.Request {
	clone := req.Clone(req.Context())
	if body != nil {
		clone.Body = io.NopCloser(bytes.NewReader(body))
		clone.ContentLength = int64(len(body))
		clone.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	if token != nil {
		clone.Header.Set("Authorization", negotiateScheme+" "+base64.StdEncoding.EncodeToString(token))
	}
	return clone
}

// negotiateChallenge reports whether resp is a Negotiate 401 and returns
// the server token it carries. A bare "Negotiate" header has no token.
func negotiateChallenge(resp *http.Response) ([]byte, bool) {
	if resp.StatusCode != http.StatusUnauthorized {
		return nil, false
	}
	header := resp.Header.Get("WWW-Authenticate")
	if !strings.Contains(strings.ToLower(header), "negotiate") {
		return nil, false
	}

	_, encoded, found := strings.Cut(header, " ")
	if !found {
		return nil, true
	}
	token, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, true
	}
	return token, true
}
