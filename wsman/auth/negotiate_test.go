package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type mockSecurityProvider struct {
	stepFunc func(ctx context.Context, serverToken []byte) ([]byte, bool, error)
	steps    int
}

func (m *mockSecurityProvider) Step(ctx context.Context, serverToken []byte) ([]byte, bool, error) {
	m.steps++
	if m.stepFunc != nil {
		return m.stepFunc(ctx, serverToken)
	}
	return nil, false, nil
}

func (m *mockSecurityProvider) Complete() bool { return false }

func (m *mockSecurityProvider) Close() error { return nil }

type mockRoundTripper struct {
	roundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if m.roundTripFunc != nil {
		return m.roundTripFunc(req)
	}
	return &http.Response{StatusCode: 200, Body: http.NoBody}, nil
}

func challenge(header string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusUnauthorized,
		Header:     http.Header{"Www-Authenticate": []string{header}},
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

func TestNegotiateAuth_Name(t *testing.T) {
	if got := NewNegotiateAuth(&mockSecurityProvider{}).Name(); got != "Negotiate" {
		t.Errorf("Name() = %s; want Negotiate", got)
	}
}

func TestNegotiateRoundTrip_NoChallenge(t *testing.T) {
	provider := &mockSecurityProvider{}
	rt := NewNegotiateAuth(provider).Transport(&mockRoundTripper{})

	req, _ := http.NewRequest(http.MethodPost, "http://example.com/wsman", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d; want 200", resp.StatusCode)
	}
	if provider.steps != 0 {
		t.Errorf("Step called %d times; want 0", provider.steps)
	}
}

func TestNegotiateRoundTrip_SingleLeg(t *testing.T) {
	provider := &mockSecurityProvider{
		stepFunc: func(_ context.Context, serverToken []byte) ([]byte, bool, error) {
			if len(serverToken) > 0 {
				t.Error("first step should have no server token")
			}
			return []byte("krb-token"), false, nil
		},
	}

	requests := 0
	transport := &mockRoundTripper{roundTripFunc: func(req *http.Request) (*http.Response, error) {
		requests++
		body, _ := io.ReadAll(req.Body)
		if string(body) != "request-body" {
			t.Errorf("request %d body = %q; want request-body", requests, body)
		}
		if requests == 1 {
			return challenge("Negotiate"), nil
		}
		want := "Negotiate " + base64.StdEncoding.EncodeToString([]byte("krb-token"))
		if got := req.Header.Get("Authorization"); got != want {
			t.Errorf("Authorization = %q; want %q", got, want)
		}
		return &http.Response{StatusCode: 200, Body: http.NoBody}, nil
	}}

	rt := NewNegotiateAuth(provider).Transport(transport)
	req, _ := http.NewRequest(http.MethodPost, "http://example.com/wsman", strings.NewReader("request-body"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if resp.StatusCode != 200 || requests != 2 {
		t.Errorf("status = %d after %d requests; want 200 after 2", resp.StatusCode, requests)
	}
}

func TestNegotiateRoundTrip_MultiLeg(t *testing.T) {
	provider := &mockSecurityProvider{
		stepFunc: func(_ context.Context, serverToken []byte) ([]byte, bool, error) {
			if len(serverToken) == 0 {
				return []byte("negotiate"), true, nil
			}
			if string(serverToken) != "challenge" {
				t.Errorf("server token = %q; want challenge", serverToken)
			}
			return []byte("authenticate"), false, nil
		},
	}

	requests := 0
	transport := &mockRoundTripper{roundTripFunc: func(req *http.Request) (*http.Response, error) {
		requests++
		switch requests {
		case 1:
			return challenge("Negotiate"), nil
		case 2:
			return challenge("Negotiate " + base64.StdEncoding.EncodeToString([]byte("challenge"))), nil
		}
		want := "Negotiate " + base64.StdEncoding.EncodeToString([]byte("authenticate"))
		if got := req.Header.Get("Authorization"); got != want {
			t.Errorf("Authorization = %q; want %q", got, want)
		}
		return &http.Response{StatusCode: 200, Body: http.NoBody}, nil
	}}

	rt := NewNegotiateAuth(provider).Transport(transport)
	req, _ := http.NewRequest(http.MethodPost, "http://example.com/wsman", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if requests != 3 {
		t.Errorf("requests = %d; want 3", requests)
	}
}

func TestNegotiateRoundTrip_RejectedAfterFinalToken(t *testing.T) {
	provider := &mockSecurityProvider{
		stepFunc: func(context.Context, []byte) ([]byte, bool, error) {
			return []byte("token"), false, nil
		},
	}
	transport := &mockRoundTripper{roundTripFunc: func(*http.Request) (*http.Response, error) {
		return challenge("Negotiate"), nil
	}}

	rt := NewNegotiateAuth(provider).Transport(transport)
	req, _ := http.NewRequest(http.MethodPost, "http://example.com/wsman", nil)
	_, err := rt.RoundTrip(req)
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("err = %v; want ErrAuthFailed", err)
	}
}

func TestNegotiateRoundTrip_MaxRetries(t *testing.T) {
	provider := &mockSecurityProvider{
		stepFunc: func(context.Context, []byte) ([]byte, bool, error) {
			return []byte("token"), true, nil
		},
	}
	transport := &mockRoundTripper{roundTripFunc: func(*http.Request) (*http.Response, error) {
		return challenge("Negotiate dG9rZW4="), nil
	}}

	rt := NewNegotiateAuth(provider).Transport(transport)
	req, _ := http.NewRequest(http.MethodPost, "http://example.com/wsman", nil)
	_, err := rt.RoundTrip(req)
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("err = %v; want ErrAuthFailed", err)
	}
	if !strings.Contains(err.Error(), "after 5 attempts") {
		t.Errorf("err = %v; want max retries error", err)
	}
}

func TestNegotiateRoundTrip_NonNegotiate401PassesThrough(t *testing.T) {
	transport := &mockRoundTripper{roundTripFunc: func(*http.Request) (*http.Response, error) {
		return challenge(`Basic realm="WSMAN"`), nil
	}}

	rt := NewNegotiateAuth(&mockSecurityProvider{}).Transport(transport)
	req, _ := http.NewRequest(http.MethodPost, "http://example.com/wsman", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d; want 401", resp.StatusCode)
	}
}

func TestNegotiateRoundTrip_StepError(t *testing.T) {
	provider := &mockSecurityProvider{
		stepFunc: func(context.Context, []byte) ([]byte, bool, error) {
			return nil, false, errors.New("no ticket")
		},
	}
	transport := &mockRoundTripper{roundTripFunc: func(*http.Request) (*http.Response, error) {
		return challenge("Negotiate"), nil
	}}

	rt := NewNegotiateAuth(provider).Transport(transport)
	req, _ := http.NewRequest(http.MethodPost, "http://example.com/wsman", nil)
	if _, err := rt.RoundTrip(req); err == nil || !strings.Contains(err.Error(), "no ticket") {
		t.Errorf("err = %v; want step error", err)
	}
}
