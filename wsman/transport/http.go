package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// ErrUnauthorized is returned when the server answers 401 after the
// authenticator has had its turn.
var ErrUnauthorized = errors.New("transport: authentication failed (401 Unauthorized)")

// ErrForbidden is returned on 403.
var ErrForbidden = errors.New("transport: access denied (403 Forbidden)")

const (
	// ContentTypeSOAP is the content type for SOAP 1.2 messages.
	ContentTypeSOAP = "application/soap+xml;charset=UTF-8"

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 60 * time.Second

	defaultBufferSize = 32 * 1024
	maxErrorPreview   = 3000
)

// StatusError is returned for any other status >= 400. WinRM reports SOAP
// faults with a 500 status, so Body is kept for fault parsing.
type StatusError struct {
	StatusCode int
	Body       []byte
}

// Error implements error.
func (e *StatusError) Error() string {
	preview := string(e.Body)
	if len(preview) > maxErrorPreview {
		preview = preview[:maxErrorPreview] + "..."
	}
	return fmt.Sprintf("transport: HTTP %d: %s", e.StatusCode, preview)
}

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
	},
}

// readAllPooled reads r through a pooled buffer and returns a copy.
func readAllPooled(r io.Reader) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// HTTPTransport posts SOAP envelopes over HTTP or HTTPS.
type HTTPTransport struct {
	client *http.Client
	logger *slog.Logger
}

// HTTPTransportOption configures an HTTPTransport.
type HTTPTransportOption func(*HTTPTransport)

// NewHTTPTransport creates a transport. Keep-alives stay enabled because
// NTLM authenticates the connection, not the request.
func NewHTTPTransport(opts ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
				DisableKeepAlives:   false,
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if d > 0 {
			t.client.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) HTTPTransportOption {
	return func(t *HTTPTransport) {
		tr := t.ensureHTTPTransport()
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		tr.TLSClientConfig.InsecureSkipVerify = skip
		if skip {
			t.logger.Warn("TLS certificate verification disabled")
		}
	}
}

// WithTLSConfig replaces the TLS configuration. MinVersion is raised to
// TLS 1.2 if lower.
func WithTLSConfig(cfg *tls.Config) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if cfg.MinVersion < tls.VersionTLS12 {
			cfg.MinVersion = tls.VersionTLS12
		}
		t.ensureHTTPTransport().TLSClientConfig = cfg
	}
}

// WithProxy sets an explicit proxy URL. "direct" disables proxying; an
// empty string keeps the environment-derived default.
func WithProxy(proxyURL string) HTTPTransportOption {
	return func(t *HTTPTransport) {
		tr := t.ensureHTTPTransport()
		switch proxyURL {
		case "":
			return
		case "direct":
			tr.Proxy = nil
		default:
			u, err := url.Parse(proxyURL)
			if err != nil {
				t.logger.Warn("ignoring invalid proxy URL", "proxy", proxyURL, "error", err)
				return
			}
			tr.Proxy = http.ProxyURL(u)
		}
	}
}

func (t *HTTPTransport) ensureHTTPTransport() *http.Transport {
	tr, ok := t.client.Transport.(*http.Transport)
	if !ok {
		tr = &http.Transport{}
		t.client.Transport = tr
	}
	return tr
}

// Post sends body to url and returns the response body.
func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: create request: %w", err)
	}
	req.Header.Set("Content-Type", ContentTypeSOAP)

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := readAllPooled(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: read response: %w", err)
	}

	t.logger.Debug("wsman exchange",
		"status", resp.StatusCode,
		"request_bytes", len(body),
		"response_bytes", len(respBody),
		"elapsed", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrForbidden
	case resp.StatusCode >= 400:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return respBody, nil
}

// Client returns the underlying HTTP client so authenticators can wrap its
// RoundTripper.
func (t *HTTPTransport) Client() *http.Client {
	return t.client
}

// CloseIdleConnections drops pooled connections, forcing a fresh handshake.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}
