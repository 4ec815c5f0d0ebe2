package client

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smnsjas/go-winrm-console/wsman"
	"github.com/smnsjas/go-winrm-console/wsman/auth"
	"github.com/smnsjas/go-winrm-console/wsman/transport"
)

// TransportType selects the authentication mechanism.
type TransportType string

const (
	// TransportNTLM authenticates with NTLM.
	TransportNTLM TransportType = "ntlm"
	// TransportKerberos authenticates with Kerberos over SPNEGO.
	TransportKerberos TransportType = "kerberos"
)

// ParseTransport parses a transport name case-insensitively.
func ParseTransport(s string) (TransportType, error) {
	switch t := TransportType(strings.ToLower(strings.TrimSpace(s))); t {
	case TransportNTLM, TransportKerberos:
		return t, nil
	case "":
		return TransportNTLM, nil
	default:
		return "", fmt.Errorf("unknown transport %q (want ntlm or kerberos)", s)
	}
}

const (
	defaultHTTPPort  = 5985
	defaultHTTPSPort = 5986
	defaultCodepage  = 65001

	// maxOperationTimeout is the WS-Man OperationTimeout used when the
	// HTTP timeout leaves enough headroom.
	maxOperationTimeout = 20 * time.Second
	// minTimeout keeps a whole-second OperationTimeout strictly below
	// the HTTP timeout.
	minTimeout = 2 * time.Second
)

// Config holds configuration for a WinRM client.
type Config struct {
	// Port is the WinRM port. Zero means 5985, or 5986 with TLS.
	Port int

	// UseTLS enables HTTPS transport.
	UseTLS bool

	// InsecureSkipVerify skips TLS certificate verification.
	InsecureSkipVerify bool

	// CAFile is a PEM bundle trusted in place of the system roots.
	CAFile string

	// Proxy is an HTTP proxy URL, or "direct" to ignore the environment.
	Proxy string

	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration

	Transport TransportType

	Username string
	Password string

	// Domain qualifies bare NTLM usernames.
	Domain string

	// Kerberos settings. Empty values fall back to the krb5 defaults.
	Realm        string
	Krb5ConfPath string
	CCachePath   string
	TargetSPN    string

	// Codepage is the remote console codepage. Zero means 65001 (UTF-8).
	Codepage int

	// Shell settings applied to every command's shell.
	WorkingDirectory string
	Environment      map[string]string
	NoProfile        bool
	IdleTimeout      time.Duration

	// Logger receives debug tracing and audit events. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   60 * time.Second,
		Transport: TransportNTLM,
		Codepage:  defaultCodepage,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := ParseTransport(string(c.Transport)); err != nil {
		return err
	}
	if c.Username == "" {
		return errors.New("username is required")
	}
	if c.Transport != TransportKerberos && c.Password == "" {
		return errors.New("password is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Timeout != 0 && c.Timeout < minTimeout {
		return fmt.Errorf("timeout %s is below the minimum of %s", c.Timeout, minTimeout)
	}
	return nil
}

// operationTimeout derives the WS-Man OperationTimeout from the HTTP
// timeout. The server holds a Receive open for up to OperationTimeout,
// so it must expire before the HTTP client gives up on the exchange.
func operationTimeout(httpTimeout time.Duration) time.Duration {
	if httpTimeout <= 0 {
		httpTimeout = transport.DefaultTimeout
	}
	op := httpTimeout - 5*time.Second
	if op < httpTimeout/2 {
		op = httpTimeout / 2
	}
	op = min(op, maxOperationTimeout).Truncate(time.Second)
	if op < time.Second {
		op = time.Second
	}
	return op
}

// LogValue implements slog.LogValuer so the password never reaches a log.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", "[REDACTED]"),
		slog.String("domain", c.Domain),
		slog.String("transport", string(c.Transport)),
		slog.Int("port", c.Port),
		slog.Bool("tls", c.UseTLS),
	)
}

// BuildEndpoint turns host into a WinRM endpoint URL. host may be a bare
// name, host:port, or a full URL; missing parts are filled from useTLS and
// port.
func BuildEndpoint(host string, useTLS bool, port int) (string, error) {
	if strings.TrimSpace(host) == "" {
		return "", errors.New("host is required")
	}

	raw := host
	if !strings.Contains(raw, "://") {
		scheme := "http"
		if useTLS {
			scheme = "https"
		}
		raw = scheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse host %q: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if useTLS {
		u.Scheme = "https"
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("host %q has no hostname", host)
	}

	if u.Port() == "" || port > 0 {
		if port <= 0 {
			port = defaultHTTPPort
			if u.Scheme == "https" {
				port = defaultHTTPSPort
			}
		}
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/wsman"
	}

	return u.String(), nil
}

// Client runs commands on one WinRM host. Every call opens its own shell,
// so a Client holds no server-side state between calls.
type Client struct {
	mu sync.Mutex

	config    Config
	endpoint  string
	transport *transport.HTTPTransport
	wsman     *wsman.Client
	provider  auth.SecurityProvider
	logger    *slog.Logger
	audit     *AuditLogger
	closed    bool
}

// New creates a client for host. No network I/O happens until the first
// command.
func New(host string, cfg Config) (*Client, error) {
	if cfg.Transport == "" {
		cfg.Transport = TransportNTLM
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Codepage == 0 {
		cfg.Codepage = defaultCodepage
	}

	endpoint, err := BuildEndpoint(host, cfg.UseTLS, cfg.Port)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	trOpts := []transport.HTTPTransportOption{
		transport.WithLogger(logger),
		transport.WithTimeout(cfg.Timeout),
		transport.WithProxy(cfg.Proxy),
	}
	if cfg.CAFile != "" {
		tlsCfg, err := loadCAFile(cfg.CAFile)
		if err != nil {
			return nil, err
		}
		trOpts = append(trOpts, transport.WithTLSConfig(tlsCfg))
	}
	// After WithTLSConfig, which replaces the whole TLS configuration.
	trOpts = append(trOpts, transport.WithInsecureSkipVerify(cfg.InsecureSkipVerify))
	tr := transport.NewHTTPTransport(trOpts...)

	creds := auth.Credentials{
		Username: cfg.Username,
		Password: cfg.Password,
		Domain:   cfg.Domain,
	}

	c := &Client{
		config:    cfg,
		endpoint:  endpoint,
		transport: tr,
		logger:    logger,
		audit:     NewAuditLogger(logger, cfg.Username, endpoint),
	}

	var authenticator auth.Authenticator
	switch cfg.Transport {
	case TransportKerberos:
		u, _ := url.Parse(endpoint)
		spn := cfg.TargetSPN
		if spn == "" {
			spn = auth.DefaultSPN(u.Hostname())
		}
		ccache := cfg.CCachePath
		if ccache == "" && cfg.Password == "" {
			ccache = strings.TrimPrefix(os.Getenv("KRB5CCNAME"), "FILE:")
		}
		provider, err := auth.NewKerberosProvider(auth.KerberosProviderConfig{
			TargetSPN:    spn,
			Realm:        cfg.Realm,
			Krb5ConfPath: cfg.Krb5ConfPath,
			CCachePath:   ccache,
			Credentials:  &creds,
		})
		if err != nil {
			return nil, fmt.Errorf("kerberos: %w", err)
		}
		c.provider = provider
		authenticator = auth.NewNegotiateAuth(provider)
	default:
		authenticator = auth.NewNTLMAuth(creds)
	}

	tr.Client().Transport = authenticator.Transport(tr.Client().Transport)
	c.wsman = wsman.NewClient(endpoint, tr, wsman.WithOperationTimeout(operationTimeout(cfg.Timeout)))

	logger.Debug("client created", "endpoint", endpoint, "mechanism", authenticator.Name(), "config", cfg)
	return c, nil
}

func loadCAFile(path string) (*tls.Config, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return &tls.Config{MinVersion: tls.VersionTLS12, RootCAs: pool}, nil
}

// Endpoint returns the WinRM endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Username returns the configured username.
func (c *Client) Username() string {
	return c.config.Username
}

// Close drops pooled connections and releases Kerberos state.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.transport.CloseIdleConnections()
	if c.provider != nil {
		return c.provider.Close()
	}
	return nil
}
