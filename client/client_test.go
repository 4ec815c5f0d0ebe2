package client

import (
	"context"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-winrm-console/wsman"
)

const (
	testUsername = "testuser"
	testPassword = "testpass"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0, cfg.Port)
	assert.False(t, cfg.UseTLS)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, TransportNTLM, cfg.Transport)
	assert.Equal(t, 65001, cfg.Codepage)
}

func TestParseTransport(t *testing.T) {
	tests := []struct {
		in      string
		want    TransportType
		wantErr bool
	}{
		{"ntlm", TransportNTLM, false},
		{"NTLM", TransportNTLM, false},
		{" kerberos ", TransportKerberos, false},
		{"", TransportNTLM, false},
		{"basic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTransport(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ntlm complete", Config{Transport: TransportNTLM, Username: "u", Password: "p"}, false},
		{"ntlm without password", Config{Transport: TransportNTLM, Username: "u"}, true},
		{"kerberos without password", Config{Transport: TransportKerberos, Username: "u"}, false},
		{"no username", Config{Transport: TransportNTLM, Password: "p"}, true},
		{"bad transport", Config{Transport: "basic", Username: "u", Password: "p"}, true},
		{"bad port", Config{Transport: TransportNTLM, Username: "u", Password: "p", Port: 70000}, true},
		{"timeout too short", Config{Transport: TransportNTLM, Username: "u", Password: "p", Timeout: time.Second}, true},
		{"timeout at minimum", Config{Transport: TransportNTLM, Username: "u", Password: "p", Timeout: 2 * time.Second}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() = %v", err)
		})
	}
}

func TestOperationTimeout_BelowHTTPTimeout(t *testing.T) {
	tests := []struct {
		http time.Duration
		want time.Duration
	}{
		{0, 20 * time.Second},
		{60 * time.Second, 20 * time.Second},
		{20 * time.Second, 15 * time.Second},
		{10 * time.Second, 5 * time.Second},
		{7 * time.Second, 3 * time.Second},
		{3 * time.Second, time.Second},
		{2 * time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.http.String(), func(t *testing.T) {
			got := operationTimeout(tt.http)
			assert.Equal(t, tt.want, got)
			if tt.http > 0 {
				assert.Less(t, got, tt.http)
			}
		})
	}
}

func TestBuildEndpoint(t *testing.T) {
	tests := []struct {
		host    string
		tls     bool
		port    int
		want    string
		wantErr bool
	}{
		{host: "h", want: "http://h:5985/wsman"},
		{host: "h", tls: true, want: "https://h:5986/wsman"},
		{host: "h", port: 8080, want: "http://h:8080/wsman"},
		{host: "h:1234", want: "http://h:1234/wsman"},
		{host: "https://h", want: "https://h:5986/wsman"},
		{host: "http://h:5985/custom", want: "http://h:5985/custom"},
		{host: "http://h", tls: true, want: "https://h:5986/wsman"},
		{host: "10.0.0.1", want: "http://10.0.0.1:5985/wsman"},
		{host: "[::1]", want: "http://[::1]:5985/wsman"},
		{host: "", wantErr: true},
		{host: "ftp://h", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/tls=%v/port=%d", tt.host, tt.tls, tt.port), func(t *testing.T) {
			got, err := BuildEndpoint(tt.host, tt.tls, tt.port)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	c, err := New("server.corp.local", Config{Username: testUsername, Password: testPassword})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "http://server.corp.local:5985/wsman", c.Endpoint())
	assert.Equal(t, testUsername, c.Username())
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New("server", Config{Username: testUsername})
	assert.Error(t, err)
}

func TestNew_KerberosWithoutKrb5Conf(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Windows uses SSPI")
	}
	_, err := New("server", Config{
		Transport:    TransportKerberos,
		Username:     testUsername,
		Password:     testPassword,
		Krb5ConfPath: t.TempDir() + "/missing.conf",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kerberos")
}

// fakeWinRM answers just enough WS-Management to run one command per shell.
type fakeWinRM struct {
	mu       sync.Mutex
	actions  []string
	creates  []string
	commands []string
	stdout   string
	stderr   string
	exitCode int
}

var actionRe = regexp.MustCompile(`<a:Action>([^<]+)</a:Action>`)

func (f *fakeWinRM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	m := actionRe.FindSubmatch(body)
	if m == nil {
		http.Error(w, "no action", http.StatusBadRequest)
		return
	}
	action := string(m[1])

	f.mu.Lock()
	f.actions = append(f.actions, action)
	f.mu.Unlock()

	envelope := func(inner string) {
		w.Header().Set("Content-Type", "application/soap+xml")
		_, _ = fmt.Fprintf(w, `<s:Envelope xmlns:s="%s" xmlns:a="%s" xmlns:w="%s" xmlns:rsp="%s"><s:Body>%s</s:Body></s:Envelope>`,
			wsman.NsSoap, wsman.NsAddressing, wsman.NsWsman, wsman.NsShell, inner)
	}

	switch action {
	case wsman.ActionCreate:
		f.mu.Lock()
		f.creates = append(f.creates, string(body))
		f.mu.Unlock()
		envelope(`<rsp:Shell><rsp:ShellId>SHELL-1</rsp:ShellId></rsp:Shell>`)
	case wsman.ActionCommand:
		f.mu.Lock()
		f.commands = append(f.commands, string(body))
		f.mu.Unlock()
		envelope(`<rsp:CommandResponse><rsp:CommandId>CMD-1</rsp:CommandId></rsp:CommandResponse>`)
	case wsman.ActionReceive:
		envelope(fmt.Sprintf(`<rsp:ReceiveResponse>`+
			`<rsp:Stream Name="stdout" CommandId="CMD-1">%s</rsp:Stream>`+
			`<rsp:Stream Name="stderr" CommandId="CMD-1">%s</rsp:Stream>`+
			`<rsp:CommandState CommandId="CMD-1" State="%s"><rsp:ExitCode>%d</rsp:ExitCode></rsp:CommandState>`+
			`</rsp:ReceiveResponse>`,
			base64.StdEncoding.EncodeToString([]byte(f.stdout)),
			base64.StdEncoding.EncodeToString([]byte(f.stderr)),
			wsman.CommandStateDone, f.exitCode))
	default:
		envelope("")
	}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(url, Config{Username: testUsername, Password: testPassword, Timeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_RunCmd(t *testing.T) {
	fake := &fakeWinRM{stdout: "hello\r\n", stderr: "", exitCode: 0}
	server := httptest.NewServer(fake)
	defer server.Close()

	c := newTestClient(t, server.URL+"/wsman")
	res, err := c.RunCmd(context.Background(), "echo", "hello")
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\r\n", string(res.Stdout))
	assert.Empty(t, res.Stderr)

	assert.Equal(t, []string{
		wsman.ActionCreate, wsman.ActionCommand, wsman.ActionReceive, wsman.ActionSignal, wsman.ActionDelete,
	}, fake.actions)
	require.Len(t, fake.commands, 1)
	assert.Contains(t, fake.commands[0], "<rsp:Command>echo</rsp:Command><rsp:Arguments>hello</rsp:Arguments>")
}

func TestClient_ShellSettings(t *testing.T) {
	fake := &fakeWinRM{stdout: "ok"}
	server := httptest.NewServer(fake)
	defer server.Close()

	c, err := New(server.URL+"/wsman", Config{
		Username:         testUsername,
		Password:         testPassword,
		Codepage:         437,
		WorkingDirectory: `D:\build`,
		Environment:      map[string]string{"CI": "1"},
		NoProfile:        true,
		IdleTimeout:      5 * time.Minute,
	})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.RunCmd(context.Background(), "ver")
	require.NoError(t, err)

	require.Len(t, fake.creates, 1)
	req := fake.creates[0]
	assert.Contains(t, req, `<w:Option Name="WINRS_CODEPAGE">437</w:Option>`)
	assert.Contains(t, req, `<w:Option Name="WINRS_NOPROFILE">TRUE</w:Option>`)
	assert.Contains(t, req, `<rsp:WorkingDirectory>D:\build</rsp:WorkingDirectory>`)
	assert.Contains(t, req, `<rsp:Variable Name="CI">1</rsp:Variable>`)
	assert.Contains(t, req, `<rsp:IdleTimeOut>PT300S</rsp:IdleTimeOut>`)
}

func TestClient_RunPS(t *testing.T) {
	fake := &fakeWinRM{stdout: "ok", exitCode: 3, stderr: "#< CLIXML\r\n<Objs Version=\"1.1.0.1\"><S S=\"Error\">boom_x000D__x000A_</S></Objs>"}
	server := httptest.NewServer(fake)
	defer server.Close()

	c := newTestClient(t, server.URL+"/wsman")
	res, err := c.RunPS(context.Background(), "Write-Output ok\nthrow 'boom'")
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "boom", string(res.Stderr))
	require.Len(t, fake.commands, 1)
	assert.Contains(t, fake.commands[0], "<rsp:Command>powershell</rsp:Command><rsp:Arguments>-encodedcommand ")
}

func TestClient_RunCmd_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/wsman")
	_, err := c.RunCmd(context.Background(), "dir")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestClient_RunCmd_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestClient(t, url+"/wsman")
	_, err := c.RunCmd(context.Background(), "dir")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestClient_CAFile(t *testing.T) {
	fake := &fakeWinRM{stdout: "secure"}
	server := httptest.NewTLSServer(fake)
	defer server.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	block := &pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw}
	require.NoError(t, os.WriteFile(caFile, pem.EncodeToMemory(block), 0o600))

	c, err := New(server.URL+"/wsman", Config{
		Username: testUsername,
		Password: testPassword,
		UseTLS:   true,
		CAFile:   caFile,
		Proxy:    "direct",
	})
	require.NoError(t, err)
	defer c.Close()

	res, err := c.RunCmd(context.Background(), "hostname")
	require.NoError(t, err)
	assert.Equal(t, "secure", string(res.Stdout))
}

func TestNew_BadCAFile(t *testing.T) {
	notPEM := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(notPEM, []byte("not a certificate"), 0o600))

	for _, path := range []string{notPEM, filepath.Join(t.TempDir(), "missing.pem")} {
		_, err := New("server", Config{Username: testUsername, Password: testPassword, CAFile: path})
		assert.Error(t, err, path)
	}
}

func TestClient_Closed(t *testing.T) {
	c, err := New("server", Config{Username: testUsername, Password: testPassword})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.RunCmd(context.Background(), "dir")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConnection)
	assert.True(t, strings.Contains(err.Error(), "closed"))
}
