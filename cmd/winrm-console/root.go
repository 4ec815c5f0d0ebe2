package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/smnsjas/go-winrm-console/client"
	"github.com/smnsjas/go-winrm-console/internal/config"
	"github.com/smnsjas/go-winrm-console/internal/console"
	"github.com/smnsjas/go-winrm-console/internal/credential"
	logpkg "github.com/smnsjas/go-winrm-console/internal/log"
	"github.com/smnsjas/go-winrm-console/internal/secret"
	"github.com/smnsjas/go-winrm-console/internal/session"
)

// Version is set at build time.
var Version = "dev"

// passwordEnv is read when --password is not given.
const passwordEnv = "WINRM_PASSWORD"

type streams struct {
	in  *os.File
	out io.Writer
	err io.Writer
}

// exitError carries a process exit code out of RunE.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type options struct {
	user       string
	password   string
	transport  string
	encoding   string
	run        string
	port       int
	tls        bool
	insecure   bool
	caFile     string
	proxy      string
	timeout    time.Duration
	codepage   int
	realm      string
	krb5Conf   string
	spn        string
	ccache     string
	configPath string
	noKeyring  bool
	logLevel   string
	logFile    string
}

// run executes the command line and returns the process exit code.
func run(args []string, s streams) int {
	cmd := newRootCmd(s)
	cmd.SetArgs(args)

	err := cmd.Execute()
	var exit *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exit):
		return exit.code
	default:
		_, _ = fmt.Fprintln(s.err, "ERROR:", err)
		return 1
	}
}

func newRootCmd(s streams) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "winrm-console [flags] <host>",
		Short: "Interactive console for remote Windows hosts over WinRM",
		Long: `winrm-console runs cmd.exe commands and PowerShell scripts on a remote
Windows host over WinRM, either once (--run) or in an interactive console.

In the console, Ctrl-T toggles multi-line mode. A block containing line
breaks runs as a PowerShell script; a single line runs as a command.

Usernames and passwords typed at a prompt are saved in the OS keyring
under "winrm:<host>".

Environment Variables:
  WINRM_PASSWORD  Password, used when --password is not given
  KRB5_CONFIG     krb5.conf path for Kerberos
  KRB5CCNAME      Kerberos credential cache`,
		Version:       Version,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, args[0], opts, s)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.user, "user", "", "User name (DOMAIN\\user or user@realm)")
	f.StringVar(&opts.password, "password", "", "Password on the command line (prefer "+passwordEnv+")")
	f.StringVar(&opts.transport, "transport", "", "Authentication: ntlm or kerberos (default ntlm)")
	f.StringVar(&opts.encoding, "encoding", "", "Encoding of remote output (default: terminal encoding)")
	f.StringVar(&opts.run, "run", "", "Run one command or script and exit with its status code")
	f.IntVar(&opts.port, "port", 0, "WinRM port (default 5985, or 5986 with --tls)")
	f.BoolVar(&opts.tls, "tls", false, "Use HTTPS")
	f.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification")
	f.StringVar(&opts.caFile, "ca-file", "", "PEM file of CA certificates to trust for --tls")
	f.StringVar(&opts.proxy, "proxy", "", `HTTP proxy URL, or "direct" to bypass proxy environment variables`)
	f.DurationVar(&opts.timeout, "timeout", 0, "HTTP timeout per WinRM request (default 60s)")
	f.IntVar(&opts.codepage, "codepage", 0, "Remote console code page (default 65001)")
	f.StringVar(&opts.realm, "realm", "", "Kerberos realm")
	f.StringVar(&opts.krb5Conf, "krb5conf", "", "Path to krb5.conf")
	f.StringVar(&opts.spn, "spn", "", "Kerberos service principal (default HTTP/<host>)")
	f.StringVar(&opts.ccache, "ccache", "", "Kerberos credential cache path")
	f.StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/winrm-console/config.yaml)")
	f.BoolVar(&opts.noKeyring, "no-keyring", false, "Do not read or write the OS keyring")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (empty = no logging)")
	f.StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")

	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.err)
	cmd.SetVersionTemplate("winrm-console {{.Version}}\n")

	return cmd
}

// flagSettings returns the settings given explicitly on the command line.
func flagSettings(cmd *cobra.Command, opts *options) config.Settings {
	var s config.Settings
	f := cmd.Flags()
	if f.Changed("port") {
		s.Port = &opts.port
	}
	if f.Changed("tls") {
		s.TLS = &opts.tls
	}
	if f.Changed("insecure") {
		s.Insecure = &opts.insecure
	}
	if f.Changed("timeout") {
		s.Timeout = &opts.timeout
	}
	if f.Changed("codepage") {
		s.Codepage = &opts.codepage
	}
	s.CAFile = opts.caFile
	s.Proxy = opts.proxy
	s.Transport = opts.transport
	s.Encoding = opts.encoding
	s.Realm = opts.realm
	s.Krb5Conf = opts.krb5Conf
	s.SPN = opts.spn
	s.User = opts.user
	return s
}

func runConsole(cmd *cobra.Command, host string, opts *options, s streams) error {
	path := opts.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	file, err := config.Load(path)
	if err != nil {
		return err
	}
	settings := file.Host(host).Merge(flagSettings(cmd, opts))
	if err := settings.Validate(); err != nil {
		return err
	}

	logger, closer, err := logpkg.New(logpkg.Options{Level: opts.logLevel, File: opts.logFile, Stderr: s.err})
	if err != nil {
		return err
	}
	defer closer.Close()

	cfg, err := settings.ClientConfig()
	if err != nil {
		return err
	}
	cfg.CCachePath = opts.ccache
	cfg.Logger = logger

	decoder, err := session.NewDecoder(settings.Encoding)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store secret.Store = secret.NewKeyring()
	if opts.noKeyring {
		store = secret.NewMemory()
	}
	resolver := &credential.Resolver{
		Store:    store,
		Prompter: credential.NewTermPrompter(s.in, s.err),
		Out:      s.out,
		Logger:   logger,
	}

	password := opts.password
	if password == "" {
		password = os.Getenv(passwordEnv)
	}

	var cred credential.Credential
	if cfg.Transport == client.TransportKerberos && password == "" && hasTicketSource(cfg) {
		cred, err = resolver.ResolveUser(ctx, host, settings.User)
	} else {
		cred, err = resolver.Resolve(ctx, host, settings.User, password)
	}
	if err != nil {
		return err
	}
	cfg.Username = cred.Username
	cfg.Password = cred.Password

	c, err := client.New(host, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	dispatcher := session.NewDispatcher(c, decoder, s.out, session.WithLogger(logger))
	state := &console.State{}
	loopCfg := console.Config{
		Username: c.Username(),
		URL:      c.Endpoint(),
		Out:      s.out,
		Logger:   logger,
	}

	if cmd.Flags().Changed("run") {
		loop := console.NewLoop(dispatcher, nil, state, loopCfg)
		return exitCode(loop.RunOnce(ctx, opts.run))
	}

	var reader console.LineReader
	if term.IsTerminal(int(s.in.Fd())) {
		toolbar := func() console.Toolbar {
			return console.NewToolbar(loopCfg.Username, loopCfg.URL, state.Multiline())
		}
		reader = console.NewEditor(state, console.DefaultBindings(), toolbar, console.WithIO(s.in, s.out))
	} else {
		reader = console.NewPlainReader(s.in, s.out)
	}

	loop := console.NewLoop(dispatcher, reader, state, loopCfg)
	return exitCode(loop.Run(ctx))
}

// hasTicketSource reports whether Kerberos can authenticate without a
// password: SSPI on Windows, or a credential cache elsewhere.
func hasTicketSource(cfg client.Config) bool {
	return runtime.GOOS == "windows" || cfg.CCachePath != "" || os.Getenv("KRB5CCNAME") != ""
}

func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}
