package winrs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/smnsjas/go-winrm-console/wsman"
)

// DefaultIdleTimeout is how long the server keeps an unused shell.
const DefaultIdleTimeout = 30 * time.Minute

// shellOptions are the creation-time properties of a shell.
type shellOptions struct {
	workingDir  string
	environment map[string]string
	idleTimeout time.Duration
	codepage    int
	noProfile   bool
}

// spec renders the options as a wsman shell description. The profile is
// loaded unless WithNoProfile was given, and the codepage option is only
// sent when one was chosen.
func (o shellOptions) spec() wsman.ShellSpec {
	noProfile := "FALSE"
	if o.noProfile {
		noProfile = "TRUE"
	}
	spec := wsman.ShellSpec{
		ResourceURI:      wsman.ResourceURIWinRS,
		Options:          map[string]string{"WINRS_NOPROFILE": noProfile},
		WorkingDirectory: o.workingDir,
		Environment:      o.environment,
	}
	if o.codepage > 0 {
		spec.Options["WINRS_CODEPAGE"] = strconv.Itoa(o.codepage)
	}
	if secs := int(o.idleTimeout / time.Second); secs > 0 {
		spec.IdleTimeout = "PT" + strconv.Itoa(secs) + "S"
	}
	return spec
}

// Option configures a Shell.
type Option func(*shellOptions)

// WithWorkingDirectory starts the shell in dir.
func WithWorkingDirectory(dir string) Option {
	return func(o *shellOptions) { o.workingDir = dir }
}

// WithEnvironment adds variables to the shell's environment.
func WithEnvironment(env map[string]string) Option {
	return func(o *shellOptions) { o.environment = env }
}

// WithIdleTimeout overrides DefaultIdleTimeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *shellOptions) { o.idleTimeout = d }
}

// WithCodepage sets the console codepage the remote side writes output in,
// e.g. 437 (OEM US) or 65001 (UTF-8).
func WithCodepage(cp int) Option {
	return func(o *shellOptions) { o.codepage = cp }
}

// WithNoProfile skips loading the user profile.
func WithNoProfile() Option {
	return func(o *shellOptions) { o.noProfile = true }
}

// Shell is one cmd.exe shell on the remote host. Commands run in it one
// at a time through Run or Start.
type Shell struct {
	transport Transport
	epr       *wsman.EndpointReference

	mu     sync.Mutex
	closed bool
}

// NewShell asks the server for a new shell.
func NewShell(ctx context.Context, transport Transport, opts ...Option) (*Shell, error) {
	if transport == nil {
		return nil, errors.New("winrs: transport is nil")
	}

	o := shellOptions{idleTimeout: DefaultIdleTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	epr, err := transport.Create(ctx, o.spec())
	if err != nil {
		return nil, fmt.Errorf("winrs: create shell: %w", err)
	}
	return &Shell{transport: transport, epr: epr}, nil
}

// ID returns the server-assigned shell ID.
func (s *Shell) ID() string {
	return s.epr.ShellID()
}

func (s *Shell) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close deletes the shell on the server. Only the first call does anything.
func (s *Shell) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.transport.Delete(ctx, s.epr); err != nil {
		return fmt.Errorf("winrs: delete shell %s: %w", s.ID(), err)
	}
	return nil
}
