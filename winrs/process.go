package winrs

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/smnsjas/go-winrm-console/wsman"
)

// Process is one command started in a Shell. Output accumulates across
// Receive polls until the server reports the command done.
type Process struct {
	shell     *Shell
	commandID string

	mu       sync.Mutex
	stdout   []byte
	stderr   []byte
	exitCode int
	done     bool
}

// Run starts executable, collects all of its output and then tells the
// server to release the command. Arguments are passed on as one string
// joined by spaces, so cmd.exe applies its own quoting rules.
func (s *Shell) Run(ctx context.Context, executable string, args ...string) (*Process, error) {
	proc, err := s.Start(ctx, executable, args...)
	if err != nil {
		return nil, err
	}
	if err := proc.Wait(ctx); err != nil {
		return nil, err
	}

	// A failed release does not affect the collected output.
	_ = proc.Signal(ctx, wsman.SignalTerminate)
	return proc, nil
}

// Start launches executable and returns without reading output.
func (s *Shell) Start(ctx context.Context, executable string, args ...string) (*Process, error) {
	if s.isClosed() {
		return nil, ErrShellClosed
	}
	if strings.TrimSpace(executable) == "" {
		return nil, ErrInvalidExecutable
	}

	id, err := s.transport.Command(ctx, s.epr, executable, strings.Join(args, " "))
	if err != nil {
		return nil, fmt.Errorf("winrs: start %s: %w", executable, err)
	}
	return &Process{shell: s, commandID: id}, nil
}

// Wait polls the server until the command has finished or ctx ends.
func (p *Process) Wait(ctx context.Context) error {
	for !p.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := p.shell.transport.Receive(ctx, p.shell.epr, p.commandID)
		if err != nil {
			return fmt.Errorf("winrs: receive: %w", err)
		}
		p.collect(res)
	}
	return nil
}

func (p *Process) collect(res *wsman.ReceiveResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stdout = append(p.stdout, res.Stdout...)
	p.stderr = append(p.stderr, res.Stderr...)
	if res.Done {
		p.done = true
		p.exitCode = res.ExitCode
	}
}

// mapStderr replaces the collected stderr with fn(stderr).
func (p *Process) mapStderr(fn func([]byte) []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stderr = fn(p.stderr)
}

// Signal delivers code, such as wsman.SignalCtrlC, to the command.
func (p *Process) Signal(ctx context.Context, code string) error {
	if err := p.shell.transport.Signal(ctx, p.shell.epr, p.commandID, code); err != nil {
		return fmt.Errorf("winrs: signal %s: %w", p.commandID, err)
	}
	return nil
}

// CommandID returns the server-assigned command ID.
func (p *Process) CommandID() string {
	return p.commandID
}

// Done reports whether the server has reported completion.
func (p *Process) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Stdout returns everything read from stdout so far.
func (p *Process) Stdout() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdout
}

// Stderr returns everything read from stderr so far.
func (p *Process) Stderr() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stderr
}

// ExitCode returns the command's exit code; it is zero until Done.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}
