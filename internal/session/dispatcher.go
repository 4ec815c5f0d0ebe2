// Package session turns console input lines into remote cmd.exe or
// PowerShell invocations and renders their results.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/smnsjas/go-winrm-console/client"
)

// Remote runs commands on one host. *client.Client satisfies it.
type Remote interface {
	RunCmd(ctx context.Context, command string, args ...string) (*client.CmdResult, error)
	RunPS(ctx context.Context, script string) (*client.CmdResult, error)
}

var _ Remote = (*client.Client)(nil)

// Result is the outcome of one dispatched line. It owns copies of the
// output so it is safe to keep after the remote call returns.
type Result struct {
	StatusCode int
	Stdout     []byte
	Stderr     []byte
}

func newResult(r *client.CmdResult) *Result {
	return &Result{
		StatusCode: r.ExitCode,
		Stdout:     append([]byte(nil), r.Stdout...),
		Stderr:     append([]byte(nil), r.Stderr...),
	}
}

// Dispatcher owns the remote session for the console's lifetime. It is not
// safe for concurrent use; the console dispatches one line at a time.
type Dispatcher struct {
	remote  Remote
	decoder *Decoder
	out     io.Writer
	logger  *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for dispatch tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher writing rendered output to out.
func NewDispatcher(remote Remote, decoder *Decoder, out io.Writer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		remote:  remote,
		decoder: decoder,
		out:     out,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DispatchLine runs line remotely. A blank line returns nil without a
// remote call. A line with an embedded newline runs as one PowerShell
// script; anything else is split on whitespace into a command and its
// arguments. Failures are returned as *Error.
func (d *Dispatcher) DispatchLine(ctx context.Context, line string) (*Result, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	var (
		res *client.CmdResult
		err error
	)
	if strings.Contains(line, "\n") {
		d.logger.Debug("dispatching script", "lines", strings.Count(line, "\n")+1)
		res, err = d.remote.RunPS(ctx, line)
	} else {
		fields := strings.Fields(line)
		d.logger.Debug("dispatching command", "command", fields[0], "arg_count", len(fields)-1)
		res, err = d.remote.RunCmd(ctx, fields[0], fields[1:]...)
	}
	if err != nil {
		return nil, classify(err)
	}
	return newResult(res), nil
}

// Execute dispatches line and absorbs recoverable failures: they are
// printed as "ERROR: <message>" and reported as a nil result. Any other
// error is returned for the caller to handle.
func (d *Dispatcher) Execute(ctx context.Context, line string) (*Result, error) {
	res, err := d.DispatchLine(ctx, line)
	if err == nil {
		return res, nil
	}

	se := classify(err)
	if !se.Recoverable() {
		return nil, se
	}
	d.logger.Debug("command failed", "kind", se.Kind.String(), "error", se.Err)
	d.println("ERROR: " + se.Error())
	return nil, nil
}

// RenderResult prints res and returns it. A non-zero status prints only
// stderr as "ERROR (<code>): ..."; a zero status prints stdout, then any
// stderr as "ERROR: ...". Undecodable output is reported, never fatal.
func (d *Dispatcher) RenderResult(res *Result) *Result {
	if res == nil {
		return nil
	}

	if res.StatusCode != 0 {
		if text, ok := d.decode(res.Stderr); ok {
			d.println(fmt.Sprintf("ERROR (%d): %s", res.StatusCode, text))
		}
		return res
	}

	if text, ok := d.decode(res.Stdout); ok {
		d.println(text)
	}
	if len(res.Stderr) > 0 {
		if text, ok := d.decode(res.Stderr); ok {
			d.println("ERROR: " + text)
		}
	}
	return res
}

// QueryWorkingDirectory returns the remote current directory, as printed
// by cd with no arguments.
func (d *Dispatcher) QueryWorkingDirectory(ctx context.Context) (string, error) {
	res, err := d.DispatchLine(ctx, "cd")
	if err != nil {
		return "", err
	}

	text, err := d.decoder.Decode(res.Stdout)
	if err != nil {
		return "", classify(err)
	}
	return strings.TrimSpace(text), nil
}

func (d *Dispatcher) decode(b []byte) (string, bool) {
	text, err := d.decoder.Decode(b)
	if err != nil {
		d.println("ERROR: " + err.Error())
		return "", false
	}
	return text, true
}

func (d *Dispatcher) println(s string) {
	_, _ = fmt.Fprintln(d.out, s)
}
