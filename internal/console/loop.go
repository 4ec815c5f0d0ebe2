// Package console drives the interactive read-eval-print loop and the
// one-shot --run mode.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/smnsjas/go-winrm-console/internal/session"
)

// Farewell is printed when the loop ends on end of input or interrupt.
const Farewell = "\nCtrl-C pressed. Bailing out!"

// Dispatcher is the part of session.Dispatcher the loop drives.
type Dispatcher interface {
	Execute(ctx context.Context, line string) (*session.Result, error)
	RenderResult(res *session.Result) *session.Result
	QueryWorkingDirectory(ctx context.Context) (string, error)
}

var _ Dispatcher = (*session.Dispatcher)(nil)

// Config describes the connection shown in the toolbar.
type Config struct {
	Username string
	URL      string
	Out      io.Writer
	Logger   *slog.Logger
}

// Loop runs dispatched lines and renders their results.
type Loop struct {
	dispatcher Dispatcher
	reader     LineReader
	state      *State
	user       string
	url        string
	out        io.Writer
	logger     *slog.Logger
}

// NewLoop creates a loop. reader may be nil for one-shot use.
func NewLoop(d Dispatcher, reader LineReader, state *State, cfg Config) *Loop {
	if state == nil {
		state = &State{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		dispatcher: d,
		reader:     reader,
		state:      state,
		user:       cfg.Username,
		url:        cfg.URL,
		out:        cfg.Out,
		logger:     logger,
	}
}

// Toolbar returns the status line for the current state.
func (l *Loop) Toolbar() Toolbar {
	return NewToolbar(l.user, l.url, l.state.Multiline())
}

// RunOnce executes a single line and returns the process exit code: the
// command's status, or 1 when nothing was produced.
func (l *Loop) RunOnce(ctx context.Context, line string) int {
	res, err := l.dispatcher.Execute(ctx, line)
	if err != nil {
		l.println("ERROR: " + err.Error())
		return 1
	}
	res = l.dispatcher.RenderResult(res)
	if res == nil {
		return 1
	}
	return res.StatusCode
}

// Run is the interactive loop. The prompt is the remote working directory
// queried once at start; if that fails nothing else runs and 1 is
// returned. End of input or interrupt returns 0.
func (l *Loop) Run(ctx context.Context) int {
	cwd, err := l.dispatcher.QueryWorkingDirectory(ctx)
	if err != nil {
		l.println("ERROR: " + err.Error())
		return 1
	}
	prompt := cwd + ">"

	for {
		line, err := l.reader.ReadLine(ctx, prompt)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, ErrInterrupt), ctx.Err() != nil:
			l.println(Farewell)
			return 0
		default:
			l.println("ERROR: " + err.Error())
			return 1
		}

		if err := l.iterate(ctx, line); err != nil {
			if ctx.Err() != nil {
				l.println(Farewell)
				return 0
			}
			l.logger.Debug("iteration failed", "error", err)
			l.println("ERROR: unexpected: " + err.Error())
		}
	}
}

// iterate dispatches and renders one line. A panic is turned into an
// error so a single bad iteration does not end the loop.
func (l *Loop) iterate(ctx context.Context, line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	res, err := l.dispatcher.Execute(ctx, line)
	if err != nil {
		return err
	}
	l.dispatcher.RenderResult(res)
	return nil
}

func (l *Loop) println(s string) {
	if l.out != nil {
		_, _ = fmt.Fprintln(l.out, s)
	}
}
