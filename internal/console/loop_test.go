package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-winrm-console/internal/session"
)

// fakeDispatcher answers from canned functions and records lines.
type fakeDispatcher struct {
	lines    []string
	rendered []*session.Result
	out      *bytes.Buffer

	execute func(line string) (*session.Result, error)
	cwd     func() (string, error)
}

func (f *fakeDispatcher) Execute(_ context.Context, line string) (*session.Result, error) {
	f.lines = append(f.lines, line)
	if f.execute != nil {
		return f.execute(line)
	}
	return nil, nil
}

func (f *fakeDispatcher) RenderResult(res *session.Result) *session.Result {
	if res != nil {
		f.rendered = append(f.rendered, res)
		f.out.WriteString("rendered " + string(res.Stdout) + "\n")
	}
	return res
}

func (f *fakeDispatcher) QueryWorkingDirectory(context.Context) (string, error) {
	if f.cwd != nil {
		return f.cwd()
	}
	return `C:\Users\alice`, nil
}

// scriptedReader returns lines, then err.
type scriptedReader struct {
	prompts []string
	lines   []string
	err     error
}

func (r *scriptedReader) ReadLine(_ context.Context, prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		if r.err != nil {
			return "", r.err
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func newTestLoop(d *fakeDispatcher, r LineReader) (*Loop, *bytes.Buffer) {
	out := &bytes.Buffer{}
	d.out = out
	return NewLoop(d, r, &State{}, Config{Username: "alice", URL: "http://h:5985/wsman", Out: out}), out
}

func TestRunOnce_ExitCodes(t *testing.T) {
	tests := []struct {
		name    string
		execute func(string) (*session.Result, error)
		want    int
	}{
		{"success", func(string) (*session.Result, error) { return &session.Result{StatusCode: 0}, nil }, 0},
		{"remote status", func(string) (*session.Result, error) { return &session.Result{StatusCode: 3}, nil }, 3},
		{"no result", func(string) (*session.Result, error) { return nil, nil }, 1},
		{"unexpected error", func(string) (*session.Result, error) { return nil, errors.New("boom") }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{execute: tt.execute}
			l, _ := newTestLoop(d, nil)
			assert.Equal(t, tt.want, l.RunOnce(context.Background(), "dir"))
			assert.Equal(t, []string{"dir"}, d.lines)
		})
	}
}

func TestRunOnce_PrintsUnexpectedError(t *testing.T) {
	d := &fakeDispatcher{execute: func(string) (*session.Result, error) { return nil, errors.New("boom") }}
	l, out := newTestLoop(d, nil)

	l.RunOnce(context.Background(), "dir")
	assert.Equal(t, "ERROR: boom\n", out.String())
}

func TestRun_EndOfInput(t *testing.T) {
	d := &fakeDispatcher{}
	r := &scriptedReader{}
	l, out := newTestLoop(d, r)

	assert.Equal(t, 0, l.Run(context.Background()))
	assert.Equal(t, "\nCtrl-C pressed. Bailing out!\n", out.String())
	assert.Equal(t, []string{`C:\Users\alice>`}, r.prompts)
}

func TestRun_Interrupt(t *testing.T) {
	l, out := newTestLoop(&fakeDispatcher{}, &scriptedReader{err: ErrInterrupt})

	assert.Equal(t, 0, l.Run(context.Background()))
	assert.Contains(t, out.String(), "Bailing out!")
}

func TestRun_PromptQueriedOnce(t *testing.T) {
	calls := 0
	d := &fakeDispatcher{
		cwd: func() (string, error) {
			calls++
			return `C:\`, nil
		},
		execute: func(line string) (*session.Result, error) {
			return &session.Result{Stdout: []byte(line)}, nil
		},
	}
	r := &scriptedReader{lines: []string{"cd Windows", "dir"}}
	l, out := newTestLoop(d, r)

	assert.Equal(t, 0, l.Run(context.Background()))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{`C:\>`, `C:\>`, `C:\>`}, r.prompts)
	assert.Equal(t, []string{"cd Windows", "dir"}, d.lines)
	assert.True(t, strings.HasPrefix(out.String(), "rendered cd Windows\nrendered dir\n"))
}

func TestRun_InitialPromptFailure(t *testing.T) {
	d := &fakeDispatcher{cwd: func() (string, error) {
		return "", &session.Error{Kind: session.KindConnection, Err: errors.New("connection refused")}
	}}
	r := &scriptedReader{lines: []string{"dir"}}
	l, out := newTestLoop(d, r)

	assert.Equal(t, 1, l.Run(context.Background()))
	assert.Equal(t, "ERROR: connection refused\n", out.String())
	assert.Empty(t, r.prompts, "loop must not start")
	assert.Empty(t, d.lines)
}

func TestRun_UnexpectedErrorContinues(t *testing.T) {
	d := &fakeDispatcher{execute: func(line string) (*session.Result, error) {
		if line == "bad" {
			return nil, errors.New("boom")
		}
		return &session.Result{Stdout: []byte("ok")}, nil
	}}
	r := &scriptedReader{lines: []string{"bad", "good"}}
	l, out := newTestLoop(d, r)

	assert.Equal(t, 0, l.Run(context.Background()))
	assert.Equal(t, "ERROR: unexpected: boom\nrendered ok\n\nCtrl-C pressed. Bailing out!\n", out.String())
}

func TestRun_PanicContinues(t *testing.T) {
	d := &fakeDispatcher{execute: func(line string) (*session.Result, error) {
		if line == "bad" {
			panic("nil map")
		}
		return nil, nil
	}}
	r := &scriptedReader{lines: []string{"bad", "good"}}
	l, out := newTestLoop(d, r)

	assert.Equal(t, 0, l.Run(context.Background()))
	assert.Contains(t, out.String(), "ERROR: unexpected: panic: nil map")
	assert.Equal(t, []string{"bad", "good"}, d.lines)
}

func TestRun_CancelDuringDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &fakeDispatcher{execute: func(string) (*session.Result, error) {
		cancel()
		return nil, &session.Error{Kind: session.KindUnexpected, Err: context.Canceled}
	}}
	r := &scriptedReader{lines: []string{"ping -t host", "never"}}
	l, out := newTestLoop(d, r)

	assert.Equal(t, 0, l.Run(ctx))
	assert.Equal(t, []string{"ping -t host"}, d.lines)
	assert.Equal(t, Farewell+"\n", out.String())
}

func TestRun_ReaderFailure(t *testing.T) {
	l, out := newTestLoop(&fakeDispatcher{}, &scriptedReader{err: errors.New("tty gone")})

	assert.Equal(t, 1, l.Run(context.Background()))
	assert.Equal(t, "ERROR: tty gone\n", out.String())
}

func TestRun_PlainReader(t *testing.T) {
	d := &fakeDispatcher{execute: func(line string) (*session.Result, error) {
		return &session.Result{Stdout: []byte(line)}, nil
	}}
	var prompts bytes.Buffer
	l, out := newTestLoop(d, NewPlainReader(strings.NewReader("ver\nhostname\n"), &prompts))

	require.Equal(t, 0, l.Run(context.Background()))
	assert.Equal(t, []string{"ver", "hostname"}, d.lines)
	assert.Equal(t, `C:\Users\alice>C:\Users\alice>C:\Users\alice>`, prompts.String())
	assert.Contains(t, out.String(), "rendered hostname")
}

func TestLoop_Toolbar(t *testing.T) {
	state := &State{}
	l := NewLoop(&fakeDispatcher{}, nil, state, Config{Username: "alice", URL: "http://h:5985/wsman"})

	tb := l.Toolbar()
	assert.Equal(t, " Connected as alice to http://h:5985/wsman", tb.Connection)
	assert.Equal(t, " Multiline is off", tb.Multiline)

	state.Toggle()
	assert.Equal(t, " Multiline is ON", l.Toolbar().Multiline)
	assert.Equal(t, " Connected as alice to http://h:5985/wsman Multiline is ON", l.Toolbar().String())
}
