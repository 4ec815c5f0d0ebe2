package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrInterrupt is returned by a LineReader when the operator presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// LineReader reads one unit of input. It returns io.EOF at end of input
// and ErrInterrupt on Ctrl-C.
type LineReader interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// PlainReader reads newline-terminated lines without any editing. It is
// used when stdin is not a terminal.
type PlainReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPlainReader reads from in and writes prompts to out.
func NewPlainReader(in io.Reader, out io.Writer) *PlainReader {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &PlainReader{scanner: s, out: out}
}

// ReadLine implements LineReader.
func (r *PlainReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.out != nil {
		_, _ = fmt.Fprint(r.out, prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}
