package credential

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads values from the operator.
type Prompter interface {
	// Interactive reports whether prompting is possible at all.
	Interactive() bool
	ReadLine(prompt string) (string, error)
	// ReadPassword reads without echo.
	ReadPassword(prompt string) (string, error)
}

// TermPrompter prompts on a terminal.
type TermPrompter struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

// NewTermPrompter reads from in and writes prompts to out.
func NewTermPrompter(in *os.File, out io.Writer) *TermPrompter {
	return &TermPrompter{in: in, out: out, reader: bufio.NewReader(in)}
}

// Interactive implements Prompter.
func (p *TermPrompter) Interactive() bool {
	return term.IsTerminal(int(p.in.Fd()))
}

// ReadLine implements Prompter.
func (p *TermPrompter) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.out, prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadPassword implements Prompter.
func (p *TermPrompter) ReadPassword(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(int(p.in.Fd()))
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
