package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxEditorHeight caps how tall the multi-line editor grows.
const maxEditorHeight = 10

// Editor is an interactive LineReader with a status toolbar, history,
// suggestions from history and a multi-line mode.
type Editor struct {
	state    *State
	bindings Bindings
	toolbar  func() Toolbar
	styles   Styles
	history  *History

	input  io.Reader
	output io.Writer
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithStyles overrides the default styles.
func WithStyles(s Styles) EditorOption {
	return func(e *Editor) { e.styles = s }
}

// WithIO sets the terminal input and output. The defaults are the
// process's stdin and stdout.
func WithIO(in io.Reader, out io.Writer) EditorOption {
	return func(e *Editor) {
		e.input = in
		e.output = out
	}
}

// NewEditor creates an editor bound to state. toolbar is called on every
// render so the status line always reflects the current state.
func NewEditor(state *State, bindings Bindings, toolbar func() Toolbar, opts ...EditorOption) *Editor {
	e := &Editor{
		state:    state,
		bindings: bindings,
		toolbar:  toolbar,
		styles:   DefaultStyles(),
		history:  &History{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// History returns the editor's input history.
func (e *Editor) History() *History {
	return e.history
}

// ReadLine implements LineReader.
func (e *Editor) ReadLine(ctx context.Context, prompt string) (string, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if e.input != nil {
		opts = append(opts, tea.WithInput(e.input))
	}
	if e.output != nil {
		opts = append(opts, tea.WithOutput(e.output))
	}

	final, err := tea.NewProgram(e.newModel(prompt), opts...).Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("console: editor: %w", err)
	}

	m, ok := final.(*editorModel)
	if !ok {
		return "", fmt.Errorf("console: editor returned %T", final)
	}
	switch m.outcome {
	case outcomeSubmitted:
		e.history.Add(m.value)
		return m.value, nil
	case outcomeEOF:
		return "", io.EOF
	default:
		return "", ErrInterrupt
	}
}

type outcome int

const (
	outcomePending outcome = iota
	outcomeSubmitted
	outcomeEOF
	outcomeInterrupted
)

type editorModel struct {
	prompt   string
	state    *State
	bindings Bindings
	history  *History
	toolbar  func() Toolbar
	styles   Styles

	single textinput.Model
	multi  textarea.Model

	// histIdx == history.Len() means the operator's own draft is shown.
	histIdx int
	draft   string

	outcome outcome
	value   string
}

func (e *Editor) newModel(prompt string) *editorModel {
	single := textinput.New()
	single.Prompt = prompt
	single.ShowSuggestions = true
	single.SetSuggestions(e.history.Newest())
	single.CompletionStyle = e.styles.Suggestion
	// Up and Down belong to history.
	single.KeyMap.NextSuggestion = key.NewBinding(key.WithKeys("ctrl+n"))
	single.KeyMap.PrevSuggestion = key.NewBinding(key.WithKeys("ctrl+p"))

	promptWidth := lipgloss.Width(prompt)
	multi := textarea.New()
	multi.ShowLineNumbers = false
	multi.CharLimit = 0
	multi.FocusedStyle.CursorLine = lipgloss.NewStyle()
	multi.SetPromptFunc(promptWidth, func(line int) string {
		if line == 0 {
			return prompt
		}
		return strings.Repeat(" ", promptWidth)
	})
	multi.SetHeight(1)

	m := &editorModel{
		prompt:   prompt,
		state:    e.state,
		bindings: e.bindings,
		history:  e.history,
		toolbar:  e.toolbar,
		styles:   e.styles,
		single:   single,
		multi:    multi,
		histIdx:  e.history.Len(),
	}
	if m.state.Multiline() {
		m.multi.Focus()
	} else {
		m.single.Focus()
	}
	return m
}

func (m *editorModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.single.Width = max(msg.Width-lipgloss.Width(m.prompt)-1, 0)
		m.multi.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		multiline := m.state.Multiline()
		switch {
		case key.Matches(msg, m.bindings.Interrupt):
			return m.finish(outcomeInterrupted)
		case key.Matches(msg, m.bindings.EOF) && m.Value() == "":
			return m.finish(outcomeEOF)
		case key.Matches(msg, m.bindings.ToggleMultiline):
			return m, m.toggle()
		case multiline && key.Matches(msg, m.bindings.SubmitMultiline),
			!multiline && key.Matches(msg, m.bindings.Submit, m.bindings.SubmitMultiline):
			return m.finish(outcomeSubmitted)
		case key.Matches(msg, m.bindings.HistoryPrev) && m.onFirstLine():
			m.historyPrev()
			return m, nil
		case key.Matches(msg, m.bindings.HistoryNext) && m.onLastLine():
			m.historyNext()
			return m, nil
		case !multiline && key.Matches(msg, m.bindings.AcceptSuggestion):
			if m.acceptSuggestion() {
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.state.Multiline() {
		m.multi, cmd = m.multi.Update(msg)
		m.multi.SetHeight(min(max(m.multi.LineCount(), 1), maxEditorHeight))
	} else {
		m.single, cmd = m.single.Update(msg)
	}
	return m, cmd
}

func (m *editorModel) View() string {
	if m.outcome != outcomePending {
		// Left on screen once the program exits.
		pad := "\n" + strings.Repeat(" ", lipgloss.Width(m.prompt))
		return m.prompt + strings.ReplaceAll(m.value, "\n", pad) + "\n"
	}

	input := m.single.View()
	if m.state.Multiline() {
		input = m.multi.View()
	}
	return input + "\n" + m.styles.Render(m.toolbar()) + "\n"
}

// Value returns the text in the active input.
func (m *editorModel) Value() string {
	if m.state.Multiline() {
		return m.multi.Value()
	}
	return m.single.Value()
}

func (m *editorModel) setValue(v string) {
	if m.state.Multiline() {
		m.multi.SetValue(v)
		m.multi.SetHeight(min(max(m.multi.LineCount(), 1), maxEditorHeight))
		return
	}
	m.single.SetValue(flatten(v))
	m.single.CursorEnd()
}

func (m *editorModel) finish(o outcome) (tea.Model, tea.Cmd) {
	m.outcome = o
	m.value = m.Value()
	return m, tea.Quit
}

// toggle switches input widgets, carrying the text across. Leaving
// multi-line mode joins the lines with spaces.
func (m *editorModel) toggle() tea.Cmd {
	v := m.Value()
	on := m.state.Toggle()

	var focus tea.Cmd
	if on {
		m.single.Blur()
		focus = m.multi.Focus()
	} else {
		m.multi.Blur()
		focus = m.single.Focus()
	}
	m.setValue(v)

	return tea.Batch(focus, tea.Println(ToggleMessage(on)))
}

func (m *editorModel) onFirstLine() bool {
	return !m.state.Multiline() || m.multi.Line() == 0
}

func (m *editorModel) onLastLine() bool {
	return !m.state.Multiline() || m.multi.Line() >= m.multi.LineCount()-1
}

func (m *editorModel) historyPrev() {
	if m.histIdx == 0 {
		return
	}
	if m.histIdx == m.history.Len() {
		m.draft = m.Value()
	}
	m.histIdx--
	m.setValue(m.history.At(m.histIdx))
}

func (m *editorModel) historyNext() {
	if m.histIdx >= m.history.Len() {
		return
	}
	m.histIdx++
	if m.histIdx == m.history.Len() {
		m.setValue(m.draft)
		return
	}
	m.setValue(m.history.At(m.histIdx))
}

// acceptSuggestion completes the input from history when the cursor is at
// the end of the line.
func (m *editorModel) acceptSuggestion() bool {
	v := m.single.Value()
	if m.single.Position() != len([]rune(v)) {
		return false
	}
	s := m.history.Suggest(v)
	if s == "" {
		return false
	}
	m.single.SetValue(flatten(s))
	m.single.CursorEnd()
	return true
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", " ")
}
