package console

import "github.com/charmbracelet/lipgloss"

// Toolbar is the status line shown under the input.
type Toolbar struct {
	Connection string
	Multiline  string
}

// NewToolbar renders the toolbar text for the given state.
func NewToolbar(user, url string, multiline bool) Toolbar {
	return Toolbar{
		Connection: " Connected as " + user + " to " + url,
		Multiline:  " Multiline is " + onOff(multiline),
	}
}

func (t Toolbar) String() string {
	return t.Connection + t.Multiline
}

// Styles holds the editor's lipgloss styles.
type Styles struct {
	Connection lipgloss.Style
	Multiline  lipgloss.Style
	Suggestion lipgloss.Style
}

// DefaultStyles returns white-on-green connection and white-on-red mode
// segments.
func DefaultStyles() Styles {
	return Styles{
		Connection: lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#009900")),
		Multiline:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#ee0000")),
		Suggestion: lipgloss.NewStyle().Faint(true),
	}
}

// Render styles both segments.
func (s Styles) Render(t Toolbar) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.Connection.Render(t.Connection), s.Multiline.Render(t.Multiline))
}
