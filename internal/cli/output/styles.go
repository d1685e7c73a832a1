package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by commands.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// StatusSuccess and StatusFailed render as status icons via String.
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

var (
	colorAccent  = lipgloss.Color("39")
	colorMuted   = lipgloss.Color("244")
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("214")
	colorError   = lipgloss.Color("196")
)

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1:       r.NewStyle().Bold(true).Foreground(colorAccent),
		Header2:       r.NewStyle().Bold(true),
		Bold:          r.NewStyle().Bold(true),
		Muted:         r.NewStyle().Foreground(colorMuted),
		Success:       r.NewStyle().Foreground(colorSuccess),
		Warning:       r.NewStyle().Foreground(colorWarning),
		Error:         r.NewStyle().Bold(true).Foreground(colorError),
		StatusSuccess: r.NewStyle().Foreground(colorSuccess).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(colorError).SetString("✗"),
	}
}
