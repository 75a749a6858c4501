package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Styles holds the lipgloss styles used across commands.
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles builds styles for the given writer. Colors are disabled when
// the writer is not a terminal or the environment requests no color.
func NewStyles(w io.Writer) *Styles {
	if !colorEnabled(w) {
		plain := lipgloss.NewStyle()
		return &Styles{
			Title:   plain,
			Success: plain,
			Warning: plain,
			Error:   plain,
			Info:    plain,
			Muted:   plain,
		}
	}

	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Muted:   lipgloss.NewStyle().Faint(true),
	}
}

func colorEnabled(w io.Writer) bool {
	if termenv.EnvNoColor() {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
