// Package output provides CLI rendering helpers shared by the
// sqlscribe subcommands.
package output

import (
	"fmt"
	"io"
)

// Mode selects the output format for command results.
type Mode string

const (
	ModeTable    Mode = "table"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeMarkdown Mode = "md"
)

// ParseMode normalizes a format string to a Mode, defaulting to table.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeJSON, ModeCSV, ModeMarkdown:
		return Mode(s)
	case "markdown":
		return ModeMarkdown
	default:
		return ModeTable
	}
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer for the given writers and mode.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		styles: NewStyles(out),
	}
}

// Writer returns the primary output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Mode returns the active output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Styles returns the terminal styles for the output writer.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to the primary output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the primary output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// FormatKeyValue formats a "Key: value" line for detail views.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("%s: %s", key, value)
}
