// Package render provides terminal output for the commitwise CLI: the
// generated message, styled warnings and notes, and error reports.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Options configures the renderer.
type Options struct {
	// Output receives the commit message. Defaults to os.Stdout.
	Output io.Writer

	// Errors receives warnings, notes and errors. Defaults to os.Stderr.
	Errors io.Writer

	// ColorEnabled controls whether ANSI styling is used.
	ColorEnabled bool
}

// DefaultOptions styles output only when stdout is a terminal, so a piped
// message stays plain.
func DefaultOptions() Options {
	return Options{
		Output:       os.Stdout,
		Errors:       os.Stderr,
		ColorEnabled: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

type styles struct {
	box     lipgloss.Style
	label   lipgloss.Style
	warning lipgloss.Style
	error   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
}

// Renderer writes user-facing output. It satisfies config.Notifier.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	color  bool
	styles styles
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Errors == nil {
		opts.Errors = os.Stderr
	}

	lr := lipgloss.NewRenderer(opts.Errors)
	return &Renderer{
		out:    opts.Output,
		errOut: opts.Errors,
		color:  opts.ColorEnabled,
		styles: styles{
			box: lipgloss.NewRenderer(opts.Output).NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(0, 1),
			label:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
			warning: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
			error:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			muted:   lr.NewStyle().Foreground(lipgloss.Color("245")),
			success: lr.NewStyle().Foreground(lipgloss.Color("42")),
		},
	}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Warn reports a recoverable problem on the error stream.
func (r *Renderer) Warn(msg, hint string) {
	fmt.Fprintf(r.errOut, "%s %s\n", r.style(r.styles.warning, "Warning:"), msg)
	if hint != "" {
		for _, line := range strings.Split(hint, "\n") {
			fmt.Fprintf(r.errOut, "  %s\n", r.style(r.styles.muted, line))
		}
	}
}

// Info writes an informational note on the error stream.
func (r *Renderer) Info(msg string) {
	fmt.Fprintln(r.errOut, r.style(r.styles.muted, msg))
}

// Success writes a confirmation on the error stream.
func (r *Renderer) Success(msg string) {
	fmt.Fprintln(r.errOut, r.style(r.styles.success, msg))
}

// Error reports a fatal error on the error stream.
func (r *Renderer) Error(err error) {
	fmt.Fprintf(r.errOut, "%s %v\n", r.style(r.styles.error, "Error:"), err)
}

// Diagnostic writes a pre-formatted multi-line report, such as a config
// syntax diagnostic, on the error stream.
func (r *Renderer) Diagnostic(text string) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(r.errOut, r.style(r.styles.error, lines[0]))
	for _, line := range lines[1:] {
		fmt.Fprintln(r.errOut, line)
	}
}

// Message writes the commit message. With styling it is framed in a box;
// otherwise it is written verbatim so it can be piped.
func (r *Renderer) Message(message string) {
	if !r.color {
		fmt.Fprintln(r.out, message)
		return
	}
	fmt.Fprintln(r.out, r.styles.box.Render(message))
}

// KeyValue writes an aligned "key: value" line to the output stream.
func (r *Renderer) KeyValue(key, value string, width int) {
	label := key + ":"
	if pad := width - lipgloss.Width(label); pad > 0 {
		label += strings.Repeat(" ", pad)
	}
	fmt.Fprintf(r.out, "  %s %s\n", r.style(r.styles.label, label), value)
}

// Heading writes a section heading to the output stream.
func (r *Renderer) Heading(text string) {
	fmt.Fprintln(r.out, r.style(r.styles.label, text))
}
