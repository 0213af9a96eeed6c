// Package output provides formatted console output for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer handles CLI output formatting.
type Writer struct {
	out   io.Writer
	err   io.Writer
	color bool
	quiet bool

	styles styles
}

type styles struct {
	plain   lipgloss.Style
	bold    lipgloss.Style
	dim     lipgloss.Style
	accent  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		plain:   r.NewStyle(),
		bold:    r.NewStyle().Bold(true),
		dim:     r.NewStyle().Faint(true),
		accent:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// New creates a new Writer with default settings.
func New() *Writer {
	return &Writer{
		out:    os.Stdout,
		err:    os.Stderr,
		color:  isTerminal(os.Stdout),
		styles: newStyles(os.Stdout),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{
		out:    out,
		err:    err,
		color:  color,
		styles: newStyles(out),
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// SetColor forces color on or off.
func (w *Writer) SetColor(color bool) {
	w.color = color
}

// Out returns the stdout writer, e.g. for streaming child process output.
func (w *Writer) Out() io.Writer {
	return w.out
}

// Err returns the stderr writer.
func (w *Writer) Err() io.Writer {
	return w.err
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// errorln writes a line to stderr.
func (w *Writer) errorln(format string, args ...interface{}) {
	fmt.Fprintf(w.err, format+"\n", args...)
}

// paint renders s with style when color is enabled.
func (w *Writer) paint(style lipgloss.Style, s string) string {
	if !w.color {
		return s
	}
	return style.Render(s)
}

// Warning prints a warning message to stderr.
func (w *Writer) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.errorln("%s %s", w.paint(w.styles.warning, "warning:"), msg)
}

// ErrorPrefix prints an error message with crucible prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.errorln("%s %s", w.paint(w.styles.failure, "crucible:"), msg)
}

// TaskStart prints the start marker for a task.
func (w *Writer) TaskStart(name, mode string) {
	if w.quiet {
		return
	}
	w.Println("")
	label := fmt.Sprintf("─── [%s] %s ───", name, mode)
	w.Println("%s", w.paint(w.styles.accent, label))
}

// TaskDone prints the terminal marker for a task: its name, status and
// elapsed seconds. Failures are printed even in quiet mode.
func (w *Writer) TaskDone(name, status string, seconds float64, passed bool) {
	if w.quiet && passed {
		return
	}
	line := fmt.Sprintf("[%s] %s in %.1fs", name, status, seconds)
	if passed {
		w.Println("%s", w.paint(w.styles.success, line))
		return
	}
	w.Println("%s", w.paint(w.styles.failure, line))
}

var headerCaser = cases.Upper(language.English)

// Table prints a simple table. Headers are upper-cased.
func (w *Writer) Table(headers []string, rows [][]string) {
	w.table(headers, rows, nil)
}

// StatusTable prints a table whose statusCol cells are colored by outcome:
// green for "pass", yellow for "timeout", red for anything else.
func (w *Writer) StatusTable(headers []string, rows [][]string, statusCol int) {
	w.table(headers, rows, func(col int, cell string) lipgloss.Style {
		if col != statusCol {
			return w.styles.plain
		}
		switch {
		case cell == "pass":
			return w.styles.success
		case cell == "timeout":
			return w.styles.warning
		default:
			return w.styles.failure
		}
	})
}

func (w *Writer) table(headers []string, rows [][]string, style func(col int, cell string) lipgloss.Style) {
	widths := make([]int, len(headers))
	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = headerCaser.String(h)
		widths[i] = len(upper[i])
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerParts := make([]string, 0, len(upper))
	for i, h := range upper {
		headerParts = append(headerParts, fmt.Sprintf("%-*s", widths[i], h))
	}
	w.Println("%s", w.paint(w.styles.bold, strings.TrimRight(strings.Join(headerParts, "  "), " ")))

	sepParts := make([]string, 0, len(widths))
	for _, width := range widths {
		sepParts = append(sepParts, strings.Repeat("-", width))
	}
	w.Println("%s", strings.Join(sepParts, "  "))

	for _, row := range rows {
		var rowParts []string
		for i, cell := range row {
			if i >= len(widths) {
				continue
			}
			padded := fmt.Sprintf("%-*s", widths[i], cell)
			if style != nil && w.color {
				// Pad before styling so escape codes do not skew the columns.
				padded = style(i, cell).Render(cell) + strings.Repeat(" ", widths[i]-len(cell))
			}
			rowParts = append(rowParts, padded)
		}
		w.Println("%s", strings.TrimRight(strings.Join(rowParts, "  "), " "))
	}
}

// SummaryHeader prints a summary section header.
func (w *Writer) SummaryHeader(title string) {
	w.Println("")
	w.Println("%s", w.paint(w.styles.accent, fmt.Sprintf("=== %s ===", title)))
	w.Println("")
}

// SummaryItem prints a labeled summary item with value.
func (w *Writer) SummaryItem(label, value string) {
	w.Println("  %s %s", w.paint(w.styles.dim, label+":"), value)
}

// SummaryPassed prints a passed items summary.
func (w *Writer) SummaryPassed(label, value string) {
	w.Println("  %s %s", w.paint(w.styles.dim, label+":"), w.paint(w.styles.success, value))
}

// SummaryFailed prints a failed items summary.
func (w *Writer) SummaryFailed(label, value string) {
	w.Println("  %s %s", w.paint(w.styles.dim, label+":"), w.paint(w.styles.failure, value))
}

// FinalSuccess prints a final success message.
func (w *Writer) FinalSuccess(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.paint(w.styles.success, fmt.Sprintf(format, args...)))
}

// FinalFailure prints a final failure message.
func (w *Writer) FinalFailure(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.paint(w.styles.failure, fmt.Sprintf(format, args...)))
}

// DryRunStart prints the dry run header.
func (w *Writer) DryRunStart() {
	w.Println("")
	w.Println("%s", w.paint(w.styles.warning, "=== DRY RUN ==="))
	w.Println("")
}

// DryRunEnd prints the dry run footer.
func (w *Writer) DryRunEnd() {
	w.Println("")
	w.Println("%s", w.paint(w.styles.warning, "=== END DRY RUN ==="))
}

// Hint prints a hint message for the user.
func (w *Writer) Hint(format string, args ...interface{}) {
	w.Println("%s", w.paint(w.styles.dim, fmt.Sprintf(format, args...)))
}

// isTerminal returns true if f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
