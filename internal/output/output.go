// Package output provides consistent CLI output formatting.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Writer provides formatted output for CLI commands. Icons are only
// emitted on interactive terminals; piped output stays plain.
type Writer struct {
	out   io.Writer
	plain bool
}

// New creates a Writer. Plain mode is detected from the destination:
// anything that is not a terminal gets text-only output.
func New(out io.Writer) *Writer {
	plain := true
	if f, ok := out.(*os.File); ok {
		plain = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	return &Writer{out: out, plain: plain}
}

// NewPlain creates a Writer that never emits icons, for tests and
// machine-read output.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out, plain: true}
}

// Status prints a message with an icon prefix.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon == "" || w.plain {
		_, _ = fmt.Fprintf(w.out, "%s\n", msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
}

// Statusf prints a formatted message with an icon prefix.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Match prints one search result line: location, then the matched
// line with the hit region marked.
func (w *Writer) Match(location, text string, start, length int) {
	if start < 0 || start+length > len(text) {
		_, _ = fmt.Fprintf(w.out, "%s: %s\n", location, text)
		return
	}
	marked := text[:start] + "[" + text[start:start+length] + "]" + text[start+length:]
	_, _ = fmt.Fprintf(w.out, "%s: %s\n", location, marked)
}

// Indent prints a block of text indented two spaces.
func (w *Writer) Indent(content string) {
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
