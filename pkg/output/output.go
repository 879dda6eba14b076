// Package output prints styled status lines for the wren CLI.
//
// Styling uses lipgloss. When stdout is not a terminal (piped into a file
// or running in CI) the same lines are printed without color or emoji.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	mu          sync.Mutex
	out         io.Writer = os.Stdout
	plain                 = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
	verboseMode bool
)

// SetVerbose enables or disables Verbose lines.
// The CLI calls this when --verbose is set.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

// SetOutput redirects status lines to w, or back to stdout when w is
// nil. Writers other than a terminal get plain text.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
	plain = true
	if f, ok := w.(*os.File); ok {
		plain = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
}

// SetPlain forces or lifts plain output regardless of the writer.
func SetPlain(p bool) {
	mu.Lock()
	defer mu.Unlock()
	plain = p
}

// Plain reports whether lines are printed without styling.
func Plain() bool {
	mu.Lock()
	defer mu.Unlock()
	return plain || termenv.EnvNoColor()
}

func emit(style lipgloss.Style, icon, plainPrefix, msg string) {
	p := Plain()
	mu.Lock()
	defer mu.Unlock()
	if p {
		fmt.Fprintln(out, plainPrefix+msg)
		return
	}
	fmt.Fprintln(out, style.Render(icon+msg))
}

// Success prints a completed operation in green.
//
//	output.Success("Annotated 3 parameters in src/math.ts")
func Success(msg string) {
	emit(successStyle, "🪶 ", "", msg)
}

// Error prints a failure in red.
func Error(msg string) {
	emit(errorStyle, "❌ ", "error: ", msg)
}

// Warn prints something the user should look at but that did not stop
// the run, such as a parameter that could not be annotated.
func Warn(msg string) {
	emit(warnStyle, "⚠️  ", "warning: ", msg)
}

// Info prints a status update in cyan.
func Info(msg string) {
	emit(infoStyle, "ℹ️  ", "", msg)
}

// Step prints an indented sub-item in gray.
//
//	output.Info("src/math.ts")
//	output.Step("f(x: string | number)")
func Step(msg string) {
	emit(stepStyle, "   ", "   ", msg)
}

// Verbose prints a debug line only in verbose mode.
func Verbose(msg string) {
	mu.Lock()
	v := verboseMode
	mu.Unlock()
	if v {
		emit(stepStyle, "🔍 ", "debug: ", msg)
	}
}
