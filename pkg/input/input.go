// Package input asks the user questions on the terminal.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	reader *bufio.Reader = bufio.NewReader(os.Stdin)
	writer io.Writer     = os.Stdout
)

// SetIO replaces stdin and stdout for prompts. Tests use it to script
// answers.
func SetIO(r io.Reader, w io.Writer) {
	reader = bufio.NewReader(r)
	writer = w
}

// Interactive reports whether stdin is a terminal a user can answer on.
func Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Prompt asks for text input. An empty answer returns defaultValue.
//
//	cmd := input.Prompt("Check command", "npx tsc --noEmit")
//	// Check command (npx tsc --noEmit): _
func Prompt(message, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprint(writer, promptStyle.Render(message)+" "+
			hintStyle.Render(fmt.Sprintf("(%s)", defaultValue))+": ")
	} else {
		fmt.Fprint(writer, promptStyle.Render(message)+": ")
	}

	answer, err := reader.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "" || (err != nil && err != io.EOF) {
		return defaultValue
	}
	return answer
}

// Confirm asks a yes/no question. Enter alone returns defaultYes.
//
//	if input.Confirm("Write 3 files?", true) {
//	    // Write 3 files? [Y/n]: _
//	}
func Confirm(message string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprint(writer, promptStyle.Render(message)+" "+hintStyle.Render(hint)+": ")

	answer, err := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer == "" || (err != nil && err != io.EOF) {
		return defaultYes
	}
	return answer == "y" || answer == "yes"
}
