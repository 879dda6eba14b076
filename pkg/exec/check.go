package exec

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-shellwords"
)

// ErrEmptyCommand is returned for a blank check command.
var ErrEmptyCommand = errors.New("empty command")

// SplitCommand splits a command line into words with shell quoting
// rules. Environment variables and backquotes are left alone, and shell
// operators (&&, |, ;, redirects) outside quotes are rejected: wrap
// them in sh -c '...' instead.
func SplitCommand(line string) ([]string, error) {
	parser := shellwords.NewParser()
	words, err := parser.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("%w in %q", err, line)
	}
	if parser.Position >= 0 {
		return nil, fmt.Errorf("shell operator at offset %d in %q; use sh -c", parser.Position, line)
	}
	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}
	return words, nil
}

// CheckResult is the outcome of a type-check run.
type CheckResult struct {
	Command string
	Output  string // combined output when run behind a spinner
	Err     error  // non-nil when the command failed
}

// Passed reports whether the check exited successfully.
func (r *CheckResult) Passed() bool { return r.Err == nil }

// RunCheck runs the project's type-check command, such as
// "npx tsc --noEmit". With spinner set the command's output is captured
// into the result; otherwise it streams through, each line indented.
// The returned error is only for commands that could not be parsed; a
// failing check is reported in the result.
func (e *Executor) RunCheck(ctx context.Context, command string, spinner bool) (*CheckResult, error) {
	words, err := SplitCommand(command)
	if err != nil {
		return nil, fmt.Errorf("check command: %w", err)
	}

	result := &CheckResult{Command: command}
	if spinner {
		result.Output, result.Err = e.RunWithSpinner(ctx, "Type-checking", words[0], words[1:]...)
		return result, nil
	}

	stdout := NewPrefixWriter(e.stdout, "  │ ")
	stderr := NewPrefixWriter(e.stderr, "  │ ")
	result.Err = e.run(ctx, stdout, stderr, words[0], words[1:]...)
	if err := stdout.Flush(); err != nil && result.Err == nil {
		result.Err = err
	}
	if err := stderr.Flush(); err != nil && result.Err == nil {
		result.Err = err
	}
	return result, nil
}
