package exec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCommand re-runs the test binary as the named command.
func mockCommand(name string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", name}
	cs = append(cs, args...)
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

// TestHelperProcess stands in for the external commands used below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "no command specified\n")
		os.Exit(1)
	}

	switch args[0] {
	case "echo":
		fmt.Println(strings.Join(args[1:], " "))
		os.Exit(0)
	case "tsc":
		// passes unless asked to report errors
		if len(args) > 1 && args[1] == "--fail" {
			fmt.Println("src/math.ts(1,17): error TS2322: Type 'string' is not assignable to type 'number'.")
			os.Exit(2)
		}
		fmt.Print("no trailing newline")
		os.Exit(0)
	case "sleep":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		os.Exit(1)
	}
}

func newMockExecutor(stdout, stderr *bytes.Buffer) *Executor {
	e := NewExecutor(&Options{Stdout: stdout, Stderr: stderr})
	e.commandFunc = mockCommand
	return e
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor(nil)
	assert.Equal(t, os.Stdout, executor.stdout)
	assert.Equal(t, os.Stderr, executor.stderr)
	assert.NotNil(t, executor.commandFunc)

	var stdout bytes.Buffer
	executor = NewExecutor(&Options{Stdout: &stdout, Dir: "/tmp", Env: []string{"CI=1"}})
	assert.Equal(t, &stdout, executor.stdout)
	assert.Equal(t, os.Stderr, executor.stderr)
	assert.Equal(t, "/tmp", executor.dir)
	assert.Equal(t, []string{"CI=1"}, executor.env)
}

func TestExecutor_Run(t *testing.T) {
	var stdout, stderr bytes.Buffer
	e := newMockExecutor(&stdout, &stderr)

	require.NoError(t, e.Run(context.Background(), "echo", "hello", "world"))
	assert.Equal(t, "hello world\n", stdout.String())

	err := e.Run(context.Background(), "unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown failed")
	assert.Contains(t, stderr.String(), "unknown command")
}

func TestExecutor_RunCancelled(t *testing.T) {
	var stdout, stderr bytes.Buffer
	e := newMockExecutor(&stdout, &stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := e.Run(ctx, "sleep")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecutor_CommandNotFound(t *testing.T) {
	e := NewExecutor(&Options{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	err := e.Run(context.Background(), "wren-no-such-command-xyz")
	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunCheck_Streaming(t *testing.T) {
	var stdout, stderr bytes.Buffer
	e := newMockExecutor(&stdout, &stderr)

	result, err := e.RunCheck(context.Background(), "tsc --fail", false)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	assert.Equal(t, "tsc --fail", result.Command)
	assert.Contains(t, stdout.String(), "  │ src/math.ts(1,17): error TS2322")

	stdout.Reset()
	result, err = e.RunCheck(context.Background(), "tsc", false)
	require.NoError(t, err)
	assert.True(t, result.Passed())
	assert.Equal(t, "  │ no trailing newline\n", stdout.String())
}

func TestRunCheck_Spinner(t *testing.T) {
	var stdout, stderr bytes.Buffer
	e := newMockExecutor(&stdout, &stderr)

	result, err := e.RunCheck(context.Background(), `tsc "--fail"`, true)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	assert.Contains(t, result.Output, "error TS2322")
	assert.Empty(t, stdout.String(), "spinner mode captures output")
}

func TestRunCheck_BadCommand(t *testing.T) {
	e := newMockExecutor(&bytes.Buffer{}, &bytes.Buffer{})

	_, err := e.RunCheck(context.Background(), "   ", false)
	assert.ErrorIs(t, err, ErrEmptyCommand)

	_, err = e.RunCheck(context.Background(), `tsc "--noEmit`, false)
	assert.Error(t, err)
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"npx tsc --noEmit", []string{"npx", "tsc", "--noEmit"}},
		{"  npx   tsc  ", []string{"npx", "tsc"}},
		{`npm run "type check"`, []string{"npm", "run", "type check"}},
		{`sh -c 'tsc -p . && echo "ok"'`, []string{"sh", "-c", `tsc -p . && echo "ok"`}},
		{`echo a\ b`, []string{"echo", "a b"}},
		{`echo ""`, []string{"echo", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := SplitCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr string
	}{
		{"unterminated double quote", `npm run "type check`, "invalid command line string"},
		{"unterminated single quote", `sh -c 'tsc`, "invalid command line string"},
		{"trailing backslash", `tsc \`, "invalid command line string"},
		{"unquoted operator", "tsc --noEmit && eslint .", "use sh -c"},
		{"pipe", "tsc | tee log", "use sh -c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitCommand(tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	for _, blank := range []string{"", "   ", "\t\n"} {
		_, err := SplitCommand(blank)
		assert.ErrorIs(t, err, ErrEmptyCommand, "%q", blank)
	}
}

func TestPrefixWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewPrefixWriter(&buf, "> ")

	_, err := w.Write([]byte("one\ntw"))
	require.NoError(t, err)
	assert.Equal(t, "> one\n", buf.String())

	_, err = w.Write([]byte("o\nthree"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	assert.Equal(t, "> one\n> two\n> three\n", buf.String())

	require.NoError(t, w.Flush())
	assert.Equal(t, "> one\n> two\n> three\n", buf.String(), "second flush writes nothing")
}
