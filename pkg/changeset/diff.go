package changeset

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// DiffOptions configures unified diff rendering. Zero values select the
// defaults.
type DiffOptions struct {
	// Context is the number of unchanged lines around each change.
	// Default: 3
	Context int
	// TabWidth expands tabs for display. Default: 4
	TabWidth int
	// Width truncates long lines. Default: the terminal width.
	Width int
	// Color styles the diff with lipgloss.
	Color bool
}

func (o DiffOptions) withDefaults() DiffOptions {
	if o.Context <= 0 {
		o.Context = 3
	}
	if o.TabWidth <= 0 {
		o.TabWidth = 4
	}
	if o.Width <= 0 {
		o.Width = TerminalWidth()
	}
	return o
}

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("22"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("52"))
)

// maxDiffLines bounds the inputs the differ will compare line by line.
const maxDiffLines = 20000

type lineOp int

const (
	opEqual lineOp = iota
	opInsert
	opDelete
)

type diffLine struct {
	op   lineOp
	text string
	old  int // 1-based line in the old text, 0 for inserts
	new  int // 1-based line in the new text, 0 for deletes
}

// Differ renders unified diffs. Its buffers are reused between calls, so
// a Differ must not be shared between goroutines.
type Differ struct {
	v     []int
	trace [][]int
}

// NewDiffer creates a Differ.
func NewDiffer() *Differ {
	return &Differ{}
}

// Unified returns a unified diff of old and updated, labelled with path.
// Identical inputs produce "".
func (d *Differ) Unified(path string, old, updated []byte, opts DiffOptions) string {
	opts = opts.withDefaults()

	if bytes.Equal(old, updated) {
		return ""
	}
	if isBinary(old) || isBinary(updated) {
		return fmt.Sprintf("Binary file %s differs\n", path)
	}

	a, b := splitLines(string(old)), splitLines(string(updated))
	if len(a) > maxDiffLines || len(b) > maxDiffLines {
		return fmt.Sprintf("%s: too large to diff (%d and %d lines)\n", path, len(a), len(b))
	}

	script := d.script(a, b)
	hunks := groupHunks(script, opts.Context)
	if len(hunks) == 0 {
		// only the trailing newline changed
		hunks = [][]diffLine{script[max(0, len(script)-1):]}
	}

	var out strings.Builder
	out.WriteString(paint(opts, headerStyle, "--- a/"+path) + "\n")
	out.WriteString(paint(opts, headerStyle, "+++ b/"+path) + "\n")
	for _, h := range hunks {
		writeHunk(&out, h, opts)
	}
	return out.String()
}

// Stat counts the lines added and removed between old and updated.
func (d *Differ) Stat(old, updated []byte) (added, removed int) {
	for _, l := range d.script(splitLines(string(old)), splitLines(string(updated))) {
		switch l.op {
		case opInsert:
			added++
		case opDelete:
			removed++
		}
	}
	return added, removed
}

// script computes a shortest edit script from a to b with the greedy
// O(ND) algorithm, keeping one V array per step for the backtrack.
func (d *Differ) script(a, b []string) []diffLine {
	n, m := len(a), len(b)
	limit := n + m
	offset := limit + 1
	size := 2*limit + 3

	if cap(d.v) < size {
		d.v = make([]int, size)
	}
	v := d.v[:size]
	for i := range v {
		v[i] = 0
	}
	d.trace = d.trace[:0]

	found := false
	for step := 0; step <= limit && !found; step++ {
		for k := -step; k <= step; k += 2 {
			var x int
			if k == -step || (k != step && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				found = true
				break
			}
		}
		snapshot := make([]int, size)
		copy(snapshot, v)
		d.trace = append(d.trace, snapshot)
	}

	var rev []diffLine
	x, y := n, m
	for step := len(d.trace) - 1; step >= 0; step-- {
		k := x - y
		var prevK int
		if step == 0 {
			prevK = k
		} else {
			prev := d.trace[step-1]
			if k == -step || (k != step && prev[offset+k-1] < prev[offset+k+1]) {
				prevK = k + 1
			} else {
				prevK = k - 1
			}
		}

		prevX := 0
		if step > 0 {
			prevX = d.trace[step-1][offset+prevK]
		}
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			rev = append(rev, diffLine{op: opEqual, text: a[x], old: x + 1, new: y + 1})
		}
		if step == 0 {
			break
		}
		if x == prevX {
			y--
			rev = append(rev, diffLine{op: opInsert, text: b[y], new: y + 1})
		} else {
			x--
			rev = append(rev, diffLine{op: opDelete, text: a[x], old: x + 1})
		}
	}

	script := make([]diffLine, len(rev))
	for i, l := range rev {
		script[len(rev)-1-i] = l
	}
	return script
}

// groupHunks cuts the script into hunks of changes with context lines on
// both sides. Changes closer than twice the context share a hunk.
func groupHunks(script []diffLine, context int) [][]diffLine {
	var hunks [][]diffLine
	start, end := -1, -1
	for i, l := range script {
		if l.op == opEqual {
			continue
		}
		lo := max(0, i-context)
		hi := min(len(script), i+context+1)
		if start >= 0 && lo <= end {
			end = hi
			continue
		}
		if start >= 0 {
			hunks = append(hunks, script[start:end])
		}
		start, end = lo, hi
	}
	if start >= 0 {
		hunks = append(hunks, script[start:end])
	}
	return hunks
}

func writeHunk(out *strings.Builder, h []diffLine, opts DiffOptions) {
	var oldStart, newStart, oldCount, newCount int
	for _, l := range h {
		if l.old > 0 && oldStart == 0 {
			oldStart = l.old
		}
		if l.new > 0 && newStart == 0 {
			newStart = l.new
		}
		if l.op != opInsert {
			oldCount++
		}
		if l.op != opDelete {
			newCount++
		}
	}

	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount)
	out.WriteString(paint(opts, hunkStyle, header) + "\n")

	for _, l := range h {
		text := truncate(expandTabs(l.text, opts.TabWidth), opts.Width-2)
		switch l.op {
		case opInsert:
			out.WriteString(paint(opts, addedStyle, "+"+text))
		case opDelete:
			out.WriteString(paint(opts, removedStyle, "-"+text))
		default:
			out.WriteString(" " + text)
		}
		out.WriteString("\n")
	}
}

func paint(opts DiffOptions, style lipgloss.Style, s string) string {
	if !opts.Color {
		return s
	}
	return style.Render(s)
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), 8192)], 0) >= 0
}

// splitLines splits on newlines. A final newline does not start an
// empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func expandTabs(s string, width int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			pad := width - col%width
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

func truncate(s string, width int) string {
	if width < 4 || utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-1]) + "…"
}

// TerminalWidth returns the width of the terminal on stdout, or 80.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
