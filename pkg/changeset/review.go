package changeset

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user quits a review. Nothing should
// be written.
var ErrCancelled = errors.New("review cancelled")

// Change is one file rewrite waiting for review.
type Change struct {
	Path     string
	Display  string // path shown to the user
	Original []byte
	Updated  []byte
	Hash     uint64 // xxh3 of the content Original was loaded from; 0 hashes Original
}

func (c Change) name() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Path
}

// Decision is the outcome of reviewing one change.
type Decision int

const (
	Apply Decision = iota
	Skip
	ShowDiff
	ApplyRest
	Quit
)

// Strategy decides what happens to each change.
type Strategy interface {
	Review(c Change) (Decision, error)
}

// Review runs every change through strategy and returns the accepted
// ones in order. ApplyRest accepts the current change and every later
// one without asking.
func Review(changes []Change, strategy Strategy) ([]Change, error) {
	var accepted []Change
	for i, c := range changes {
		d, err := strategy.Review(c)
		if err != nil {
			return nil, err
		}
		switch d {
		case Apply:
			accepted = append(accepted, c)
		case ApplyRest:
			return append(accepted, changes[i:]...), nil
		case Quit:
			return nil, ErrCancelled
		}
	}
	return accepted, nil
}

// Mode names a review strategy.
type Mode int

const (
	ModeInteractive Mode = iota
	ModeApply            // --yes
	ModeDryRun           // --dry-run
	ModeDiff             // --diff: print each diff, then confirm
)

// SelectMode maps CLI flags to a Mode.
func SelectMode(yes, dryRun, diff bool) (Mode, error) {
	switch {
	case yes && dryRun:
		return 0, fmt.Errorf("--yes cannot be combined with --dry-run")
	case dryRun:
		return ModeDryRun, nil
	case yes:
		return ModeApply, nil
	case diff:
		return ModeDiff, nil
	}
	return ModeInteractive, nil
}

// NewStrategy builds the strategy for mode. Diffs go to w. confirm asks
// a yes/no question for ModeDiff.
func NewStrategy(mode Mode, w io.Writer, opts DiffOptions, confirm func(question string, defaultYes bool) bool) Strategy {
	differ := NewDiffer()
	switch mode {
	case ModeApply:
		return ApplyStrategy{}
	case ModeDryRun:
		return &DryRunStrategy{w: w, differ: differ, opts: opts}
	case ModeDiff:
		return &DiffStrategy{w: w, differ: differ, opts: opts, confirm: confirm}
	}
	return &InteractiveStrategy{w: w, differ: differ, opts: opts}
}

// ApplyStrategy accepts every change.
type ApplyStrategy struct{}

func (ApplyStrategy) Review(Change) (Decision, error) { return Apply, nil }

// DryRunStrategy prints every diff and accepts nothing.
type DryRunStrategy struct {
	w      io.Writer
	differ *Differ
	opts   DiffOptions
}

func (s *DryRunStrategy) Review(c Change) (Decision, error) {
	fmt.Fprint(s.w, s.differ.Unified(c.name(), c.Original, c.Updated, s.opts))
	return Skip, nil
}

// DiffStrategy prints the diff, then asks for confirmation.
type DiffStrategy struct {
	w       io.Writer
	differ  *Differ
	opts    DiffOptions
	confirm func(string, bool) bool
}

func (s *DiffStrategy) Review(c Change) (Decision, error) {
	fmt.Fprint(s.w, s.differ.Unified(c.name(), c.Original, c.Updated, s.opts))
	if s.confirm(fmt.Sprintf("Apply changes to %s?", c.name()), true) {
		return Apply, nil
	}
	return Skip, nil
}

// InteractiveStrategy shows a menu for each change. Choosing the diff
// shows it and returns to the menu.
type InteractiveStrategy struct {
	w      io.Writer
	differ *Differ
	opts   DiffOptions

	// replaced in tests
	run func(tea.Model) (tea.Model, error)
}

// pagedDiffLines is the diff length above which the diff opens in a
// scrollable viewport instead of being printed.
const pagedDiffLines = 20

func (s *InteractiveStrategy) Review(c Change) (Decision, error) {
	added, removed := s.differ.Stat(c.Original, c.Updated)
	for {
		final, err := s.runModel(newReviewMenu(c.name(), added, removed))
		if err != nil {
			return Quit, fmt.Errorf("failed to show menu: %w", err)
		}
		menu := final.(reviewMenu)
		if menu.selected == nil {
			return Quit, nil
		}
		if *menu.selected != ShowDiff {
			return *menu.selected, nil
		}

		diff := s.differ.Unified(c.name(), c.Original, c.Updated, s.opts)
		if strings.Count(diff, "\n") <= pagedDiffLines {
			fmt.Fprintln(s.w, diff)
			continue
		}
		if _, err := s.runModel(newDiffViewer(c.name(), diff), tea.WithAltScreen()); err != nil {
			return Quit, fmt.Errorf("failed to show diff: %w", err)
		}
	}
}

func (s *InteractiveStrategy) runModel(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
	if s.run != nil {
		return s.run(m)
	}
	return tea.NewProgram(m, opts...).Run()
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	addStatStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("green"))
	delStatStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("red"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type menuChoice struct {
	label    string
	decision Decision
}

var menuChoices = []menuChoice{
	{"Apply", Apply},
	{"Show diff", ShowDiff},
	{"Skip this file", Skip},
	{"Apply this and all remaining files", ApplyRest},
	{"Quit without writing anything", Quit},
}

type reviewMenu struct {
	path     string
	added    int
	removed  int
	cursor   int
	selected *Decision
}

func newReviewMenu(path string, added, removed int) reviewMenu {
	return reviewMenu{path: path, added: added, removed: removed}
}

func (m reviewMenu) Init() tea.Cmd { return nil }

func (m reviewMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menuChoices)-1 {
			m.cursor++
		}
	case "y":
		m.cursor = 0
		return m.choose()
	case "d":
		m.cursor = 1
		return m.choose()
	case "n":
		m.cursor = 2
		return m.choose()
	case "a":
		m.cursor = 3
		return m.choose()
	case "enter":
		return m.choose()
	}
	return m, nil
}

func (m reviewMenu) choose() (tea.Model, tea.Cmd) {
	d := menuChoices[m.cursor].decision
	m.selected = &d
	return m, tea.Quit
}

func (m reviewMenu) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.path) + "  " +
		addStatStyle.Render(fmt.Sprintf("+%d", m.added)) + " " +
		delStatStyle.Render(fmt.Sprintf("-%d", m.removed)) + "\n")
	b.WriteString(mutedStyle.Render("    [↑/↓] Navigate    [Enter] Select    [y/d/n/a] Shortcut    [q] Quit") + "\n\n")
	for i, c := range menuChoices {
		if i == m.cursor {
			b.WriteString("    " + selectedStyle.Render("> "+c.label) + "\n")
		} else {
			b.WriteString("      " + c.label + "\n")
		}
	}
	return b.String()
}

// diffViewer pages through a long diff.
type diffViewer struct {
	path     string
	diff     string
	viewport viewport.Model
	ready    bool
}

func newDiffViewer(path, diff string) diffViewer {
	return diffViewer{path: path, diff: diff}
}

func (m diffViewer) Init() tea.Cmd { return nil }

func (m diffViewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		const chrome = 2 // title and footer lines
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chrome)
			m.viewport.SetContent(m.diff)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chrome
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m diffViewer) View() string {
	if !m.ready {
		return "Loading diff..."
	}
	title := borderStyle.Render("── " + m.path + " " + strings.Repeat("─", max(0, m.viewport.Width-len(m.path)-4)))
	footer := mutedStyle.Render(fmt.Sprintf("%3.f%%  [↑/↓/pgup/pgdn] Scroll    [q] Back to menu", m.viewport.ScrollPercent()*100))
	return title + "\n" + m.viewport.View() + "\n" + footer
}
