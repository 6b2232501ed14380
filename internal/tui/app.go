package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gitlanes/gitlanes/internal/git"
	"github.com/gitlanes/gitlanes/internal/graph"
	"github.com/gitlanes/gitlanes/internal/watch"
)

// fetchAhead triggers another batch once the cursor gets this close to
// the loaded tail.
const fetchAhead = 20

type Options struct {
	Backend  git.Backend
	Settings graph.Settings
	Watch    bool
}

type applyMsg struct {
	fn func()
}

type watchMsg struct {
	event watch.Event
}

type watchClosedMsg struct{}

type model struct {
	backend git.Backend
	builder *graph.Builder
	watcher *watch.Watcher
	apply   chan func()

	spin   spinner.Model
	labels map[string][]string

	cursor int
	anchor int
	offset int
	width  int
	height int
}

func newModel(opts Options) (*model, error) {
	m := &model{
		backend: opts.Backend,
		apply:   make(chan func(), 4),
		anchor:  -1,
		spin:    spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}
	m.builder = graph.New(opts.Backend, Palette, opts.Settings, nil, func(fn func()) {
		m.apply <- fn
	})

	if opts.Watch {
		w, err := watch.New(opts.Backend.RepoPath())
		if err != nil {
			return nil, fmt.Errorf("start watcher: %w", err)
		}
		m.watcher = w
	}

	m.pointAtHead()
	m.builder.StartStatus()
	m.refreshLabels()
	return m, nil
}

// Run opens the log view and blocks until the user quits.
func Run(opts Options) error {
	m, err := newModel(opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *model) pointAtHead() {
	head, ok, err := m.backend.Head()
	if err != nil {
		slog.Error("resolve HEAD", slog.Any("error", err))
	}
	if ok {
		m.builder.SetReference(&head)
	} else {
		m.builder.SetReference(nil)
	}
}

// reload reacts to an external reference update. The builder keeps its
// selected reference when the update names it; a checkout of another
// branch switches the view over. Cursor and anchor follow their commits
// into the rebuilt rows.
func (m *model) reload() {
	cursorCommit := m.commitAt(m.cursor)
	anchorCommit := m.commitAt(m.anchor)

	head, ok, err := m.backend.Head()
	if err != nil {
		slog.Error("resolve HEAD", slog.Any("error", err))
	}
	var ref *git.Ref
	if ok {
		ref = &head
	}
	if cur := m.builder.Ref(); cur != nil && ref != nil && cur.Qualified != ref.Qualified {
		m.builder.SetReference(ref)
		m.builder.StartStatus()
	} else {
		m.builder.ResetReference(ref)
	}
	m.refreshLabels()

	if idx := m.builder.FindRow(cursorCommit); idx >= 0 {
		m.cursor = idx
	}
	m.anchor = -1
	if anchorCommit != nil {
		if idx := m.builder.FindRow(anchorCommit); idx >= 0 {
			m.anchor = idx
		}
	}
	m.clamp()
}

func (m *model) commitAt(i int) *git.Commit {
	if i < 0 || i >= m.builder.RowCount() {
		return nil
	}
	return m.builder.RowAt(i).Commit
}

func (m *model) refreshLabels() {
	labels, err := git.BranchLabels(m.backend)
	if err != nil {
		slog.Error("ref labels", slog.Any("error", err))
		return
	}
	m.labels = labels
}

func (m *model) waitApply() tea.Cmd {
	return func() tea.Msg {
		return applyMsg{fn: <-m.apply}
	}
}

func (m *model) waitWatch() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	events := m.watcher.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return watchClosedMsg{}
		}
		return watchMsg{event: ev}
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.waitApply(), m.waitWatch(), m.spin.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clamp()
		return m, nil

	case applyMsg:
		msg.fn()
		m.clamp()
		return m, m.waitApply()

	case watchMsg:
		switch msg.event.Kind {
		case watch.RefsChanged:
			m.reload()
		case watch.WorkdirChanged:
			m.builder.StartStatus()
		}
		m.clamp()
		return m, m.waitWatch()

	case watchClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.shutdown()
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-m.pageSize())
	case "pgdown":
		m.moveCursor(m.pageSize())
	case "g", "home":
		m.cursor = 0
		m.clamp()
	case "G", "end":
		m.cursor = m.builder.RowCount() - 1
		m.clamp()
	case "v":
		if m.anchor == m.cursor {
			m.anchor = -1
		} else {
			m.anchor = m.cursor
		}
	case "esc":
		m.anchor = -1
	case "r":
		m.reload()
	case "a":
		s := m.builder.Settings()
		s.RefsAll = !s.RefsAll
		m.builder.ResetSettings(s, true)
		m.clamp()
	case "d":
		s := m.builder.Settings()
		s.SortDate = !s.SortDate
		m.builder.ResetSettings(s, true)
		m.clamp()
	}
	return m, nil
}

func (m *model) shutdown() {
	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			slog.Debug("watcher close", slog.Any("error", err))
		}
	}
	m.builder.CancelStatus()
}

func (m *model) pageSize() int {
	if m.height > 2 {
		return m.height - 2
	}
	return 1
}

func (m *model) moveCursor(delta int) {
	m.cursor += delta
	m.clamp()
	if m.builder.CanFetchMore() && m.cursor >= m.builder.RowCount()-fetchAhead {
		m.builder.FetchMore()
	}
}

func (m *model) clamp() {
	if last := m.builder.RowCount() - 1; m.cursor > last {
		m.cursor = last
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.anchor >= m.builder.RowCount() {
		m.anchor = -1
	}
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *model) View() string {
	var b strings.Builder
	page := m.pageSize()
	laneWidth := m.visibleLaneWidth(page)
	compact := m.builder.Settings().Compact

	for i := m.offset; i < m.offset+page && i < m.builder.RowCount(); i++ {
		row := m.builder.RowAt(i)
		line := renderColumns(row.Columns, laneWidth, compact) + m.rowText(row)
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(m.footer())
	return b.String()
}

func (m *model) rowText(row graph.Row) string {
	if row.IsStatus() {
		if m.builder.StatusRunning() {
			return statusStyle.Render(m.spin.View() + " Checking for uncommitted changes")
		}
		return statusStyle.Render("Uncommitted changes")
	}

	c := row.Commit
	parts := []string{
		hashStyle.Render(c.ShortHash()),
		dateStyle.Render(c.Committer.When.Format("2006-01-02")),
	}
	if badges := m.labels[c.Hash]; len(badges) > 0 {
		parts = append(parts, badgeStyle.Render("("+strings.Join(badges, ", ")+")"))
	}
	parts = append(parts, summaryStyle.Render(c.Summary()))
	return strings.Join(parts, " ")
}

func (m *model) footer() string {
	left := fmt.Sprintf("%d/%d", m.cursor+1, m.builder.RowCount())
	if m.builder.CanFetchMore() {
		left += "+"
	}
	if r := m.rangeLabel(); r != "" {
		left += "  " + r
	}
	help := "j/k move  v range  a all refs  d date order  r reload  q quit"
	return helpStyle.Render(left + "  " + help)
}

// rangeLabel formats the two-point selection as last..first, oldest
// endpoint on the left.
func (m *model) rangeLabel() string {
	if m.anchor < 0 || m.anchor == m.cursor {
		return ""
	}
	lo, hi := m.anchor, m.cursor
	if lo > hi {
		lo, hi = hi, lo
	}
	first := m.builder.RowAt(lo)
	last := m.builder.RowAt(hi)
	if first.IsStatus() || last.IsStatus() {
		return ""
	}
	return last.Commit.ShortHash() + ".." + first.Commit.ShortHash()
}

func (m *model) visibleLaneWidth(page int) int {
	width := 1
	for i := m.offset; i < m.offset+page && i < m.builder.RowCount(); i++ {
		if n := len(m.builder.RowAt(i).Columns); n > width {
			width = n
		}
	}
	return width
}
