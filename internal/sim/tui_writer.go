package sim

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"simexerciser/internal/exercise"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// eventMsg carries one formatted timeline line for the feed viewport.
type eventMsg struct{ line string }

// viewsMsg refreshes the MELT table and status line.
type viewsMsg struct {
	status    exercise.ExerciseStatus
	paused    bool
	name      string
	melt      []exercise.MeltRow
	summaries map[string]exercise.AckSummary
	teams     []exercise.Team
}

// TUIWriter renders the facilitator console with bubbletea: a live event
// feed, the MELT table, and per-team acknowledgement ratios.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts the bubbletea program and returns the writer.
func NewTUIWriter() *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteEvent pushes one event line into the feed.
func (w *TUIWriter) WriteEvent(evt exercise.TimelineEvent) error {
	w.program.Send(eventMsg{line: FormatEventLine(evt)})
	return nil
}

// UpdateViews refreshes the MELT table and status header from engine state.
func (w *TUIWriter) UpdateViews(e *Engine) {
	var msg viewsMsg
	e.View(func(s *exercise.State) {
		msg = viewsMsg{
			status:    s.Status(),
			paused:    s.Paused(),
			name:      s.Definition().Name,
			melt:      s.MeltRows(),
			summaries: s.TeamAckSummaries(),
			teams:     s.Teams(),
		}
	})
	w.program.Send(msg)
}

// Close stops the TUI without signalling the process.
func (w *TUIWriter) Close() {
	w.sendSignal.Store(false)
	if p, ok := w.program.(*tea.Program); ok {
		p.Quit()
	}
	<-w.done
}

var (
	tuiHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("57")).Padding(0, 1)
	tuiStatusLive  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	tuiStatusOther = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	tuiSectionHdr  = lipgloss.NewStyle().Bold(true).Underline(true)
)

type tuiModel struct {
	feed   viewport.Model
	melt   table.Model
	lines  []string
	views  viewsMsg
	width  int
	height int
	ready  bool
}

func newTUIModel() tuiModel {
	w, h := 80, 24
	if tw, th, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 {
		w, h = tw, th
	}
	cols := []table.Column{
		{Title: "When", Width: 12},
		{Title: "Title", Width: 28},
		{Title: "Targets", Width: 20},
		{Title: "Status", Width: 8},
		{Title: "Ack", Width: 6},
		{Title: "Phase", Width: 10},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(8))
	vp := viewport.New(w, h/2)
	return tuiModel{feed: vp, melt: t, width: w, height: h}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.feed.Width = msg.Width
		m.feed.Height = max(4, msg.Height/2-4)
		m.ready = true
		m.refreshFeed()
	case eventMsg:
		m.lines = append([]string{msg.line}, m.lines...)
		if len(m.lines) > 200 {
			m.lines = m.lines[:200]
		}
		m.refreshFeed()
	case viewsMsg:
		m.views = msg
		rows := make([]table.Row, 0, len(msg.melt))
		for _, r := range msg.melt {
			rows = append(rows, table.Row{
				r.WhenLabel,
				r.Title,
				r.Targets,
				string(r.Status),
				fmt.Sprintf("%d/%d", r.AckCount, r.TotalTargets),
				r.Phase,
			})
		}
		m.melt.SetRows(rows)
	}

	var cmd tea.Cmd
	m.feed, cmd = m.feed.Update(msg)
	return m, cmd
}

func (m *tuiModel) refreshFeed() {
	wrapped := make([]string, len(m.lines))
	for i, l := range m.lines {
		wrapped[i] = wordwrap.String(l, m.feed.Width)
	}
	m.feed.SetContent(strings.Join(wrapped, "\n"))
}

func (m tuiModel) View() string {
	statusStyle := tuiStatusOther
	if m.views.status == exercise.StatusLive && !m.views.paused {
		statusStyle = tuiStatusLive
	}
	status := string(m.views.status)
	if status == "" {
		status = "draft"
	}
	if m.views.paused {
		status += " (paused)"
	}
	name := m.views.name
	if name == "" {
		name = "SimExerciser"
	}
	header := tuiHeaderStyle.Render(name) + " " + statusStyle.Render(status)

	var acks []string
	for _, t := range m.views.teams {
		s := m.views.summaries[t.ID]
		acks = append(acks, fmt.Sprintf("%s %d/%d", t.Name, s.Ack, s.Total))
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString(tuiSectionHdr.Render("Timeline") + "\n")
	b.WriteString(m.feed.View() + "\n\n")
	b.WriteString(tuiSectionHdr.Render("MELT") + "\n")
	b.WriteString(m.melt.View() + "\n\n")
	b.WriteString(tuiSectionHdr.Render("Acknowledgements") + " " + strings.Join(acks, "  ") + "\n")
	b.WriteString("\n[q] quit\n")
	return b.String()
}
