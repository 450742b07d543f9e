// Package ui renders the live watch view: the current diagnostics of one
// document, refreshed every time a lint run writes into its store.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"lintflow/internal/diag"
)

// EventKind identifies watch events fed into the model.
type EventKind uint8

const (
	// EventRunStarted marks a new lint run (after a save or on startup).
	EventRunStarted EventKind = iota + 1
	// EventRunFinished marks its end, possibly with an error.
	EventRunFinished
	// EventDiagnostics signals the store changed and the view is stale.
	EventDiagnostics
)

// Event is one update from the watch loop.
type Event struct {
	Kind EventKind
	Err  error
}

type watchModel struct {
	path    string
	store   *diag.Store
	events  <-chan Event
	spinner spinner.Model
	items   []diag.LineDiagnostic
	width   int
	running bool
	runs    int
	lastErr error
	done    bool
}

type eventMsg Event
type closedMsg struct{}

// NewWatchModel returns a Bubble Tea model that follows one document's
// diagnostics. The events channel is owned by the watch loop; closing it
// ends the program.
func NewWatchModel(path string, store *diag.Store, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	return &watchModel{
		path:    path,
		store:   store,
		events:  events,
		spinner: sp,
		items:   store.Items(),
		width:   80,
	}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.applyEvent(Event(msg))
		return m, m.listenForEvent()
	case closedMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		return m, nil
	}
	return m, nil
}

func (m *watchModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	header := m.path
	if m.running {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	} else {
		header = fmt.Sprintf("  %s", header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		if m.running {
			b.WriteString(dimStyle.Render("  checking..."))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("  no issues"))
		}
		b.WriteString("\n")
	}
	msgWidth := m.width - 18
	if msgWidth < 20 {
		msgWidth = 20
	}
	for _, item := range m.items {
		pos := fmt.Sprintf("%5d:%-3d", item.Line, item.Diag.Column)
		sev := severityStyle(item.Diag.Severity).Render(fmt.Sprintf("%-7s", item.Diag.Severity))
		b.WriteString(fmt.Sprintf("  %s %s %s\n", dimStyle.Render(pos), sev, truncate(item.Diag.Message, msgWidth)))
	}

	b.WriteString("\n")
	footer := fmt.Sprintf("run %d", m.runs)
	if m.lastErr != nil {
		footer += "  " + severityStyle(diag.SevError).Render(m.lastErr.Error())
	}
	footer += dimStyle.Render("  (q to quit)")
	b.WriteString(dimStyle.Render(footer))
	b.WriteString("\n")
	return b.String()
}

func (m *watchModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *watchModel) applyEvent(ev Event) {
	switch ev.Kind {
	case EventRunStarted:
		m.running = true
		m.runs++
		m.lastErr = nil
	case EventRunFinished:
		m.running = false
		m.lastErr = ev.Err
		m.items = m.store.Items()
	case EventDiagnostics:
		m.items = m.store.Items()
	}
}

func severityStyle(sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.SevError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case diag.SevWarning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
}

// truncate cuts to width cells with the same single-cell ellipsis the
// status line uses.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	return runewidth.Truncate(value, width, "…")
}
