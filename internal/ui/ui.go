// package ui implements the terminal browser for past run logs.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// LogSource provides run history for browsing. Satisfied by
// [logstore.Store].
type LogSource interface {
	Recent() ([]string, error)
	Logs(runTS string) ([]string, error)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunListView ViewState = iota
	LogListView
)

// Model represents the TUI application state.
type Model struct {
	source      LogSource
	view        ViewState
	width       int
	height      int
	runList     list.Model
	logList     list.Model
	selectedRun string
	err         error
	help        help.Model
	keys        keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up    key.Binding
	down  key.Binding
	enter key.Binding
	back  key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.quit},
	}
}

// runItem wraps a run timestamp to implement list.Item.
type runItem struct {
	runTS string
}

func (i runItem) FilterValue() string { return i.runTS }
func (i runItem) Title() string       { return i.runTS }
func (i runItem) Description() string { return "sync run" }

// logItem wraps one log line to implement list.Item.
type logItem struct {
	message string
}

func (i logItem) FilterValue() string { return i.message }
func (i logItem) Title() string       { return i.message }
func (i logItem) Description() string { return "" }

type runsLoadedMsg struct {
	runs []string
	err  error
}

type logsLoadedMsg struct {
	runTS    string
	messages []string
	err      error
}

// NewModel creates a new TUI model over the given log source.
func NewModel(source LogSource) *Model {
	return &Model{
		source: source,
		view:   RunListView,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init loads the recent run history.
func (m *Model) Init() tea.Cmd {
	return m.loadRuns()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.runList.Width() == 0 {
			m.runList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.logList.Width() == 0 {
			m.logList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RunListView:
			return m.handleRunListKeys(msg)
		case LogListView:
			return m.handleLogListKeys(msg)
		}

	case runsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.runs))
		for i, runTS := range msg.runs {
			items[i] = runItem{runTS: runTS}
		}
		m.runList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.runList.Title = "Recent Sync Runs"
		m.runList.SetSize(m.width-4, m.height-8)
		return m, nil

	case logsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = RunListView
			return m, nil
		}
		m.selectedRun = msg.runTS
		items := make([]list.Item, len(msg.messages))
		for i, message := range msg.messages {
			items[i] = logItem{message: message}
		}
		m.logList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.logList.Title = fmt.Sprintf("Run %s", msg.runTS)
		m.logList.SetSize(m.width-4, m.height-8)
		m.view = LogListView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case RunListView:
		return m.renderRunList()
	case LogListView:
		return m.renderLogList()
	default:
		return ""
	}
}

func (m *Model) handleRunListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.runList.SelectedItem()
		if selected != nil {
			if run, ok := selected.(runItem); ok {
				return m, m.loadLogs(run.runTS)
			}
		}
	}

	var cmd tea.Cmd
	m.runList, cmd = m.runList.Update(msg)
	return m, cmd
}

func (m *Model) handleLogListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = RunListView
		return m, nil
	}

	var cmd tea.Cmd
	m.logList, cmd = m.logList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case RunListView:
		m.runList, cmd = m.runList.Update(msg)
	case LogListView:
		m.logList, cmd = m.logList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadRuns() tea.Cmd {
	return func() tea.Msg {
		runs, err := m.source.Recent()
		return runsLoadedMsg{runs: runs, err: err}
	}
}

func (m *Model) loadLogs(runTS string) tea.Cmd {
	return func() tea.Msg {
		messages, err := m.source.Logs(runTS)
		if err == nil && messages == nil {
			err = fmt.Errorf("no log block found for run %s; its column may have been recycled", runTS)
		}
		return logsLoadedMsg{runTS: runTS, messages: messages, err: err}
	}
}

func (m *Model) renderRunList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.runList.View(), helpView)
}

func (m *Model) renderLogList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.logList.View(), helpView)
}

// RenderRunSummary formats one run's log lines for plain-text output,
// shared by the CLI's non-interactive log commands.
func RenderRunSummary(runTS string, messages []string) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Run %s", runTS)))
	b.WriteString("\n")
	for _, message := range messages {
		b.WriteString(message)
		b.WriteString("\n")
	}
	return b.String()
}
