package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rigctl/internal/scenario"
	"rigctl/pkg/logging"
	"rigctl/pkg/registry"
)

const maxActivityLogLines = 500

// componentRow is one line of the component pane.
type componentRow struct {
	id         string
	kind       string
	properties map[string]string
	since      time.Time
}

// Model is the dashboard state.
type Model struct {
	msgCh <-chan tea.Msg
	logCh <-chan logging.LogEntry

	config       scenario.Config
	currentName  string
	currentDesc  string
	stepResults  []scenario.StepResult
	scenariosRun int
	suiteResult  *scenario.SuiteResult

	components map[string]componentRow

	activityLog    []string
	logViewport    viewport.Model
	logDirty       bool
	spinner        spinner.Model
	statusMessage  string
	statusUntil    time.Time
	width          int
	height         int
	ready          bool
	quitting       bool
}

// NewModel creates a dashboard model. msgCh carries runner progress and
// registry events (see Reporter); logCh is the logging stream.
func NewModel(msgCh <-chan tea.Msg, logCh <-chan logging.LogEntry) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		msgCh:       msgCh,
		logCh:       logCh,
		components:  make(map[string]componentRow),
		activityLog: make([]string, 0),
		logViewport: viewport.New(0, 0),
		spinner:     s,
	}
}

// Init starts the spinner and the channel pumps.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForMessage(m.msgCh), waitForLogEntry(m.logCh))
}

// waitForMessage pumps the next runner or registry message.
func waitForMessage(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return msg
	}
}

// waitForLogEntry pumps the next activity log entry.
func waitForLogEntry(ch <-chan logging.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return logEntryMsg{entry: entry}
	}
}

// sortedComponents returns the component rows ordered by registration time
// so the table does not shuffle between repaints.
func (m Model) sortedComponents() []componentRow {
	rows := make([]componentRow, 0, len(m.components))
	for _, row := range m.components {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].since.Equal(rows[j].since) {
			return rows[i].id < rows[j].id
		}
		return rows[i].since.Before(rows[j].since)
	})
	return rows
}

// summaryText builds the plain-text run summary used for clipboard copy.
func (m Model) summaryText() string {
	if m.suiteResult == nil {
		return fmt.Sprintf("run in progress: %d scenarios finished", m.scenariosRun)
	}
	r := m.suiteResult
	return fmt.Sprintf("scenarios: %d total, %d passed, %d failed, %d errored, %d skipped (%s)",
		r.TotalScenarios, r.PassedScenarios, r.FailedScenarios, r.ErrorScenarios,
		r.SkippedScenarios, r.Duration.Round(time.Millisecond))
}

func (m *Model) appendLogLine(line string) {
	m.activityLog = append(m.activityLog, line)
	if len(m.activityLog) > maxActivityLogLines {
		m.activityLog = m.activityLog[len(m.activityLog)-maxActivityLogLines:]
	}
	m.logDirty = true
}

func formatLogEntry(entry logging.LogEntry) string {
	ts := entry.Timestamp.Format("15:04:05")
	if entry.Err != nil {
		return fmt.Sprintf("%s [%s] [%s] %s: %v", ts, entry.Level, entry.Subsystem, entry.Message, entry.Err)
	}
	return fmt.Sprintf("%s [%s] [%s] %s", ts, entry.Level, entry.Subsystem, entry.Message)
}

func (m *Model) applyComponentEvent(event registry.Event) {
	if event.Component == nil {
		return
	}
	switch event.Kind {
	case registry.ComponentAdded:
		m.components[event.Component.ID] = componentRow{
			id:         event.Component.ID,
			kind:       event.Component.Type,
			properties: event.Component.Properties,
			since:      event.Component.RegisteredAt,
		}
	case registry.ComponentRemoved:
		delete(m.components, event.Component.ID)
	}
}
