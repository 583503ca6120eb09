package tui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all dashboard messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case runStartedMsg:
		m.config = msg.config
		m.appendLogLine(fmt.Sprintf("%s [INFO] [Dashboard] Run started", time.Now().Format("15:04:05")))
		return m, waitForMessage(m.msgCh)

	case scenarioStartedMsg:
		m.currentName = msg.scenario.Name
		m.currentDesc = msg.scenario.Description
		m.stepResults = nil
		m.components = make(map[string]componentRow)
		return m, waitForMessage(m.msgCh)

	case stepFinishedMsg:
		m.stepResults = append(m.stepResults, msg.result)
		return m, waitForMessage(m.msgCh)

	case scenarioFinishedMsg:
		m.scenariosRun++
		m.appendLogLine(fmt.Sprintf("%s [INFO] [Dashboard] Scenario %s: %s",
			time.Now().Format("15:04:05"), msg.result.Scenario.Name, msg.result.Result))
		return m, waitForMessage(m.msgCh)

	case runFinishedMsg:
		result := msg.result
		m.suiteResult = &result
		m.currentName = ""
		return m, waitForMessage(m.msgCh)

	case componentEventMsg:
		m.applyComponentEvent(msg.event)
		return m, waitForMessage(m.msgCh)

	case logEntryMsg:
		m.appendLogLine(formatLogEntry(msg.entry))
		m.refreshViewport()
		return m, waitForLogEntry(m.logCh)

	case channelClosedMsg:
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "y":
		if err := clipboard.WriteAll(m.summaryText()); err != nil {
			m.setStatus("Copy failed: " + err.Error())
		} else {
			m.setStatus("Summary copied")
		}
		return m, nil

	case "up", "down", "k", "j", "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setStatus(text string) {
	m.statusMessage = text
	m.statusUntil = time.Now().Add(3 * time.Second)
}
