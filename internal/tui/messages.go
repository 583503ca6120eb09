package tui

import (
	"rigctl/internal/scenario"
	"rigctl/pkg/logging"
	"rigctl/pkg/registry"
)

// runStartedMsg announces that the runner began executing.
type runStartedMsg struct {
	config scenario.Config
}

// scenarioStartedMsg announces a new scenario.
type scenarioStartedMsg struct {
	scenario scenario.Scenario
}

// stepFinishedMsg carries a completed step.
type stepFinishedMsg struct {
	result scenario.StepResult
}

// scenarioFinishedMsg carries a completed scenario.
type scenarioFinishedMsg struct {
	result scenario.ScenarioResult
}

// runFinishedMsg carries the final suite result. The dashboard stays open
// until the user quits so the summary remains readable.
type runFinishedMsg struct {
	result scenario.SuiteResult
}

// componentEventMsg carries a registry change from the active scenario.
type componentEventMsg struct {
	event registry.Event
}

// logEntryMsg carries one activity log entry from the logging stream.
type logEntryMsg struct {
	entry logging.LogEntry
}

// channelClosedMsg signals that the message channel drained and closed.
type channelClosedMsg struct{}
