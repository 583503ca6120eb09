package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"rigctl/internal/scenario"
	"rigctl/pkg/registry"
)

// Reporter adapts runner progress callbacks into dashboard messages. It
// can run alongside another reporter (e.g. the console reporter for the
// YAML report) because the runner only sees the scenario.Reporter
// interface.
type Reporter struct {
	ch chan<- tea.Msg
}

// NewReporter creates a reporter that forwards progress to the dashboard.
func NewReporter(ch chan<- tea.Msg) *Reporter {
	return &Reporter{ch: ch}
}

func (r *Reporter) ReportStart(config scenario.Config) {
	r.ch <- runStartedMsg{config: config}
}

func (r *Reporter) ReportScenarioStart(s scenario.Scenario) {
	r.ch <- scenarioStartedMsg{scenario: s}
}

func (r *Reporter) ReportStepResult(result scenario.StepResult) {
	r.ch <- stepFinishedMsg{result: result}
}

func (r *Reporter) ReportScenarioResult(result scenario.ScenarioResult) {
	r.ch <- scenarioFinishedMsg{result: result}
}

func (r *Reporter) ReportSuiteResult(result scenario.SuiteResult) {
	r.ch <- runFinishedMsg{result: result}
}

// ComponentListener returns a registry listener that mirrors component
// changes into the dashboard. Registry notification must never block, so
// a full channel drops the event.
func (r *Reporter) ComponentListener() registry.ListenerFunc {
	return func(event registry.Event) {
		select {
		case r.ch <- componentEventMsg{event: event}:
		default:
		}
	}
}
