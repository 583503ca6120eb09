package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"rigctl/internal/scenario"
	"rigctl/pkg/logging"
)

// Run executes the scenarios under the live dashboard and returns the
// suite result. Quitting the dashboard early cancels the run; the partial
// result is still collected before returning.
func Run(ctx context.Context, config scenario.Config, scenarios []scenario.Scenario) (*scenario.SuiteResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	level := logging.LevelInfo
	if config.Debug {
		level = logging.LevelDebug
	}
	logCh := logging.InitForStream(level)
	defer logging.CloseStream()

	msgCh := make(chan tea.Msg, 100)
	reporter := NewReporter(msgCh)

	runner := scenario.NewRunner(scenario.NewLoader(config.Debug), reporter, config.Debug)
	runner.AddRegistryListener(reporter.ComponentListener())

	type runOutcome struct {
		result *scenario.SuiteResult
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		result, err := runner.Run(ctx, config, scenarios)
		done <- runOutcome{result: result, err: err}
		close(msgCh)
	}()

	model := NewModel(msgCh, logCh)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		cancel()
		drainMessages(msgCh)
		<-done
		return nil, fmt.Errorf("running dashboard: %w", err)
	}

	// The dashboard exited; stop the run if it is still going and keep
	// the reporter from blocking on the abandoned channel.
	cancel()
	go drainMessages(msgCh)

	outcome := <-done
	if outcome.err != nil {
		return nil, fmt.Errorf("running scenarios: %w", outcome.err)
	}
	return outcome.result, nil
}

// drainMessages consumes messages until the sender closes the channel so
// reporter sends never block after the dashboard is gone.
func drainMessages(ch <-chan tea.Msg) {
	for range ch {
	}
}
