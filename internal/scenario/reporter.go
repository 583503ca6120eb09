package scenario

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	summaryStyle = lipgloss.NewStyle().Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderTop(true)
)

// ConsoleReporter prints run progress to a writer, styled for terminals.
type ConsoleReporter struct {
	out     io.Writer
	verbose bool
}

// NewConsoleReporter creates a reporter writing to stdout.
func NewConsoleReporter(verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout, verbose: verbose}
}

// NewConsoleReporterWithWriter creates a reporter writing to out.
func NewConsoleReporterWithWriter(out io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: out, verbose: verbose}
}

// ReportStart is called when execution begins.
func (c *ConsoleReporter) ReportStart(config Config) {
	fmt.Fprintln(c.out, headerStyle.Render("Running harness scenarios"))
	if c.verbose {
		fmt.Fprintf(c.out, "  scenario path: %s\n", defaultString(config.ScenarioPath, "-"))
		fmt.Fprintf(c.out, "  scenario filter: %s\n", defaultString(config.Scenario, "all"))
		if len(config.Tags) > 0 {
			fmt.Fprintf(c.out, "  tags: %s\n", strings.Join(config.Tags, ", "))
		}
		fmt.Fprintf(c.out, "  fail fast: %t\n", config.FailFast)
		if config.Timeout > 0 {
			fmt.Fprintf(c.out, "  timeout: %v\n", config.Timeout)
		}
		fmt.Fprintln(c.out)
	}
}

// ReportScenarioStart is called when a scenario begins.
func (c *ConsoleReporter) ReportScenarioStart(scenario Scenario) {
	if c.verbose {
		fmt.Fprintf(c.out, "%s %s\n", headerStyle.Render("Scenario:"), scenario.Name)
		if scenario.Description != "" {
			fmt.Fprintf(c.out, "  %s\n", detailStyle.Render(scenario.Description))
		}
	}
}

// ReportStepResult is called when a step completes.
func (c *ConsoleReporter) ReportStepResult(stepResult StepResult) {
	if !c.verbose {
		return
	}
	fmt.Fprintf(c.out, "  %s %s (%v)\n",
		c.resultMark(stepResult.Result), stepResult.Step.Name, stepResult.Duration.Round(time.Millisecond))
	if stepResult.Error != "" {
		fmt.Fprintf(c.out, "    %s\n", failStyle.Render(stepResult.Error))
	}
}

// ReportScenarioResult is called when a scenario completes.
func (c *ConsoleReporter) ReportScenarioResult(scenarioResult ScenarioResult) {
	fmt.Fprintf(c.out, "%s %s (%v)\n",
		c.resultMark(scenarioResult.Result), scenarioResult.Scenario.Name,
		scenarioResult.Duration.Round(time.Millisecond))
	if scenarioResult.Error != "" && !c.verbose {
		fmt.Fprintf(c.out, "  %s\n", failStyle.Render(scenarioResult.Error))
	}
}

// ReportSuiteResult is called when the whole run completes.
func (c *ConsoleReporter) ReportSuiteResult(suiteResult SuiteResult) {
	line := fmt.Sprintf("%d scenarios: %d passed, %d failed, %d errored, %d skipped (%v)",
		suiteResult.TotalScenarios,
		suiteResult.PassedScenarios,
		suiteResult.FailedScenarios,
		suiteResult.ErrorScenarios,
		suiteResult.SkippedScenarios,
		suiteResult.Duration.Round(time.Millisecond))
	fmt.Fprintln(c.out, summaryStyle.Render(line))
}

func (c *ConsoleReporter) resultMark(result Result) string {
	switch result {
	case ResultPassed:
		return passStyle.Render("PASS")
	case ResultFailed:
		return failStyle.Render("FAIL")
	case ResultError:
		return failStyle.Render("ERROR")
	case ResultSkipped:
		return skipStyle.Render("SKIP")
	default:
		return string(result)
	}
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// WriteReport writes the suite result as YAML to path.
func WriteReport(path string, result SuiteResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	return nil
}
