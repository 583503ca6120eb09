package scenario

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConsoleReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewConsoleReporterWithWriter(&buf, true)

	reporter.ReportStart(Config{})
	reporter.ReportScenarioStart(Scenario{Name: "sample", Description: "a sample run"})
	reporter.ReportStepResult(StepResult{
		Step:     Step{Name: "publish"},
		Result:   ResultPassed,
		Duration: 3 * time.Millisecond,
	})
	reporter.ReportScenarioResult(ScenarioResult{
		Scenario: Scenario{Name: "sample"},
		Result:   ResultPassed,
	})
	reporter.ReportSuiteResult(SuiteResult{
		TotalScenarios:  1,
		PassedScenarios: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "sample")
	assert.Contains(t, out, "publish")
	assert.Contains(t, out, "1")
}

func TestConsoleReporterFailureShowsError(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewConsoleReporterWithWriter(&buf, true)

	reporter.ReportStepResult(StepResult{
		Step:   Step{Name: "locate"},
		Result: ResultFailed,
		Error:  "component not found",
	})

	assert.Contains(t, buf.String(), "component not found")
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	result := SuiteResult{
		TotalScenarios:  2,
		PassedScenarios: 1,
		FailedScenarios: 1,
		ScenarioResults: []ScenarioResult{
			{Scenario: Scenario{Name: "one"}, Result: ResultPassed},
			{Scenario: Scenario{Name: "two"}, Result: ResultFailed, Error: "step failed"},
		},
	}

	require.NoError(t, WriteReport(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded SuiteResult
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, 2, loaded.TotalScenarios)
	require.Len(t, loaded.ScenarioResults, 2)
	assert.Equal(t, ResultFailed, loaded.ScenarioResults[1].Result)
	assert.Equal(t, "step failed", loaded.ScenarioResults[1].Error)
}
