package scenario

import (
	"time"
)

// Result represents the outcome of a scenario or step.
type Result string

const (
	// ResultPassed indicates the scenario or step passed.
	ResultPassed Result = "PASSED"
	// ResultFailed indicates an expectation was not met.
	ResultFailed Result = "FAILED"
	// ResultSkipped indicates the scenario was filtered out or skipped.
	ResultSkipped Result = "SKIPPED"
	// ResultError indicates execution broke before expectations applied.
	ResultError Result = "ERROR"
)

// StepAction identifies what a scenario step does against the harness.
type StepAction string

const (
	// ActionPublish registers a component in the scenario's registry.
	ActionPublish StepAction = "publish"
	// ActionUnpublish removes a previously published component by ref.
	ActionUnpublish StepAction = "unpublish"
	// ActionLocate performs a bounded component lookup.
	ActionLocate StepAction = "locate"
	// ActionConfigure writes a configuration record.
	ActionConfigure StepAction = "configure"
	// ActionSleep pauses the scenario, e.g. to order races deliberately.
	ActionSleep StepAction = "sleep"
)

// Config defines the overall scenario execution configuration.
type Config struct {
	// Timeout is the overall execution timeout.
	Timeout time.Duration `yaml:"timeout"`
	// Scenario filters execution to a single named scenario.
	Scenario string `yaml:"scenario,omitempty"`
	// Tags filters execution to scenarios carrying all given tags.
	Tags []string `yaml:"tags,omitempty"`
	// LocateTimeout overrides the default bound for locate steps that do
	// not set their own.
	LocateTimeout time.Duration `yaml:"locate_timeout,omitempty"`
	// FailFast stops execution on the first failed scenario.
	FailFast bool `yaml:"fail_fast"`
	// Verbose enables detailed per-step output.
	Verbose bool `yaml:"verbose"`
	// Debug enables debug logging.
	Debug bool `yaml:"debug"`
	// ScenarioPath is the file or directory scenarios are loaded from.
	ScenarioPath string `yaml:"scenario_path,omitempty"`
	// ConfigDir, when set, makes scenario configuration records persistent.
	ConfigDir string `yaml:"config_dir,omitempty"`
	// ReportPath is the path the YAML run report is written to.
	ReportPath string `yaml:"report_path,omitempty"`
}

// ComponentSpec declares a component a scenario publishes, either as a
// step or as a fixture that arrives after a delay.
type ComponentSpec struct {
	// Type is the capability type the component registers under.
	Type string `yaml:"type"`
	// Properties are the component's registration properties.
	Properties map[string]string `yaml:"properties,omitempty"`
	// After delays publication, simulating a component that is still
	// starting when the scenario begins.
	After time.Duration `yaml:"after,omitempty"`
	// Ref names the registration so later steps can unpublish it.
	Ref string `yaml:"ref,omitempty"`
}

// QuerySpec declares the capability query of a locate step.
type QuerySpec struct {
	Type   string `yaml:"type"`
	Filter string `yaml:"filter,omitempty"`
}

// ConfigSpec declares the record a configure step writes.
type ConfigSpec struct {
	ID         string            `yaml:"id"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// Expectation defines what outcome a step must produce.
type Expectation struct {
	// Found states whether a locate step must resolve a component.
	// Unset defaults to true.
	Found *bool `yaml:"found,omitempty"`
	// ErrorContains requires the step error to contain each fragment.
	ErrorContains []string `yaml:"error_contains,omitempty"`
	// Properties requires the located component (or written record) to
	// carry these properties.
	Properties map[string]string `yaml:"properties,omitempty"`
}

// Step is a single scenario step.
type Step struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Action      StepAction     `yaml:"action"`
	Component   *ComponentSpec `yaml:"component,omitempty"`
	Ref         string         `yaml:"ref,omitempty"`
	Query       *QuerySpec     `yaml:"query,omitempty"`
	Config      *ConfigSpec    `yaml:"config,omitempty"`
	Duration    time.Duration  `yaml:"duration,omitempty"`
	Timeout     time.Duration  `yaml:"timeout,omitempty"`
	Expect      Expectation    `yaml:"expect,omitempty"`
}

// Scenario is a named sequence of steps run against a fresh harness.
type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Tags        []string        `yaml:"tags,omitempty"`
	// Fixtures are published when the scenario starts, each after its
	// own delay, to exercise late component registration.
	Fixtures []ComponentSpec `yaml:"fixtures,omitempty"`
	Steps    []Step          `yaml:"steps"`
	Cleanup  []Step          `yaml:"cleanup,omitempty"`
	Timeout  time.Duration   `yaml:"timeout,omitempty"`
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	Step      Step          `yaml:"step"`
	Result    Result        `yaml:"result"`
	StartTime time.Time     `yaml:"start_time"`
	EndTime   time.Time     `yaml:"end_time"`
	Duration  time.Duration `yaml:"duration"`
	Error     string        `yaml:"error,omitempty"`
}

// ScenarioResult is the outcome of one executed scenario.
type ScenarioResult struct {
	Scenario    Scenario      `yaml:"scenario"`
	Result      Result        `yaml:"result"`
	StartTime   time.Time     `yaml:"start_time"`
	EndTime     time.Time     `yaml:"end_time"`
	Duration    time.Duration `yaml:"duration"`
	StepResults []StepResult  `yaml:"step_results"`
	Error       string        `yaml:"error,omitempty"`
}

// SuiteResult aggregates a whole run.
type SuiteResult struct {
	StartTime        time.Time        `yaml:"start_time"`
	EndTime          time.Time        `yaml:"end_time"`
	Duration         time.Duration    `yaml:"duration"`
	TotalScenarios   int              `yaml:"total_scenarios"`
	PassedScenarios  int              `yaml:"passed_scenarios"`
	FailedScenarios  int              `yaml:"failed_scenarios"`
	SkippedScenarios int              `yaml:"skipped_scenarios"`
	ErrorScenarios   int              `yaml:"error_scenarios"`
	ScenarioResults  []ScenarioResult `yaml:"scenario_results"`
	Configuration    Config           `yaml:"configuration"`
}

// Reporter receives progress callbacks during a run.
type Reporter interface {
	// ReportStart is called when execution begins.
	ReportStart(config Config)
	// ReportScenarioStart is called when a scenario begins.
	ReportScenarioStart(scenario Scenario)
	// ReportStepResult is called when a step completes.
	ReportStepResult(stepResult StepResult)
	// ReportScenarioResult is called when a scenario completes.
	ReportScenarioResult(scenarioResult ScenarioResult)
	// ReportSuiteResult is called when the whole run completes.
	ReportSuiteResult(suiteResult SuiteResult)
}
