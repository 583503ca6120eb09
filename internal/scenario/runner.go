package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rigctl/pkg/configstore"
	"rigctl/pkg/harness"
	"rigctl/pkg/logging"
	"rigctl/pkg/registry"
)

// Runner executes scenarios. Each scenario gets its own registry,
// configuration store and harness so scenarios cannot observe each
// other's components; execution is strictly sequential, matching the
// harness's single-suite-at-a-time model. There are no automatic retries:
// a step either meets its expectation or the scenario fails.
type Runner struct {
	loader    *Loader
	reporter  Reporter
	debug     bool
	listeners []registry.ListenerFunc
}

// NewRunner creates a scenario runner.
func NewRunner(loader *Loader, reporter Reporter, debug bool) *Runner {
	return &Runner{loader: loader, reporter: reporter, debug: debug}
}

// AddRegistryListener registers a listener that is attached to every
// scenario's registry, e.g. to mirror component changes into a dashboard.
// Must be called before Run.
func (r *Runner) AddRegistryListener(listener registry.ListenerFunc) {
	r.listeners = append(r.listeners, listener)
}

// Run executes the given scenarios according to the configuration.
func (r *Runner) Run(ctx context.Context, config Config, scenarios []Scenario) (*SuiteResult, error) {
	result := &SuiteResult{
		StartTime:     time.Now(),
		Configuration: config,
	}

	r.reporter.ReportStart(config)

	filtered := r.loader.FilterScenarios(scenarios, config)
	result.TotalScenarios = len(filtered)

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	for _, s := range filtered {
		scenarioResult := r.runScenario(ctx, s, config)
		result.ScenarioResults = append(result.ScenarioResults, scenarioResult)

		switch scenarioResult.Result {
		case ResultPassed:
			result.PassedScenarios++
		case ResultFailed:
			result.FailedScenarios++
		case ResultSkipped:
			result.SkippedScenarios++
		case ResultError:
			result.ErrorScenarios++
		}

		r.reporter.ReportScenarioResult(scenarioResult)

		if config.FailFast && scenarioResult.Result != ResultPassed && scenarioResult.Result != ResultSkipped {
			logging.Info("ScenarioRunner", "Stopping after %s (fail-fast)", s.Name)
			break
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	r.reporter.ReportSuiteResult(*result)

	return result, nil
}

// scenarioState carries the per-scenario execution context.
type scenarioState struct {
	harness *harness.Harness
	refs    map[string]*registry.Registration
}

func (r *Runner) runScenario(ctx context.Context, s Scenario, config Config) ScenarioResult {
	result := ScenarioResult{
		Scenario:  s,
		StartTime: time.Now(),
		Result:    ResultPassed,
	}

	r.reporter.ReportScenarioStart(s)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	state, err := r.newScenarioState(config)
	if err != nil {
		result.Result = ResultError
		result.Error = err.Error()
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}
	defer state.harness.Registry().Close()

	r.startFixtures(ctx, state, s.Fixtures)

	for _, step := range s.Steps {
		stepResult := r.executeStep(ctx, state, step, config)
		result.StepResults = append(result.StepResults, stepResult)
		r.reporter.ReportStepResult(stepResult)

		if stepResult.Result != ResultPassed {
			result.Result = stepResult.Result
			result.Error = fmt.Sprintf("step %q: %s", step.Name, stepResult.Error)
			break
		}
		if ctx.Err() != nil {
			result.Result = ResultError
			result.Error = fmt.Sprintf("scenario cancelled: %v", ctx.Err())
			break
		}
	}

	// Cleanup steps always run; their failures do not override the
	// scenario verdict but are recorded.
	for _, step := range s.Cleanup {
		stepResult := r.executeStep(context.Background(), state, step, config)
		result.StepResults = append(result.StepResults, stepResult)
		r.reporter.ReportStepResult(stepResult)
		if stepResult.Result != ResultPassed {
			logging.Warn("ScenarioRunner", "Cleanup step %q of scenario %q failed: %s",
				step.Name, s.Name, stepResult.Error)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result
}

func (r *Runner) newScenarioState(config Config) (*scenarioState, error) {
	var store *configstore.Store
	if config.ConfigDir != "" {
		var err error
		store, err = configstore.NewWithDir(config.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("creating configuration store: %w", err)
		}
	} else {
		store = configstore.New()
	}

	reg := registry.New()
	for _, listener := range r.listeners {
		reg.AddListener(listener)
	}

	return &scenarioState{
		harness: harness.New(reg, store),
		refs:    make(map[string]*registry.Registration),
	}, nil
}

// startFixtures publishes fixture components, each after its declared
// delay, so locate steps can race against late registration.
func (r *Runner) startFixtures(ctx context.Context, state *scenarioState, fixtures []ComponentSpec) {
	for _, fixture := range fixtures {
		fixture := fixture
		if fixture.After <= 0 {
			r.publishFixture(state, fixture)
			continue
		}
		go func() {
			select {
			case <-time.After(fixture.After):
				r.publishFixture(state, fixture)
			case <-ctx.Done():
			}
		}()
	}
}

func (r *Runner) publishFixture(state *scenarioState, fixture ComponentSpec) {
	registration, err := state.harness.Publish(fixture.Type, nil, fixture.Properties)
	if err != nil {
		logging.Warn("ScenarioRunner", "Publishing fixture %s failed: %v", fixture.Type, err)
		return
	}
	if fixture.Ref != "" {
		state.refs[fixture.Ref] = registration
	}
}

func (r *Runner) executeStep(ctx context.Context, state *scenarioState, step Step, config Config) StepResult {
	result := StepResult{
		Step:      step,
		StartTime: time.Now(),
		Result:    ResultPassed,
	}

	err := r.performAction(ctx, state, step, config)
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	if err != nil {
		result.Result = ResultFailed
		result.Error = err.Error()
	}
	return result
}

func (r *Runner) performAction(ctx context.Context, state *scenarioState, step Step, config Config) error {
	switch step.Action {
	case ActionPublish:
		registration, err := state.harness.Publish(step.Component.Type, nil, step.Component.Properties)
		if err != nil {
			return checkExpectedError(step.Expect, err)
		}
		if step.Component.Ref != "" {
			state.refs[step.Component.Ref] = registration
		}
		return checkExpectedError(step.Expect, nil)

	case ActionUnpublish:
		registration, exists := state.refs[step.Ref]
		if !exists {
			return fmt.Errorf("unknown component ref %q", step.Ref)
		}
		delete(state.refs, step.Ref)
		return checkExpectedError(step.Expect, registration.Unpublish())

	case ActionLocate:
		return r.performLocate(ctx, state, step, config)

	case ActionConfigure:
		if err := state.harness.Configure(step.Config.ID, step.Config.Properties); err != nil {
			return checkExpectedError(step.Expect, err)
		}
		if len(step.Expect.Properties) > 0 {
			stored, err := state.harness.Configuration(step.Config.ID)
			if err != nil {
				return err
			}
			if err := matchProperties(step.Expect.Properties, stored); err != nil {
				return err
			}
		}
		return checkExpectedError(step.Expect, nil)

	case ActionSleep:
		select {
		case <-time.After(step.Duration):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

func (r *Runner) performLocate(ctx context.Context, state *scenarioState, step Step, config Config) error {
	timeout := step.Timeout
	if timeout <= 0 {
		timeout = config.LocateTimeout
	}

	query := harness.Query{Type: step.Query.Type, Filter: step.Query.Filter}
	component, err := state.harness.Locate(ctx, query, timeout)

	wantFound := step.Expect.Found == nil || *step.Expect.Found
	if wantFound {
		if err != nil {
			return err
		}
		if len(step.Expect.Properties) > 0 {
			return matchProperties(step.Expect.Properties, component.Properties)
		}
		return nil
	}

	// The step expects the component to be absent.
	if err == nil {
		return fmt.Errorf("unexpectedly found component %s of type %q", component.ID, component.Type)
	}
	return checkExpectedError(step.Expect, err)
}

// checkExpectedError reconciles an action's error with the step's
// expectation: expected fragments must appear, unexpected errors fail.
func checkExpectedError(expect Expectation, err error) error {
	if len(expect.ErrorContains) == 0 {
		return err
	}
	if err == nil {
		return fmt.Errorf("expected an error containing %v, got none", expect.ErrorContains)
	}
	for _, fragment := range expect.ErrorContains {
		if !strings.Contains(err.Error(), fragment) {
			return fmt.Errorf("error %q does not contain %q", err.Error(), fragment)
		}
	}
	return nil
}

func matchProperties(want, got map[string]string) error {
	for k, v := range want {
		actual, exists := got[k]
		if !exists {
			return fmt.Errorf("expected property %q missing", k)
		}
		if actual != v {
			return fmt.Errorf("property %q is %q, expected %q", k, actual, v)
		}
	}
	return nil
}
