package harness

import (
	"fmt"
	"sync"

	"rigctl/pkg/logging"
)

// totalUnknown is the sentinel meaning "total not yet computed for this
// run". It is only ever replaced while a suite run is in progress.
const totalUnknown = -1

// SuiteTracker decides, for each test about to run, whether suite-level
// setup must run first and whether suite-level teardown must run after,
// using only the statically registered suite definition. One tracker
// serves one sequential stream of test executions; concurrent suite runs
// are not supported and are rejected rather than guessed at.
type SuiteTracker struct {
	mu             sync.Mutex
	active         *SuiteDefinition
	testsCompleted int
	totalTests     int
}

// NewSuiteTracker creates a tracker in the idle state.
func NewSuiteTracker() *SuiteTracker {
	return &SuiteTracker{totalTests: totalUnknown}
}

// OnTestStart prepares for one test of the given suite. On the first test
// of a run it computes the suite's total test count and fires the
// suite-setup hook; it always fires the per-test setup hook.
//
// A suite-setup failure resets the tracker so a subsequent, independent
// suite starts clean, and is returned as a HookError with PhaseSuiteSetup.
// A per-test setup failure is returned with PhaseTestSetup; the test slot
// is considered consumed and the caller must still invoke OnTestEnd so
// the run can complete.
func (st *SuiteTracker) OnTestStart(def *SuiteDefinition) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.totalTests != totalUnknown && st.active != def {
		return fmt.Errorf("%w: suite %q started while suite %q has %d of %d tests completed",
			ErrSuiteInterleaved, def.Name, st.active.Name, st.testsCompleted, st.totalTests)
	}

	if st.totalTests == totalUnknown {
		total := def.CountTests()
		if total == 0 {
			// A suite without qualifying tests never reaches the "last
			// test" condition, so it must never fire any hook.
			return fmt.Errorf("%w: suite %q", ErrNoTests, def.Name)
		}
		st.totalTests = total
		st.testsCompleted = 0
		st.active = def
		logging.Debug("SuiteTracker", "Suite %s starts with %d tests", def.Name, total)
	}

	if st.testsCompleted == 0 {
		if err := runHook(def.BeforeSuite); err != nil {
			st.resetLocked()
			return &HookError{Phase: PhaseSuiteSetup, Suite: def.Name, Err: err}
		}
	}

	if err := runHook(def.BeforeEach); err != nil {
		return &HookError{Phase: PhaseTestSetup, Suite: def.Name, Err: err}
	}
	return nil
}

// OnTestEnd completes one test of the active suite: it fires the per-test
// teardown hook, advances the completion counter, and after the last test
// fires the suite-teardown hook and resets the tracker. The reset happens
// even when the teardown hook fails, so a following suite starts clean.
func (st *SuiteTracker) OnTestEnd() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.active == nil || st.totalTests == totalUnknown {
		return ErrNoActiveSuite
	}
	def := st.active

	var firstErr error
	if err := runHook(def.AfterEach); err != nil {
		firstErr = &HookError{Phase: PhaseTestTeardown, Suite: def.Name, Err: err}
	}

	st.testsCompleted++

	if st.testsCompleted == st.totalTests {
		logging.Debug("SuiteTracker", "Suite %s completed all %d tests", def.Name, st.totalTests)
		err := runHook(def.AfterSuite)
		st.resetLocked()
		if err != nil && firstErr == nil {
			firstErr = &HookError{Phase: PhaseSuiteTeardown, Suite: def.Name, Err: err}
		}
	}
	return firstErr
}

// Progress returns the completed and total test counts of the active run.
// Outside a run it returns (0, -1).
func (st *SuiteTracker) Progress() (completed, total int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.totalTests == totalUnknown {
		return 0, totalUnknown
	}
	return st.testsCompleted, st.totalTests
}

func (st *SuiteTracker) resetLocked() {
	st.active = nil
	st.testsCompleted = 0
	st.totalTests = totalUnknown
}

func runHook(hook HookFunc) error {
	if hook == nil {
		return nil
	}
	return hook()
}
