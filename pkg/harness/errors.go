package harness

import (
	"errors"
	"fmt"
)

// Common errors for harness operations
var (
	// ErrNoTests is reported when a suite definition chain contains no
	// qualifying tests; such a suite never fires any hooks.
	ErrNoTests = errors.New("suite declares no qualifying tests")

	// ErrSuiteInterleaved is reported when a test of one suite starts
	// while a different suite's run is still in progress. Concurrent or
	// interleaved suite runs are not supported; the tracker fails fast
	// instead of corrupting its counters.
	ErrSuiteInterleaved = errors.New("another suite run is in progress")

	// ErrNoActiveSuite is reported by OnTestEnd without a matching
	// OnTestStart.
	ErrNoActiveSuite = errors.New("no suite run in progress")
)

// HookPhase identifies which lifecycle hook failed.
type HookPhase string

const (
	PhaseSuiteSetup    HookPhase = "suite setup"
	PhaseSuiteTeardown HookPhase = "suite teardown"
	PhaseTestSetup     HookPhase = "test setup"
	PhaseTestTeardown  HookPhase = "test teardown"
)

// HookError reports a lifecycle hook failure with enough context to
// identify which hook of which suite failed.
type HookError struct {
	Phase HookPhase
	Suite string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook of suite %q failed: %v", e.Phase, e.Suite, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// NotFoundError reports that Locate could not resolve a component before
// its deadline. It carries the requested capability type and filter; the
// cause distinguishes a plain timeout from an external cancellation.
type NotFoundError struct {
	Type   string
	Filter string
	Cause  error
}

func (e *NotFoundError) Error() string {
	if e.Filter != "" {
		return fmt.Sprintf("component not found: type %q, filter %q: %v", e.Type, e.Filter, e.Cause)
	}
	return fmt.Sprintf("component not found: type %q: %v", e.Type, e.Cause)
}

func (e *NotFoundError) Unwrap() error { return e.Cause }
