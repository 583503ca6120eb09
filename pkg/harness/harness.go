package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"rigctl/pkg/configstore"
	"rigctl/pkg/logging"
	"rigctl/pkg/registry"
)

// Harness wires the suite tracker, the component locator, the registry and
// the configuration store into one execution context for integration
// tests against a dynamic component runtime.
type Harness struct {
	registry *registry.Registry
	config   *configstore.Store
	tracker  *SuiteTracker
	locator  *Locator
}

// New creates a harness over an existing registry and configuration store.
func New(reg *registry.Registry, config *configstore.Store) *Harness {
	return &Harness{
		registry: reg,
		config:   config,
		tracker:  NewSuiteTracker(),
		locator:  NewLocator(reg),
	}
}

// Registry returns the component registry the harness observes.
func (h *Harness) Registry() *registry.Registry {
	return h.registry
}

// Tracker returns the suite lifecycle tracker.
func (h *Harness) Tracker() *SuiteTracker {
	return h.tracker
}

// Locate resolves a capability query within the given timeout.
func (h *Harness) Locate(ctx context.Context, query Query, timeout time.Duration) (*registry.Component, error) {
	return h.locator.Locate(ctx, query, timeout)
}

// LocateType resolves a component by type alone with the default timeout.
func (h *Harness) LocateType(ctx context.Context, componentType string) (*registry.Component, error) {
	return h.locator.LocateType(ctx, componentType)
}

// TryLocate resolves an optional dependency, yielding (nil, false) when
// it is not available quickly.
func (h *Harness) TryLocate(ctx context.Context, query Query) (*registry.Component, bool) {
	return h.locator.TryLocate(ctx, query)
}

// Publish registers a component for the duration of a test, typically a
// fake or stub standing in for a real service. The returned registration
// lets the test remove it again.
func (h *Harness) Publish(componentType string, instance interface{}, properties map[string]string) (*registry.Registration, error) {
	return h.registry.Publish(componentType, instance, properties)
}

// Configure writes configuration for a single component: it fetches or
// creates the record with the given id and replaces its properties.
func (h *Harness) Configure(id string, properties map[string]string) error {
	record, err := h.config.FetchOrCreate(id)
	if err != nil {
		return err
	}
	return record.Update(properties)
}

// Configuration returns the current properties of a configuration record,
// creating an empty record if none exists.
func (h *Harness) Configuration(id string) (map[string]string, error) {
	record, err := h.config.FetchOrCreate(id)
	if err != nil {
		return nil, err
	}
	return record.Properties(), nil
}

// RunSuite executes a suite definition under the standard test engine,
// one subtest per qualifying test. Suite-setup runs before the first
// test, suite-teardown after the last; per-test hooks run around every
// test body. A suite without qualifying tests is a no-op.
//
// A suite-setup failure fails the current test and aborts the remaining
// tests of this run without corrupting the tracker for a later suite.
func (h *Harness) RunSuite(t *testing.T, def *SuiteDefinition) {
	tests := def.collectTests()
	if len(tests) == 0 {
		logging.Debug("Harness", "Suite %s declares no qualifying tests", def.Name)
		return
	}

	var abort error
	for _, td := range tests {
		td := td
		t.Run(td.Name, func(t *testing.T) {
			if abort != nil {
				t.Fatalf("suite %s aborted: %v", def.Name, abort)
			}

			startErr := h.tracker.OnTestStart(def)
			if startErr != nil && !isTestSetupFailure(startErr) {
				abort = startErr
				t.Fatalf("suite %s: %v", def.Name, startErr)
			}

			// The slot is consumed even when per-test setup failed, so the
			// run still detects its last test and fires suite teardown.
			defer func() {
				if endErr := h.tracker.OnTestEnd(); endErr != nil {
					t.Errorf("suite %s: %v", def.Name, endErr)
				}
			}()

			if startErr != nil {
				t.Fatalf("suite %s: %v", def.Name, startErr)
			}

			td.Run(t, h)
		})
	}
}

func isTestSetupFailure(err error) bool {
	var hookErr *HookError
	return errors.As(err, &hookErr) && hookErr.Phase == PhaseTestSetup
}
