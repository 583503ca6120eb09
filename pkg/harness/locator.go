package harness

import (
	"context"
	"fmt"
	"time"

	"rigctl/pkg/logging"
	"rigctl/pkg/registry"
)

const (
	// DefaultTimeout bounds a Locate call that does not specify its own
	// deadline. Tests must never hang indefinitely on a missing component.
	DefaultTimeout = 5 * time.Second

	// probeTimeout is the short deadline TryLocate uses for optional
	// dependencies.
	probeTimeout = 250 * time.Millisecond
)

// Query identifies what the locator must find: a capability type and an
// optional filter expression over the component's properties. The filter
// is combined with the type condition by AND; it does not need to repeat
// the type term.
type Query struct {
	Type   string
	Filter string
}

// Locator resolves capability queries against a live, mutating registry
// within a fixed deadline, abstracting over "may not exist yet".
type Locator struct {
	registry *registry.Registry
}

// NewLocator creates a locator over the given registry.
func NewLocator(reg *registry.Registry) *Locator {
	return &Locator{registry: reg}
}

// Locate blocks until a component matching the query is registered or the
// timeout elapses. A timeout of zero or less selects DefaultTimeout.
//
// On success the component handle is returned; ownership stays with the
// registry. On timeout, and equally on cancellation of ctx while waiting,
// Locate fails with a NotFoundError recording the cause. The registry
// subscription backing the wait is closed on every exit path.
func (l *Locator) Locate(ctx context.Context, query Query, timeout time.Duration) (*registry.Component, error) {
	if query.Type == "" {
		return nil, fmt.Errorf("capability type must not be empty")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	sub, err := l.registry.Subscribe(query.Type, query.Filter)
	if err != nil {
		return nil, fmt.Errorf("subscribing for %q: %w", query.Type, err)
	}
	defer sub.Close()

	component, err := sub.WaitForMatch(ctx, timeout)
	if err != nil {
		logging.Debug("Locator", "No match for %s within %v: %v", sub.Filter(), timeout, err)
		return nil, &NotFoundError{Type: query.Type, Filter: query.Filter, Cause: err}
	}

	logging.Debug("Locator", "Resolved %s to component %s", sub.Filter(), component.ID)
	return component, nil
}

// LocateType resolves a component by type alone, with the default timeout.
func (l *Locator) LocateType(ctx context.Context, componentType string) (*registry.Component, error) {
	return l.Locate(ctx, Query{Type: componentType}, DefaultTimeout)
}

// TryLocate attempts to resolve an optional dependency with a short
// deadline. It never fails: an unmet query yields (nil, false).
func (l *Locator) TryLocate(ctx context.Context, query Query) (*registry.Component, bool) {
	component, err := l.Locate(ctx, query, probeTimeout)
	if err != nil {
		return nil, false
	}
	return component, true
}
