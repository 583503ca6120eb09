package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"rigctl/pkg/filter"
)

// subscriptionBuffer bounds how many undelivered matches a subscription
// holds before further matches are dropped. A waiter only ever needs one.
const subscriptionBuffer = 16

var (
	// ErrWaitTimeout is returned by WaitForMatch when the deadline passes
	// before a matching component is registered.
	ErrWaitTimeout = errors.New("timed out waiting for a matching component")

	// ErrSubscriptionClosed is returned by WaitForMatch when the
	// subscription was closed while waiting.
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// Subscription is a registry listener scoped to one component type and an
// optional filter expression.
type Subscription struct {
	id            string
	registry      *Registry
	componentType string
	expr          *filter.Expression
	composed      string
	ch            chan *Component

	mu     sync.Mutex
	closed bool
}

// Filter returns the full filter this subscription matches against, with
// the type condition conjoined to any caller-supplied expression.
func (s *Subscription) Filter() string {
	return s.composed
}

// matches reports whether a component satisfies type and filter. The
// component type is exposed to the expression as a "type" property so
// filters may also name it explicitly.
func (s *Subscription) matches(c *Component) bool {
	if c.Type != s.componentType {
		return false
	}
	if s.expr == nil {
		return true
	}
	props := make(map[string]string, len(c.Properties)+1)
	for k, v := range c.Properties {
		props[k] = v
	}
	props["type"] = c.Type
	return s.expr.Matches(props)
}

// deliver hands a matching component to the waiter. Returns false if the
// subscription is closed or its buffer is full.
func (s *Subscription) deliver(c *Component) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- c:
		return true
	default:
		return false
	}
}

// WaitForMatch blocks until a matching component is available, the timeout
// elapses, or the context is cancelled. It never polls; delivery is purely
// notification driven.
func (s *Subscription) WaitForMatch(ctx context.Context, timeout time.Duration) (*Component, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c, ok := <-s.ch:
		if !ok {
			return nil, ErrSubscriptionClosed
		}
		return c, nil
	case <-timer.C:
		return nil, ErrWaitTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close detaches the subscription from the registry. Safe to call more
// than once and from any goroutine.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.registry.removeSubscription(s.id)
}

// IsClosed reports whether Close has been called.
func (s *Subscription) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
