package registry

import (
	"fmt"
	"sync"
	"time"

	"rigctl/pkg/filter"
	"rigctl/pkg/logging"

	"github.com/google/uuid"
)

// Component is a dynamically registered component instance. The registry
// owns the record; callers treat it as read-only.
type Component struct {
	ID           string
	Type         string
	Properties   map[string]string
	Instance     interface{}
	RegisteredAt time.Time
}

// EventKind identifies the kind of registry change an Event describes.
type EventKind int

const (
	ComponentAdded EventKind = iota
	ComponentRemoved
)

// Event describes a single registry change.
type Event struct {
	Kind      EventKind
	Component *Component
}

// ListenerFunc receives registry change events.
type ListenerFunc func(Event)

// Metrics tracks registry activity.
type Metrics struct {
	ComponentsPublished int64
	ComponentsRemoved   int64
	EventsDelivered     int64
	EventsDropped       int64
	ActiveSubscriptions int
}

// Registry is the in-memory component registry.
type Registry struct {
	mu            sync.RWMutex
	components    map[string]*Component
	subscriptions map[string]*Subscription
	listeners     []ListenerFunc
	metrics       Metrics
	closed        bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		components:    make(map[string]*Component),
		subscriptions: make(map[string]*Subscription),
	}
}

// Registration is the handle returned by Publish. Holding it allows a test
// to remove the component it registered.
type Registration struct {
	registry  *Registry
	component *Component
}

// ID returns the registry-assigned component ID.
func (r *Registration) ID() string {
	return r.component.ID
}

// Component returns the registered component record.
func (r *Registration) Component() *Component {
	return r.component
}

// Unpublish removes the registered component from the registry.
func (r *Registration) Unpublish() error {
	return r.registry.Unpublish(r.component.ID)
}

// Publish registers a component instance under a type with optional
// properties and notifies matching subscriptions and listeners.
func (r *Registry) Publish(componentType string, instance interface{}, properties map[string]string) (*Registration, error) {
	if componentType == "" {
		return nil, fmt.Errorf("component type must not be empty")
	}

	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}

	component := &Component{
		ID:           uuid.New().String(),
		Type:         componentType,
		Properties:   props,
		Instance:     instance,
		RegisteredAt: time.Now(),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("registry is closed")
	}
	r.components[component.ID] = component
	r.metrics.ComponentsPublished++

	// Snapshot subscriptions and listeners so delivery happens outside the
	// registry lock.
	subs := make([]*Subscription, 0, len(r.subscriptions))
	for _, sub := range r.subscriptions {
		subs = append(subs, sub)
	}
	listeners := make([]ListenerFunc, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	delivered, dropped := 0, 0
	for _, sub := range subs {
		if !sub.matches(component) {
			continue
		}
		if sub.deliver(component) {
			delivered++
		} else {
			dropped++
		}
	}

	r.mu.Lock()
	r.metrics.EventsDelivered += int64(delivered)
	r.metrics.EventsDropped += int64(dropped)
	r.mu.Unlock()

	for _, listener := range listeners {
		listener(Event{Kind: ComponentAdded, Component: component})
	}

	logging.Debug("Registry", "Published component %s (type: %s, properties: %v)",
		component.ID, component.Type, component.Properties)

	return &Registration{registry: r, component: component}, nil
}

// Unpublish removes a component by ID and notifies listeners.
func (r *Registry) Unpublish(id string) error {
	r.mu.Lock()
	component, exists := r.components[id]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("component %s not registered", id)
	}
	delete(r.components, id)
	r.metrics.ComponentsRemoved++
	listeners := make([]ListenerFunc, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, listener := range listeners {
		listener(Event{Kind: ComponentRemoved, Component: component})
	}

	logging.Debug("Registry", "Removed component %s (type: %s)", component.ID, component.Type)
	return nil
}

// Get returns a component by ID.
func (r *Registry) Get(id string) (*Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	component, exists := r.components[id]
	return component, exists
}

// List returns all registered components.
func (r *Registry) List() []*Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	components := make([]*Component, 0, len(r.components))
	for _, c := range r.components {
		components = append(components, c)
	}
	return components
}

// ListByType returns all registered components of a type.
func (r *Registry) ListByType(componentType string) []*Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var components []*Component
	for _, c := range r.components {
		if c.Type == componentType {
			components = append(components, c)
		}
	}
	return components
}

// Subscribe opens a subscription for components of the given type. A
// non-empty filter expression narrows the match further; it is combined
// with the type condition by AND, so the expression itself does not need
// to repeat the type term.
//
// Matches already present at subscription time are delivered immediately.
func (r *Registry) Subscribe(componentType string, filterExpr string) (*Subscription, error) {
	if componentType == "" {
		return nil, fmt.Errorf("component type must not be empty")
	}
	expr, err := filter.Parse(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	sub := &Subscription{
		id:            uuid.New().String(),
		registry:      r,
		componentType: componentType,
		expr:          expr,
		composed:      filter.And(filter.Term("type", componentType), expr).String(),
		ch:            make(chan *Component, subscriptionBuffer),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("registry is closed")
	}
	r.subscriptions[sub.id] = sub
	r.metrics.ActiveSubscriptions++

	// Pre-seed components that already match so WaitForMatch returns
	// without waiting for new arrivals.
	existing := make([]*Component, 0)
	for _, c := range r.components {
		if sub.matches(c) {
			existing = append(existing, c)
		}
	}
	r.mu.Unlock()

	for _, c := range existing {
		sub.deliver(c)
	}

	return sub, nil
}

// AddListener registers a callback for all registry change events.
func (r *Registry) AddListener(listener ListenerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, listener)
}

// GetMetrics returns a snapshot of registry activity counters.
func (r *Registry) GetMetrics() Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics
}

// Close closes the registry and all open subscriptions.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	subs := make([]*Subscription, 0, len(r.subscriptions))
	for _, sub := range r.subscriptions {
		subs = append(subs, sub)
	}
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// removeSubscription detaches a closed subscription from the registry.
func (r *Registry) removeSubscription(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.subscriptions[id]; exists {
		delete(r.subscriptions, id)
		r.metrics.ActiveSubscriptions--
	}
}
