// Package registry provides the in-process dynamic component registry that
// the test harness observes.
//
// Components are published under a type name with an optional set of string
// properties and can appear and disappear at any time, from any goroutine.
// Test code never polls the registry; it opens a Subscription scoped to a
// type (and optionally a filter expression over the component properties)
// and blocks on Subscription.WaitForMatch until a matching component is
// available or a deadline passes.
//
// A subscription sees components that were already registered when it was
// opened as well as components that arrive later. Subscriptions are scoped
// resources: callers must Close them on every exit path, which is cheap and
// idempotent.
//
// Listeners registered with AddListener receive add/remove events for every
// component and are used by live views such as the TUI.
package registry
