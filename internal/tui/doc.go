// Package tui renders a live dashboard for scenario runs. The top pane
// tracks scenario and step progress, the middle pane lists the components
// currently registered in the running scenario's registry, and the bottom
// pane is a scrollable activity log fed by the logging stream.
package tui
