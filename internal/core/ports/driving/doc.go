// Package driving provides interfaces for the application core as
// consumed by inbound adapters (HTTP API, CLI, TUI, watcher).
package driving
