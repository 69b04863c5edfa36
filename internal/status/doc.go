// Package status aggregates events from the probe, health, and chat layers
// into a single stream of user-facing reports (success | warning | error)
// with structured details and a remediation suggestion.
//
// The aggregator is the one place the UI reads status from: producers are
// decoupled from consumers, the current report is last-write-wins, and a
// bounded history is retained for the diagnostics view.
package status
