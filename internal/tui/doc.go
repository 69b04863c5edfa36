// Package tui implements the interactive terminal chat session: a
// transcript view, an input line, and a live connection badge driven by
// aggregated status reports. All connectivity logic lives in the system
// package; this package only renders.
package tui
