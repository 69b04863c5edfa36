// Package system orchestrates the connectivity core: probe once, select a
// path, start periodic health monitoring, verify the chat endpoint, and
// funnel all status through one aggregator. Restart re-runs the whole
// sequence from scratch; a new path is never swapped in place.
package system
