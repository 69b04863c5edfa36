// Package probe runs the one-shot connectivity test battery against the
// backend (direct cross-origin GET, same-origin proxy GET, CORS preflight
// OPTIONS) and derives the single best reachable path from the results.
//
// The battery is purely observational: each test is isolated, captures
// pass/fail plus diagnostic metadata, and never raises an error to the
// caller. Select applies a fixed precedence — proxy, then direct with a
// confirmed CORS grant, then none.
package probe
