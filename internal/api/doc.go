// Package api serves the local status dashboard: a JSON API over the
// orchestrator's state (/api/v1/status, /diagnostics, /stats, /history),
// a chat relay (/api/v1/chat), a WebSocket status stream (/ws), and
// Prometheus metrics (/metrics).
package api
