// Package ws streams status reports to browser dashboards over WebSocket.
// The hub is wired as a sink on the status aggregator: every report is
// pushed to all connected clients as it happens, and a newly connected
// client immediately receives the current status. Slow clients are
// disconnected rather than allowed to stall the publisher.
package ws
