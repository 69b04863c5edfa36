// Package chat sends user messages to the backend's /chat endpoint over
// the selected path.
//
// Every send — success or failure — is recorded in a 50-entry newest-first
// history with a unique request ID and wall-clock duration; Stats derives
// success rate and average latency from that history on demand. Send
// returns a tagged Result rather than an error so the render layer never
// needs exception-style handling: HTML-instead-of-JSON responses, non-2xx
// statuses, and transport failures each carry their own fault.Kind.
package chat
