package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind is the failure category attached to every tagged result in the
// connectivity core. Kinds are stable strings so they can be logged,
// serialized, and matched by the status suggestion heuristic.
type Kind string

const (
	// KindNone marks a successful result.
	KindNone Kind = ""

	// KindNetwork covers connection refused, DNS failure, and timeouts.
	KindNetwork Kind = "network_error"

	// KindCORS covers requests rejected by cross-origin policy — for this
	// client, a failed or header-less OPTIONS preflight.
	KindCORS Kind = "cors_error"

	// KindRoute covers HTTP responses that succeeded at the transport level
	// but returned HTML where JSON was expected. This almost always means a
	// misconfigured proxy or routing rule, not a backend bug.
	KindRoute Kind = "route_error"

	// KindHTTP covers transport-level success with a non-2xx status code.
	KindHTTP Kind = "http_error"

	// KindNotInitialized covers calls made before a usable path was selected.
	KindNotInitialized Kind = "not_initialized"
)

// Classify maps a transport error to a Kind and a short human-readable
// detail string. It never returns KindNone for a non-nil error.
func Classify(err error) (Kind, string) {
	if err == nil {
		return KindNone, ""
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindNetwork, "request timed out"
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindNetwork, "request timed out"
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindNetwork, "connection refused"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNetwork, fmt.Sprintf("dns lookup failed for %s", dnsErr.Name)
	}

	return KindNetwork, err.Error()
}

// IsJSON reports whether a Content-Type header value denotes a JSON body.
func IsJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}
