package status

import "strings"

// suggestFor maps a failure message to a human-readable remediation hint
// by keyword. The patterns mirror the failure modes seen in deployment:
// HTML bodies mean a misrouted proxy, CORS mentions mean missing grant
// headers, and everything network-shaped means the backend is down.
func suggestFor(errText string) string {
	lower := strings.ToLower(errText)
	switch {
	case lower == "":
		return ""
	case strings.Contains(lower, "html"):
		return "the request is being served by a static page — check the proxy route configuration"
	case strings.Contains(lower, "cors") || strings.Contains(lower, "preflight"):
		return "the backend is not granting cross-origin access — check its CORS allow headers"
	case strings.Contains(lower, "timed out") || strings.Contains(lower, "timeout"):
		return "the backend did not answer in time — it may be cold-starting or overloaded"
	case strings.Contains(lower, "refused") || strings.Contains(lower, "dns") || strings.Contains(lower, "network"):
		return "the backend appears to be down or unreachable — check that the service is running"
	default:
		return "check the backend logs for details"
	}
}
