package probe

// Method is the transport path a SelectedPath routes requests over.
type Method string

const (
	MethodProxy  Method = "proxy"
	MethodDirect Method = "direct"
	MethodNone   Method = "none"
)

// SelectedPath is the single best reachable path derived from a Battery.
// It is immutable once computed; choosing a new path requires re-running
// the full probe sequence.
type SelectedPath struct {
	Method  Method
	BaseURL string
	Prefix  string
}

// Usable reports whether the path can carry requests.
func (s SelectedPath) Usable() bool { return s.Method != MethodNone }

// Endpoint resolves an API path (e.g. "/chat") to a full request URL.
// Returns empty string for an unusable path.
func (s SelectedPath) Endpoint(path string) string {
	if !s.Usable() {
		return ""
	}
	return s.BaseURL + s.Prefix + path
}

// Select derives the best path from a probe battery. Precedence, first
// match wins:
//
//  1. Proxy test succeeded → proxy. Same-origin relaying sidesteps browser
//     CORS entirely, so it is always preferred when available.
//  2. Direct AND preflight both succeeded → direct. Cross-origin access is
//     accepted only when the backend explicitly granted it.
//  3. Otherwise → none. Callers must surface a hard failure rather than
//     guess at an unverified path.
func Select(b Battery, cfg PathConfig) SelectedPath {
	switch {
	case b.Proxy.Success:
		return SelectedPath{Method: MethodProxy, BaseURL: cfg.ProxyURL, Prefix: cfg.ProxyPrefix}
	case b.Direct.Success && b.CORS.Success:
		return SelectedPath{Method: MethodDirect, BaseURL: cfg.BackendURL}
	default:
		return SelectedPath{Method: MethodNone}
	}
}

// PathConfig carries the base URLs Select stamps onto the chosen path.
type PathConfig struct {
	BackendURL  string
	ProxyURL    string
	ProxyPrefix string
}
