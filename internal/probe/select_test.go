package probe

import "testing"

var selectCfg = PathConfig{
	BackendURL:  "https://backend.example",
	ProxyURL:    "https://app.example",
	ProxyPrefix: "/api",
}

// battery builds a Battery with the given per-test outcomes.
func battery(proxy, direct, cors bool) Battery {
	return Battery{
		Proxy:  Result{Path: PathProxy, Success: proxy},
		Direct: Result{Path: PathDirect, Success: direct},
		CORS:   Result{Path: PathCORS, Success: cors},
	}
}

func TestSelect_Precedence(t *testing.T) {
	tests := []struct {
		name                string
		proxy, direct, cors bool
		want                Method
	}{
		{"proxy wins over everything", true, true, true, MethodProxy},
		{"proxy wins even when direct fails", true, false, false, MethodProxy},
		{"direct needs cors grant", false, true, true, MethodDirect},
		{"direct without cors is unusable", false, true, false, MethodNone},
		{"cors without direct is unusable", false, false, true, MethodNone},
		{"nothing works", false, false, false, MethodNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(battery(tt.proxy, tt.direct, tt.cors), selectCfg)
			if got.Method != tt.want {
				t.Errorf("Select() method = %q, want %q", got.Method, tt.want)
			}
		})
	}
}

func TestSelect_ProxyPathCarriesPrefix(t *testing.T) {
	p := Select(battery(true, false, false), selectCfg)
	if p.BaseURL != "https://app.example" {
		t.Errorf("BaseURL = %q", p.BaseURL)
	}
	if got := p.Endpoint("/chat"); got != "https://app.example/api/chat" {
		t.Errorf("Endpoint(/chat) = %q", got)
	}
}

func TestSelect_DirectPathHasNoPrefix(t *testing.T) {
	p := Select(battery(false, true, true), selectCfg)
	if got := p.Endpoint("/chat"); got != "https://backend.example/chat" {
		t.Errorf("Endpoint(/chat) = %q", got)
	}
}

func TestSelect_NonePathUnusable(t *testing.T) {
	p := Select(battery(false, false, false), selectCfg)
	if p.Usable() {
		t.Error("none path should not be usable")
	}
	if got := p.Endpoint("/chat"); got != "" {
		t.Errorf("Endpoint on none path = %q, want empty", got)
	}
}
