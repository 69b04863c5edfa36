package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/agentlink/agentlink/internal/config"
	"github.com/agentlink/agentlink/internal/fault"
)

// Path identifies one of the network paths tested by the battery.
type Path string

const (
	PathDirect Path = "direct"
	PathProxy  Path = "proxy"
	PathCORS   Path = "cors-preflight"
)

// Result is the outcome of a single one-shot connectivity test.
// Results are value types — created fresh on every run, never mutated.
type Result struct {
	Path        Path
	Success     bool
	HTTPStatus  int
	ContentType string
	Kind        fault.Kind
	Err         string
	Latency     time.Duration

	// CORS response headers, captured on the preflight test for diagnostics.
	AllowOrigin  string
	AllowMethods string
	AllowHeaders string
}

// Battery holds the results of one full probe run. All three tests run
// unconditionally; a failure in one never aborts the others.
type Battery struct {
	Direct Result
	Proxy  Result
	CORS   Result
	RunAt  time.Time
}

// Prober runs the connectivity test battery against a configured backend.
// It is purely observational — no state is kept between runs.
type Prober struct {
	cfg    config.BackendConfig
	client *http.Client
}

// New returns a Prober using the given pre-built HTTP client.
func New(cfg config.BackendConfig, client *http.Client) *Prober {
	return &Prober{cfg: cfg, client: client}
}

// RunAll executes the direct, proxy, and CORS preflight tests and returns
// their combined results. Each test is isolated: network errors are captured
// in the Result, never propagated.
func (p *Prober) RunAll(ctx context.Context) Battery {
	return Battery{
		Direct: p.direct(ctx),
		Proxy:  p.proxy(ctx),
		CORS:   p.preflight(ctx),
		RunAt:  time.Now().UTC(),
	}
}

// direct issues a cross-origin GET to the backend's health endpoint.
// Success requires a 2xx status and a JSON content type.
func (p *Prober) direct(ctx context.Context) Result {
	res := Result{Path: PathDirect}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+"/health", nil)
	if err != nil {
		return failed(res, fault.KindNetwork, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if origin := p.origin(); origin != "" {
		req.Header.Set("Origin", origin)
	}
	return p.doJSON(res, req)
}

// proxy issues a same-origin GET through the configured proxy base.
// A missing proxy_url is reported as a failure, not an error — the
// selector then falls through to the direct path.
func (p *Prober) proxy(ctx context.Context) Result {
	res := Result{Path: PathProxy}
	if p.cfg.ProxyURL == "" {
		return failed(res, fault.KindNetwork, "no proxy origin configured")
	}
	url := p.cfg.ProxyURL + p.cfg.ProxyPrefix + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failed(res, fault.KindNetwork, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	return p.doJSON(res, req)
}

// preflight issues the OPTIONS request a browser would send before a
// cross-origin GET, and records the CORS grant headers for diagnostics.
func (p *Prober) preflight(ctx context.Context) Result {
	res := Result{Path: PathCORS}
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, p.cfg.URL+"/health", nil)
	if err != nil {
		return failed(res, fault.KindCORS, err.Error())
	}
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	if origin := p.origin(); origin != "" {
		req.Header.Set("Origin", origin)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		kind, detail := fault.Classify(err)
		return failed(res, kind, detail)
	}
	defer resp.Body.Close()

	res.HTTPStatus = resp.StatusCode
	res.AllowOrigin = resp.Header.Get("Access-Control-Allow-Origin")
	res.AllowMethods = resp.Header.Get("Access-Control-Allow-Methods")
	res.AllowHeaders = resp.Header.Get("Access-Control-Allow-Headers")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed(res, fault.KindCORS,
			fmt.Sprintf("preflight rejected with status %d", resp.StatusCode))
	}
	res.Success = true
	return res
}

// doJSON performs req and applies the shared success criteria:
// 2xx status and an application/json content type.
func (p *Prober) doJSON(res Result, req *http.Request) Result {
	start := time.Now()
	resp, err := p.client.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		kind, detail := fault.Classify(err)
		return failed(res, kind, detail)
	}
	defer resp.Body.Close()

	res.HTTPStatus = resp.StatusCode
	res.ContentType = resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed(res, fault.KindHTTP,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	if !fault.IsJSON(res.ContentType) {
		return failed(res, fault.KindRoute,
			fmt.Sprintf("backend returned %s instead of JSON — likely a routing misconfiguration", res.ContentType))
	}
	res.Success = true
	return res
}

// origin returns the Origin header value for probe requests.
func (p *Prober) origin() string {
	if p.cfg.Origin != "" {
		return p.cfg.Origin
	}
	return p.cfg.ProxyURL
}

func failed(res Result, kind fault.Kind, msg string) Result {
	res.Success = false
	res.Kind = kind
	res.Err = msg
	return res
}
