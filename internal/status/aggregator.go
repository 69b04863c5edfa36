package status

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentlink/agentlink/internal/chat"
	"github.com/agentlink/agentlink/internal/health"
	"github.com/agentlink/agentlink/internal/probe"
)

// Level is the user-facing severity of a status report.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// historyCap bounds the diagnostic report history.
const historyCap = 20

// Report is one aggregated, renderable status update. Each new report
// fully replaces the current status; the history is kept for diagnostics.
type Report struct {
	Level      Level             `json:"level"`
	Source     string            `json:"source"` // "probe" | "health" | "chat"
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Aggregator funnels events from the probe, health, and chat layers into a
// single stream of Reports. Mapping is pure — no network I/O happens here.
// The current report is last-write-wins across producers.
//
// Aggregator is safe for concurrent use.
type Aggregator struct {
	now func() time.Time

	mu      sync.Mutex
	current *Report
	history []Report // newest first
	sinks   map[int]func(Report)
	nextID  int
}

// NewAggregator returns a ready-to-use Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		now:   time.Now,
		sinks: make(map[int]func(Report)),
	}
}

// FromProbe maps a probe battery and the path selected from it to a Report.
// Proxy reachable or direct+cors reachable is success; direct-without-cors
// is a warning (reachable but fragile); anything else is an error carrying
// the raw per-path diagnostics.
func (a *Aggregator) FromProbe(b probe.Battery, sel probe.SelectedPath) Report {
	details := map[string]string{
		"direct": describe(b.Direct),
		"proxy":  describe(b.Proxy),
		"cors":   describe(b.CORS),
	}

	var r Report
	switch {
	case b.Proxy.Success:
		r = Report{
			Level:   LevelSuccess,
			Message: "backend reachable via same-origin proxy",
		}
	case b.Direct.Success && b.CORS.Success:
		r = Report{
			Level:   LevelSuccess,
			Message: "backend reachable directly with CORS grant",
		}
	case b.Direct.Success:
		r = Report{
			Level:      LevelWarning,
			Message:    "backend reachable directly but CORS preflight failed — browser clients will be blocked",
			Suggestion: suggestFor(b.CORS.Err),
		}
	default:
		r = Report{
			Level:      LevelError,
			Message:    "no reachable backend — all connectivity tests failed",
			Suggestion: suggestFor(firstError(b)),
		}
	}
	r.Source = "probe"
	r.Details = details
	details["selected"] = string(sel.Method)
	return a.record(r)
}

// FromHealth maps one health observation to a Report. The monitor's error
// text is carried verbatim as the message on failure.
func (a *Aggregator) FromHealth(st health.Status) Report {
	var r Report
	if st.Success {
		r = Report{
			Level:   LevelSuccess,
			Message: fmt.Sprintf("%s %s healthy (uptime %.0fs)", st.Service, st.Version, st.UptimeSeconds),
		}
	} else {
		r = Report{
			Level:      LevelError,
			Message:    st.Message,
			Suggestion: suggestFor(st.Message),
		}
	}
	r.Source = "health"
	r.Details = map[string]string{
		"path":       string(st.Path),
		"latency_ms": fmt.Sprintf("%d", st.Latency.Milliseconds()),
	}
	return a.record(r)
}

// FromChat maps one chat exchange to a Report. The request ID is included
// on failure so a UI report can be correlated with the history entry.
func (a *Aggregator) FromChat(ex chat.Exchange) Report {
	var r Report
	if ex.Result.Success {
		r = Report{
			Level:   LevelSuccess,
			Message: fmt.Sprintf("chat responded in %dms", ex.Duration.Milliseconds()),
		}
	} else {
		r = Report{
			Level:      LevelError,
			Message:    fmt.Sprintf("chat request failed: %s", ex.Result.Err),
			Suggestion: suggestFor(ex.Result.Err),
		}
	}
	r.Source = "chat"
	r.Details = map[string]string{
		"request_id":  ex.RequestID,
		"duration_ms": fmt.Sprintf("%d", ex.Duration.Milliseconds()),
	}
	return a.record(r)
}

// Current returns a copy of the most recent report, or nil before the
// first event.
func (a *Aggregator) Current() *Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	cp := *a.current
	return &cp
}

// History returns up to limit recent reports, newest first. A non-positive
// limit returns the full retained history.
func (a *Aggregator) History(limit int) []Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Report, n)
	copy(out, a.history[:n])
	return out
}

// Subscribe registers a sink invoked with every new report. The returned
// disposer removes the subscription.
func (a *Aggregator) Subscribe(fn func(Report)) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.sinks[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.sinks, id)
			a.mu.Unlock()
		})
	}
}

// record stamps, stores, and fans out a report.
func (a *Aggregator) record(r Report) Report {
	r.Timestamp = a.now().UTC()

	a.mu.Lock()
	cp := r
	a.current = &cp
	a.history = append(a.history, Report{})
	copy(a.history[1:], a.history)
	a.history[0] = r
	if len(a.history) > historyCap {
		a.history = a.history[:historyCap]
	}
	sinks := make([]func(Report), 0, len(a.sinks))
	for _, fn := range a.sinks {
		sinks = append(sinks, fn)
	}
	a.mu.Unlock()

	for _, fn := range sinks {
		deliver(fn, r)
	}
	return r
}

func deliver(fn func(Report), r Report) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("status: sink panicked", "panic", rec)
		}
	}()
	fn(r)
}

// describe renders one probe result for the details map.
func describe(res probe.Result) string {
	if res.Success {
		return fmt.Sprintf("ok (%d, %dms)", res.HTTPStatus, res.Latency.Milliseconds())
	}
	return fmt.Sprintf("failed: %s", res.Err)
}

// firstError returns the first failure message in battery order.
func firstError(b probe.Battery) string {
	for _, res := range []probe.Result{b.Proxy, b.Direct, b.CORS} {
		if !res.Success && res.Err != "" {
			return res.Err
		}
	}
	return ""
}
