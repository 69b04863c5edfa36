package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/agentlink/agentlink/internal/fault"
	"github.com/agentlink/agentlink/internal/probe"
)

// ErrNoPath is returned by NewMonitor when no usable path was selected.
// Downstream health checks must not silently proceed without one.
var ErrNoPath = errors.New("health: no usable backend path")

// DefaultInterval is the polling interval used when Start is given zero.
const DefaultInterval = 30 * time.Second

// Status is one observation of the backend's health endpoint. A new Status
// is created on every check; only the most recent one is retained.
type Status struct {
	Success       bool
	Service       string
	Version       string
	UptimeSeconds float64
	Kind          fault.Kind
	Message       string
	Timestamp     time.Time
	Path          probe.Method
	Latency       time.Duration
}

// healthPayload is the backend's /health response shape.
type healthPayload struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Monitor polls the backend's health endpoint over a selected path and
// notifies subscribers with every observation, including failures.
//
// Monitor is safe for concurrent use. The periodic loop is a cancellable
// task: Start spawns it, Stop cancels it, and both are idempotent.
type Monitor struct {
	path   probe.SelectedPath
	client *http.Client
	now    func() time.Time // injectable for deterministic tests

	mu      sync.Mutex
	subs    map[int]func(Status)
	nextSub int
	last    *Status
	cancel  context.CancelFunc // non-nil while the loop is running
}

// NewMonitor creates a Monitor bound to the given path. Fails with
// ErrNoPath when the path is unusable.
func NewMonitor(path probe.SelectedPath, client *http.Client) (*Monitor, error) {
	if !path.Usable() {
		return nil, ErrNoPath
	}
	return &Monitor{
		path:   path,
		client: client,
		now:    time.Now,
		subs:   make(map[int]func(Status)),
	}, nil
}

// CheckOnce performs a single health check and returns the observation.
// It never returns an error: network faults, non-2xx statuses, and
// non-JSON bodies are all folded into a failed Status. The result is
// retained as the last known status and delivered to subscribers.
func (m *Monitor) CheckOnce(ctx context.Context) Status {
	st := m.check(ctx)

	m.mu.Lock()
	cp := st
	m.last = &cp
	subs := make([]func(Status), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		notify(fn, st)
	}
	return st
}

func (m *Monitor) check(ctx context.Context) Status {
	st := Status{Timestamp: m.now().UTC(), Path: m.path.Method}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.path.Endpoint("/health"), nil)
	if err != nil {
		st.Kind, st.Message = fault.KindNetwork, err.Error()
		return st
	}
	req.Header.Set("Accept", "application/json")

	start := m.now()
	resp, err := m.client.Do(req)
	st.Latency = m.now().Sub(start)
	if err != nil {
		st.Kind, st.Message = fault.Classify(err)
		return st
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		st.Kind = fault.KindHTTP
		st.Message = fmt.Sprintf("health endpoint returned status %d", resp.StatusCode)
		return st
	}
	if !fault.IsJSON(resp.Header.Get("Content-Type")) {
		st.Kind = fault.KindRoute
		st.Message = "backend returned non-JSON health response"
		return st
	}

	var payload healthPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		st.Kind = fault.KindRoute
		st.Message = fmt.Sprintf("malformed health JSON: %v", err)
		return st
	}

	st.Success = true
	st.Service = payload.Service
	st.Version = payload.Version
	st.UptimeSeconds = payload.UptimeSeconds
	return st
}

// Start performs one immediate check, then polls every interval until
// Stop is called. Calling Start while already running is a no-op.
// A zero interval selects DefaultInterval.
func (m *Monitor) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		slog.Info("health: monitor already running — start ignored")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	slog.Info("health: monitor started", "interval", interval, "path", m.path.Method)

	// ctx drives scheduling only. Each check runs on its own context so
	// Stop never aborts a request already on the wire — the in-flight
	// check completes (bounded by the client's request timeout) and its
	// result is still recorded and delivered.
	go func() {
		m.CheckOnce(context.Background())
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.CheckOnce(context.Background())
			}
		}
	}()
}

// Stop cancels the polling loop. An in-flight check still completes and
// still notifies subscribers. Stop is idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		slog.Info("health: monitor stopped")
	}
}

// Running reports whether the periodic loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Subscribe registers fn to receive every Status, including failures.
// The returned disposer removes the subscription; calling it more than
// once is harmless.
func (m *Monitor) Subscribe(fn func(Status)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Last returns a copy of the most recent Status, or nil before the
// first check.
func (m *Monitor) Last() *Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil
	}
	cp := *m.last
	return &cp
}

// notify delivers st to one subscriber, isolating panics so a misbehaving
// subscriber cannot prevent others from being notified.
func notify(fn func(Status), st Status) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("health: subscriber panicked", "panic", r)
		}
	}()
	fn(st)
}
