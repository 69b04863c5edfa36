package system

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentlink/agentlink/internal/backend"
	"github.com/agentlink/agentlink/internal/chat"
	"github.com/agentlink/agentlink/internal/config"
	"github.com/agentlink/agentlink/internal/fault"
	"github.com/agentlink/agentlink/internal/health"
	"github.com/agentlink/agentlink/internal/probe"
	"github.com/agentlink/agentlink/internal/status"
)

// State is the orchestrator's lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"

	// StateOperational — path selected, health monitoring running, chat ready.
	StateOperational State = "operational"

	// StateDegraded — backend reachable but the chat endpoint failed its
	// connectivity check. Health monitoring continues; sends are refused.
	StateDegraded State = "degraded"

	// StateError — no reachable path. Nothing runs until Restart.
	StateError State = "error"
)

// System wires the probe, selector, health monitor, chat client, and status
// aggregator into one lifecycle. It is constructed once by the entry point
// and handed to whatever UI needs it — there is no ambient global instance.
type System struct {
	cfg    *config.Config
	client *http.Client

	mu      sync.Mutex
	state   State
	battery probe.Battery
	path    probe.SelectedPath
	monitor *health.Monitor
	chat    *chat.Client
	agg     *status.Aggregator
}

// New creates an uninitialized System from cfg. Call Initialize to probe
// connectivity and start monitoring.
func New(cfg *config.Config) *System {
	return &System{
		cfg:    cfg,
		client: backend.NewClient(cfg.Backend),
		state:  StateUninitialized,
		agg:    status.NewAggregator(),
	}
}

// Initialize runs the probe battery, selects a path, starts the health
// monitor, and verifies the chat endpoint. Chat failure is non-fatal: the
// system proceeds degraded with health monitoring still running. A nil
// return does not imply chat is available — check State.
//
// Initialize is not re-entrant with itself; callers serialize lifecycle
// calls (the CLI and dashboard both do).
func (s *System) Initialize(ctx context.Context) error {
	s.setState(StateInitializing)
	slog.Info("system: initializing", "backend", s.cfg.Backend.URL)

	battery := probe.New(s.cfg.Backend, s.client).RunAll(ctx)
	path := probe.Select(battery, probe.PathConfig{
		BackendURL:  s.cfg.Backend.URL,
		ProxyURL:    s.cfg.Backend.ProxyURL,
		ProxyPrefix: s.cfg.Backend.ProxyPrefix,
	})
	s.agg.FromProbe(battery, path)

	s.mu.Lock()
	s.battery = battery
	s.path = path
	s.mu.Unlock()

	if !path.Usable() {
		s.setState(StateError)
		slog.Error("system: no reachable backend",
			"direct_err", battery.Direct.Err,
			"proxy_err", battery.Proxy.Err,
			"cors_err", battery.CORS.Err)
		return health.ErrNoPath
	}
	slog.Info("system: path selected", "method", path.Method, "base_url", path.BaseURL)

	monitor, err := health.NewMonitor(path, s.client)
	if err != nil {
		// Unreachable given the Usable check above, but fail closed.
		s.setState(StateError)
		return err
	}
	monitor.Subscribe(func(st health.Status) { s.agg.FromHealth(st) })
	monitor.Start(s.cfg.Health.Interval)

	s.mu.Lock()
	s.monitor = monitor
	s.mu.Unlock()

	chatClient, err := chat.NewClient(path, s.client, s.cfg.Chat)
	if err == nil {
		err = chatClient.Verify(ctx)
	}
	if err != nil {
		slog.Warn("system: chat unavailable — continuing degraded", "err", err)
		s.setState(StateDegraded)
		return nil
	}

	s.mu.Lock()
	s.chat = chatClient
	s.mu.Unlock()

	s.setState(StateOperational)
	slog.Info("system: operational")
	return nil
}

// SendChat delegates to the chat client and feeds the exchange to the
// aggregator. When chat is unavailable it synthesizes an immediate failed
// exchange so the caller still gets a renderable result.
func (s *System) SendChat(ctx context.Context, message string, opts chat.Options) chat.Exchange {
	s.mu.Lock()
	c := s.chat
	s.mu.Unlock()

	if c == nil {
		ex := chat.Exchange{
			RequestID: uuid.NewString(),
			Timestamp: time.Now().UTC(),
			Result: chat.Result{
				Kind: fault.KindNotInitialized,
				Err:  "chat not available — no verified chat endpoint",
			},
		}
		s.agg.FromChat(ex)
		return ex
	}

	ex := c.Send(ctx, message, opts)
	s.agg.FromChat(ex)
	return ex
}

// Restart tears down the monitor, discards all module instances, and
// re-runs Initialize from scratch. The aggregator (and its subscribers)
// survive so the UI keeps its event stream across restarts.
func (s *System) Restart(ctx context.Context) error {
	slog.Info("system: restarting")
	s.Stop()

	s.mu.Lock()
	s.monitor = nil
	s.chat = nil
	s.battery = probe.Battery{}
	s.path = probe.SelectedPath{}
	s.state = StateUninitialized
	s.mu.Unlock()

	return s.Initialize(ctx)
}

// Reload swaps in a new configuration and restarts. Used by the dashboard
// when the config file changes on disk.
func (s *System) Reload(ctx context.Context, cfg *config.Config) error {
	s.mu.Lock()
	s.cfg = cfg
	s.client = backend.NewClient(cfg.Backend)
	s.mu.Unlock()
	return s.Restart(ctx)
}

// Stop halts the health monitor's periodic loop. Idempotent.
func (s *System) Stop() {
	s.mu.Lock()
	monitor := s.monitor
	s.mu.Unlock()
	if monitor != nil {
		monitor.Stop()
	}
}

// Diagnostics returns up to limit recent status reports, newest first.
func (s *System) Diagnostics(limit int) []status.Report {
	return s.agg.History(limit)
}

// State returns the current lifecycle state.
func (s *System) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Path returns the selected path (zero value before initialization).
func (s *System) Path() probe.SelectedPath {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Battery returns the probe results from the last initialization.
func (s *System) Battery() probe.Battery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.battery
}

// Aggregator exposes the status stream for UI sinks.
func (s *System) Aggregator() *status.Aggregator { return s.agg }

// Monitor returns the health monitor, or nil before initialization.
func (s *System) Monitor() *health.Monitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitor
}

// ChatStats returns aggregate chat statistics (zero before any send or
// when chat is unavailable).
func (s *System) ChatStats() chat.Stats {
	s.mu.Lock()
	c := s.chat
	s.mu.Unlock()
	if c == nil {
		return chat.Stats{}
	}
	return c.Stats()
}

// ChatHistory returns the recorded chat exchanges, newest first.
func (s *System) ChatHistory() []chat.Exchange {
	s.mu.Lock()
	c := s.chat
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.History()
}

func (s *System) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
