package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agentlink/agentlink/internal/fault"
	"github.com/agentlink/agentlink/internal/probe"
)

func directPath(url string) probe.SelectedPath {
	return probe.SelectedPath{Method: probe.MethodDirect, BaseURL: url}
}

func newTestMonitor(t *testing.T, srv *httptest.Server) *Monitor {
	t.Helper()
	m, err := NewMonitor(directPath(srv.URL), &http.Client{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewMonitor: %v", err)
	}
	return m
}

func TestNewMonitor_NonePathFails(t *testing.T) {
	_, err := NewMonitor(probe.SelectedPath{Method: probe.MethodNone}, http.DefaultClient)
	if err != ErrNoPath {
		t.Fatalf("NewMonitor with none path: err = %v, want ErrNoPath", err)
	}
}

func TestCheckOnce_HealthyBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"advanced-ai-agent","version":"1.2.0","uptime_seconds":3600}`))
	}))
	defer srv.Close()

	m := newTestMonitor(t, srv)
	st := m.CheckOnce(context.Background())

	if !st.Success {
		t.Fatalf("check failed: %s", st.Message)
	}
	if st.Service != "advanced-ai-agent" {
		t.Errorf("Service = %q", st.Service)
	}
	if st.Version != "1.2.0" {
		t.Errorf("Version = %q", st.Version)
	}
	if st.UptimeSeconds != 3600 {
		t.Errorf("UptimeSeconds = %v", st.UptimeSeconds)
	}
	if st.Path != probe.MethodDirect {
		t.Errorf("Path = %q", st.Path)
	}
}

func TestCheckOnce_HTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>service placeholder page</html>"))
	}))
	defer srv.Close()

	m := newTestMonitor(t, srv)
	st := m.CheckOnce(context.Background())

	if st.Success {
		t.Fatal("check should fail on HTML body")
	}
	if st.Kind != fault.KindRoute {
		t.Errorf("Kind = %q, want %q", st.Kind, fault.KindRoute)
	}
	if !strings.Contains(st.Message, "non-JSON") {
		t.Errorf("Message = %q, want mention of non-JSON", st.Message)
	}
}

func TestCheckOnce_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	m := newTestMonitor(t, srv)
	st := m.CheckOnce(context.Background())

	if st.Success {
		t.Fatal("check should fail against a closed server")
	}
	if st.Kind != fault.KindNetwork {
		t.Errorf("Kind = %q, want %q", st.Kind, fault.KindNetwork)
	}
	if st.Message == "" {
		t.Error("expected an error message")
	}
}

func TestCheckOnce_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	m := newTestMonitor(t, srv)
	st := m.CheckOnce(context.Background())

	if st.Success {
		t.Fatal("check should fail on 502")
	}
	if st.Kind != fault.KindHTTP {
		t.Errorf("Kind = %q, want %q", st.Kind, fault.KindHTTP)
	}
}

func TestMonitor_LastStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"x","version":"1.0"}`))
	}))
	defer srv.Close()

	m := newTestMonitor(t, srv)
	if m.Last() != nil {
		t.Fatal("Last before first check should be nil")
	}
	m.CheckOnce(context.Background())
	last := m.Last()
	if last == nil || !last.Success {
		t.Fatal("Last after a successful check should be a success status")
	}
}

func TestMonitor_SubscribersAllNotified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"x","version":"1.0"}`))
	}))
	defer srv.Close()

	m := newTestMonitor(t, srv)

	var first, second atomic.Int32
	m.Subscribe(func(Status) {
		first.Add(1)
		panic("subscriber bug")
	})
	m.Subscribe(func(Status) { second.Add(1) })

	m.CheckOnce(context.Background())

	if first.Load() != 1 {
		t.Errorf("first subscriber calls = %d, want 1", first.Load())
	}
	if second.Load() != 1 {
		t.Errorf("second subscriber notified despite first panicking: calls = %d, want 1", second.Load())
	}
}

func TestMonitor_Unsubscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	m := newTestMonitor(t, srv)

	var calls atomic.Int32
	unsub := m.Subscribe(func(Status) { calls.Add(1) })
	m.CheckOnce(context.Background())
	unsub()
	unsub() // second call must be harmless
	m.CheckOnce(context.Background())

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no notification after unsubscribe)", calls.Load())
	}
}

func TestMonitor_StopDoesNotAbortInFlightCheck(t *testing.T) {
	// The backend responds slowly so Stop lands while the immediate check
	// is still on the wire. That check must complete and record success,
	// not a spurious cancellation failure.
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"advanced-ai-agent","version":"1.0.0","uptime_seconds":5}`))
	}))
	defer srv.Close()

	m := newTestMonitor(t, srv)
	done := make(chan Status, 1)
	m.Subscribe(func(st Status) { done <- st })

	m.Start(time.Hour)
	<-started
	m.Stop()

	select {
	case st := <-done:
		if !st.Success {
			t.Fatalf("in-flight check aborted by Stop: kind=%s msg=%q", st.Kind, st.Message)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight check never completed")
	}

	last := m.Last()
	if last == nil || !last.Success {
		t.Errorf("Last() = %+v, want recorded success", last)
	}
}

func TestMonitor_StartStopIdempotent(t *testing.T) {
	var checks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	m := newTestMonitor(t, srv)

	m.Start(time.Hour) // immediate check only; ticker won't fire in this test
	m.Start(time.Hour) // re-entrant start is a no-op

	// Wait for the immediate check to land.
	deadline := time.After(2 * time.Second)
	for checks.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("immediate check never happened")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if !m.Running() {
		t.Error("monitor should be running after Start")
	}

	m.Stop()
	m.Stop() // idempotent
	if m.Running() {
		t.Error("monitor should be stopped after Stop")
	}
	if got := checks.Load(); got != 1 {
		t.Errorf("checks = %d, want 1 (double start must not double-poll)", got)
	}
}
