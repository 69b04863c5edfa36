package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agentlink/agentlink/internal/config"
	"github.com/agentlink/agentlink/internal/fault"
	"github.com/agentlink/agentlink/internal/probe"
)

var testDefaults = config.ChatConfig{
	ConversationID: "default",
	Temperature:    0.7,
	MaxTokens:      1000,
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(
		probe.SelectedPath{Method: probe.MethodDirect, BaseURL: url},
		&http.Client{Timeout: 2 * time.Second},
		testDefaults,
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

// echoBackend replies with a fixed response and captures the last request.
func echoBackend(t *testing.T, lastReq *Request) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q, want /chat", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("request content-type = %q", ct)
		}
		if lastReq != nil {
			if err := json.NewDecoder(r.Body).Decode(lastReq); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"hi","conversation_id":"c1","timestamp":"2026-01-01T00:00:00Z","model_used":"gpt-4","tokens_used":12}`))
	}
}

func TestNewClient_NonePathFails(t *testing.T) {
	_, err := NewClient(probe.SelectedPath{Method: probe.MethodNone}, http.DefaultClient, testDefaults)
	if err != ErrNoPath {
		t.Fatalf("err = %v, want ErrNoPath", err)
	}
}

func TestSend_Success(t *testing.T) {
	var got Request
	srv := httptest.NewServer(echoBackend(t, &got))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ex := c.Send(context.Background(), "hello", Options{ConversationID: "c1"})

	if !ex.Result.Success {
		t.Fatalf("send failed: %s", ex.Result.Err)
	}
	if ex.Result.Data.Response != "hi" {
		t.Errorf("response = %q", ex.Result.Data.Response)
	}
	if ex.Result.Data.ModelUsed != "gpt-4" {
		t.Errorf("model_used = %q", ex.Result.Data.ModelUsed)
	}
	if ex.RequestID == "" {
		t.Error("RequestID must be set")
	}
	if ex.Duration <= 0 || ex.Duration > time.Second {
		t.Errorf("Duration = %v, want positive and well under 1s", ex.Duration)
	}

	// Caller option kept, defaults filled in for the rest.
	if got.ConversationID != "c1" {
		t.Errorf("conversation_id = %q, want c1", got.ConversationID)
	}
	if got.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", got.Temperature)
	}
	if got.MaxTokens != 1000 {
		t.Errorf("max_tokens = %d, want 1000", got.MaxTokens)
	}
	if got.Stream {
		t.Error("stream should default to false")
	}

	// The exchange is the newest history entry.
	h := c.History()
	if len(h) != 1 {
		t.Fatalf("history len = %d, want 1", len(h))
	}
	if h[0].Request.ConversationID != "c1" {
		t.Errorf("history[0].Request.ConversationID = %q", h[0].Request.ConversationID)
	}
}

func TestSend_ExplicitZeroTemperature(t *testing.T) {
	var got Request
	srv := httptest.NewServer(echoBackend(t, &got))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	temp := 0.0
	tokens := 50
	ex := c.Send(context.Background(), "hello", Options{Temperature: &temp, MaxTokens: &tokens})

	if !ex.Result.Success {
		t.Fatalf("send failed: %s", ex.Result.Err)
	}
	// A set pointer is sent as-is; zero must not collapse to the default.
	if got.Temperature != 0 {
		t.Errorf("temperature = %v, want explicit 0", got.Temperature)
	}
	if got.MaxTokens != 50 {
		t.Errorf("max_tokens = %d, want 50", got.MaxTokens)
	}
}

func TestSend_HTMLBodyIsRouteFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Welcome to Azure Static Web Apps</body></html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ex := c.Send(context.Background(), "hello", Options{})

	if ex.Result.Success {
		t.Fatal("send should fail on HTML body")
	}
	if ex.Result.Kind != fault.KindRoute {
		t.Errorf("Kind = %q, want %q", ex.Result.Kind, fault.KindRoute)
	}
	if !strings.Contains(ex.Result.Err, "HTML") {
		t.Errorf("Err = %q, want mention of HTML", ex.Result.Err)
	}
}

func TestSend_ServerDownIsNetworkFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(t, srv.URL)
	ex := c.Send(context.Background(), "hello", Options{})

	if ex.Result.Success {
		t.Fatal("send should fail against a closed server")
	}
	if ex.Result.Kind != fault.KindNetwork {
		t.Errorf("Kind = %q, want %q", ex.Result.Kind, fault.KindNetwork)
	}
	// Failures are recorded too.
	if len(c.History()) != 1 {
		t.Errorf("history len = %d, want 1", len(c.History()))
	}
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := NewClient(
		probe.SelectedPath{Method: probe.MethodDirect, BaseURL: srv.URL},
		&http.Client{Timeout: 20 * time.Millisecond},
		testDefaults,
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ex := c.Send(context.Background(), "hello", Options{})
	if ex.Result.Success {
		t.Fatal("send should time out")
	}
	if ex.Result.Kind != fault.KindNetwork {
		t.Errorf("Kind = %q, want %q", ex.Result.Kind, fault.KindNetwork)
	}
	if !strings.Contains(ex.Result.Err, "timed out") {
		t.Errorf("Err = %q, want timeout detail", ex.Result.Err)
	}
}

func TestSend_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"model unavailable"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ex := c.Send(context.Background(), "hello", Options{})

	if ex.Result.Success {
		t.Fatal("send should fail on 500")
	}
	if ex.Result.Kind != fault.KindHTTP {
		t.Errorf("Kind = %q, want %q", ex.Result.Kind, fault.KindHTTP)
	}
}

func TestSend_UniqueRequestIDs(t *testing.T) {
	srv := httptest.NewServer(echoBackend(t, nil))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		ex := c.Send(context.Background(), "hello", Options{})
		if seen[ex.RequestID] {
			t.Fatalf("duplicate request ID %q", ex.RequestID)
		}
		seen[ex.RequestID] = true
	}
}

func TestHistory_BoundedNewestFirst(t *testing.T) {
	var n int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"response":"reply-%d"}`, n)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	for i := 0; i < historyCap+10; i++ {
		c.Send(context.Background(), fmt.Sprintf("msg-%d", i), Options{})
	}

	h := c.History()
	if len(h) != historyCap {
		t.Fatalf("history len = %d, want %d", len(h), historyCap)
	}
	// Newest first: the last message sent is at index 0.
	if h[0].Request.Message != fmt.Sprintf("msg-%d", historyCap+9) {
		t.Errorf("history[0] message = %q", h[0].Request.Message)
	}
	// Oldest retained entry is the 50th most recent.
	if h[len(h)-1].Request.Message != "msg-10" {
		t.Errorf("oldest retained message = %q, want msg-10", h[len(h)-1].Request.Message)
	}
}

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(echoBackend(t, nil))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if err := c.Verify(context.Background()); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	// Verify is not a send — nothing recorded.
	if len(c.History()) != 0 {
		t.Errorf("history len after Verify = %d, want 0", len(c.History()))
	}
}

func TestVerify_FailsOnHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if err := c.Verify(context.Background()); err == nil {
		t.Fatal("Verify should fail against an HTML endpoint")
	}
}
