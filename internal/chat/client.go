package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agentlink/agentlink/internal/config"
	"github.com/agentlink/agentlink/internal/fault"
	"github.com/agentlink/agentlink/internal/probe"
)

// ErrNoPath is returned by NewClient when no usable path was selected.
var ErrNoPath = errors.New("chat: no usable backend path")

// historyCap bounds the request history. Oldest exchanges are evicted
// once the cap is exceeded.
const historyCap = 50

// Request is the JSON payload sent to the backend's chat endpoint.
type Request struct {
	Message        string  `json:"message"`
	ConversationID string  `json:"conversation_id"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	Stream         bool    `json:"stream"`
}

// Response is the backend's chat reply.
type Response struct {
	Response         string  `json:"response"`
	ConversationID   string  `json:"conversation_id"`
	Timestamp        string  `json:"timestamp"`
	ModelUsed        string  `json:"model_used,omitempty"`
	TokensUsed       int     `json:"tokens_used,omitempty"`
	ProcessingTimeMs float64 `json:"processing_time_ms,omitempty"`
}

// Result is the tagged outcome of one send. Send never returns a Go error;
// callers branch on Success and Kind instead of handling exceptions.
type Result struct {
	Success bool
	Data    *Response
	Kind    fault.Kind
	Err     string
}

// Exchange records one chat send, success or failure, with timing.
type Exchange struct {
	RequestID string
	Request   Request
	Result    Result
	Duration  time.Duration
	Timestamp time.Time
}

// Options override the configured defaults for a single send. Nil fields
// fall back to the configured defaults; a set pointer is sent as-is, so an
// explicit temperature of 0 is expressible.
type Options struct {
	ConversationID string
	Temperature    *float64
	MaxTokens      *int
	Stream         bool
}

// Client sends chat requests to the backend over a selected path and keeps
// a bounded, newest-first history of every exchange.
//
// Client is safe for concurrent use.
type Client struct {
	path     probe.SelectedPath
	client   *http.Client
	defaults config.ChatConfig
	now      func() time.Time
	history  *ring
}

// NewClient creates a Client bound to the given path. Fails with ErrNoPath
// when the path is unusable. Call Verify before relying on the client.
func NewClient(path probe.SelectedPath, httpClient *http.Client, defaults config.ChatConfig) (*Client, error) {
	if !path.Usable() {
		return nil, ErrNoPath
	}
	return &Client{
		path:     path,
		client:   httpClient,
		defaults: defaults,
		now:      time.Now,
		history:  newRing(historyCap),
	}, nil
}

// Verify sends a minimal probe payload to the chat endpoint to confirm it
// is reachable and speaks JSON. Unlike Send, a failure here is returned as
// an error and the exchange is not recorded.
func (c *Client) Verify(ctx context.Context) error {
	req := Request{
		Message:        "ping",
		ConversationID: "connectivity-check",
		Temperature:    0.0,
		MaxTokens:      1,
	}
	result, _ := c.post(ctx, req)
	if !result.Success {
		return fmt.Errorf("chat: connectivity probe failed (%s): %s", result.Kind, result.Err)
	}
	return nil
}

// Send posts message to the chat endpoint, applying configured defaults
// for unset options. The returned Exchange carries a tagged Result — Send
// never raises an error — and is always appended to the history.
func (c *Client) Send(ctx context.Context, message string, opts Options) Exchange {
	req := c.buildRequest(message, opts)

	start := c.now()
	result, _ := c.post(ctx, req)
	ex := Exchange{
		RequestID: uuid.NewString(),
		Request:   req,
		Result:    result,
		Duration:  c.now().Sub(start),
		Timestamp: start.UTC(),
	}

	c.history.add(ex)

	if result.Success {
		slog.Debug("chat: send ok",
			"request_id", ex.RequestID,
			"duration_ms", ex.Duration.Milliseconds())
	} else {
		slog.Warn("chat: send failed",
			"request_id", ex.RequestID,
			"kind", result.Kind,
			"err", result.Err)
	}
	return ex
}

// buildRequest applies configured defaults to unset options.
func (c *Client) buildRequest(message string, opts Options) Request {
	req := Request{
		Message:        message,
		ConversationID: opts.ConversationID,
		Temperature:    c.defaults.Temperature,
		MaxTokens:      c.defaults.MaxTokens,
		Stream:         opts.Stream,
	}
	if req.ConversationID == "" {
		req.ConversationID = c.defaults.ConversationID
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.MaxTokens != nil {
		req.MaxTokens = *opts.MaxTokens
	}
	return req
}

// post performs the HTTP round trip and folds every failure mode into a
// tagged Result. The int return is the HTTP status for logging.
func (c *Client) post(ctx context.Context, payload Request) (Result, int) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Kind: fault.KindNetwork, Err: err.Error()}, 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.path.Endpoint("/chat"), bytes.NewReader(body))
	if err != nil {
		return Result{Kind: fault.KindNetwork, Err: err.Error()}, 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		kind, detail := fault.Classify(err)
		return Result{Kind: kind, Err: detail}, 0
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !fault.IsJSON(contentType) {
		// HTML here means the request was routed to a static page, not the
		// backend — a deployment problem, not a chat failure.
		return Result{
			Kind: fault.KindRoute,
			Err:  fmt.Sprintf("backend returned HTML instead of JSON (content-type %s)", contentType),
		}, resp.StatusCode
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{
			Kind: fault.KindHTTP,
			Err:  fmt.Sprintf("chat endpoint returned status %d", resp.StatusCode),
		}, resp.StatusCode
	}

	var data Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&data); err != nil {
		return Result{Kind: fault.KindRoute, Err: fmt.Sprintf("malformed chat JSON: %v", err)}, resp.StatusCode
	}
	return Result{Success: true, Data: &data}, resp.StatusCode
}

// History returns a copy of the recorded exchanges, newest first.
func (c *Client) History() []Exchange {
	return c.history.list()
}
