package api

import "github.com/agentlink/agentlink/internal/status"

// StatusResponse is the payload for GET /api/v1/status.
type StatusResponse struct {
	State    string         `json:"state"`
	Path     string         `json:"path"`
	BaseURL  string         `json:"base_url,omitempty"`
	Current  *status.Report `json:"current,omitempty"`
	Backend  BackendHealth  `json:"backend"`
	Clients  int            `json:"ws_clients"`
}

// BackendHealth is the last known health observation.
type BackendHealth struct {
	Known         bool    `json:"known"`
	Healthy       bool    `json:"healthy"`
	Service       string  `json:"service,omitempty"`
	Version       string  `json:"version,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds,omitempty"`
	Message       string  `json:"message,omitempty"`
	CheckedAt     string  `json:"checked_at,omitempty"` // RFC3339
}

// StatsResponse is the payload for GET /api/v1/stats.
type StatsResponse struct {
	TotalRequests         int     `json:"total_requests"`
	SuccessRate           float64 `json:"success_rate"`
	AverageResponseTimeMs int64   `json:"average_response_time_ms"`
	LastRequest           string  `json:"last_request,omitempty"` // RFC3339
}

// ChatRequest is the body of POST /api/v1/chat. Temperature and MaxTokens
// are pointers so an absent field and an explicit zero are distinguishable.
type ChatRequest struct {
	Message        string   `json:"message"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	MaxTokens      *int     `json:"max_tokens,omitempty"`
}

// ChatResponse is the success body of POST /api/v1/chat.
type ChatResponse struct {
	RequestID  string  `json:"request_id"`
	Response   string  `json:"response"`
	ModelUsed  string  `json:"model_used,omitempty"`
	TokensUsed int     `json:"tokens_used,omitempty"`
	DurationMs int64   `json:"duration_ms"`
}

// ChatError is the failure body of POST /api/v1/chat.
type ChatError struct {
	RequestID  string `json:"request_id,omitempty"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
