package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentlink/agentlink/internal/chat"
	"github.com/agentlink/agentlink/internal/fault"
	"github.com/agentlink/agentlink/internal/system"
	"github.com/agentlink/agentlink/internal/ws"
)

// Handler is the HTTP handler for the local status dashboard. It reads
// live state from the orchestrator and returns JSON responses; the chat
// endpoint relays sends through the connectivity core.
type Handler struct {
	sys     *system.System
	hub     *ws.Hub
	metrics *Metrics
	mux     *http.ServeMux
}

// New creates a Handler wired to the orchestrator and registers all routes.
func New(sys *system.System, hub *ws.Hub, metrics *Metrics) http.Handler {
	h := &Handler{sys: sys, hub: hub, metrics: metrics, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/status", h.status)
	h.mux.HandleFunc("/api/v1/diagnostics", h.diagnostics)
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/stats", h.stats)
	h.mux.HandleFunc("/api/v1/history", h.history)
	h.mux.HandleFunc("/api/v1/chat", h.chat)
	h.mux.HandleFunc("/api/v1/restart", h.restart)
	h.mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	h.mux.Handle("/ws", hub.Handler(sys.Aggregator().Current))

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// status returns GET /api/v1/status — orchestrator state, selected path,
// current aggregated report, and last known backend health.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := h.sys.Path()
	resp := StatusResponse{
		State:   string(h.sys.State()),
		Path:    string(path.Method),
		BaseURL: path.BaseURL,
		Current: h.sys.Aggregator().Current(),
		Clients: h.hub.Count(),
	}

	if m := h.sys.Monitor(); m != nil {
		if last := m.Last(); last != nil {
			resp.Backend = BackendHealth{
				Known:         true,
				Healthy:       last.Success,
				Service:       last.Service,
				Version:       last.Version,
				UptimeSeconds: last.UptimeSeconds,
				Message:       last.Message,
				CheckedAt:     last.Timestamp.Format(time.RFC3339),
			}
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// diagnostics returns GET /api/v1/diagnostics?limit=N — recent status
// reports, newest first.
func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			jsonErr(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	jsonResp(w, http.StatusOK, h.sys.Diagnostics(limit))
}

// health returns GET /api/v1/health — a fresh on-demand check of the
// backend's health endpoint, not the cached last observation.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	m := h.sys.Monitor()
	if m == nil {
		jsonErr(w, http.StatusServiceUnavailable, "no verified backend path")
		return
	}

	st := m.CheckOnce(r.Context())
	jsonResp(w, http.StatusOK, BackendHealth{
		Known:         true,
		Healthy:       st.Success,
		Service:       st.Service,
		Version:       st.Version,
		UptimeSeconds: st.UptimeSeconds,
		Message:       st.Message,
		CheckedAt:     st.Timestamp.Format(time.RFC3339),
	})
}

// stats returns GET /api/v1/stats — aggregate chat statistics.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s := h.sys.ChatStats()
	resp := StatsResponse{
		TotalRequests:         s.TotalRequests,
		SuccessRate:           s.SuccessRate,
		AverageResponseTimeMs: s.AverageResponseTimeMs,
	}
	if !s.LastRequest.IsZero() {
		resp.LastRequest = s.LastRequest.Format(time.RFC3339)
	}
	jsonResp(w, http.StatusOK, resp)
}

// history returns GET /api/v1/history — recorded chat exchanges, trimmed
// to request/result metadata (response bodies are not replayed).
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type entry struct {
		RequestID      string `json:"request_id"`
		ConversationID string `json:"conversation_id"`
		Success        bool   `json:"success"`
		Kind           string `json:"kind,omitempty"`
		Error          string `json:"error,omitempty"`
		DurationMs     int64  `json:"duration_ms"`
		Timestamp      string `json:"timestamp"`
	}
	exchanges := h.sys.ChatHistory()
	out := make([]entry, 0, len(exchanges))
	for _, ex := range exchanges {
		out = append(out, entry{
			RequestID:      ex.RequestID,
			ConversationID: ex.Request.ConversationID,
			Success:        ex.Result.Success,
			Kind:           string(ex.Result.Kind),
			Error:          ex.Result.Err,
			DurationMs:     ex.Duration.Milliseconds(),
			Timestamp:      ex.Timestamp.Format(time.RFC3339),
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// chat relays POST /api/v1/chat through the connectivity core. Failures
// come back as structured JSON, never as opaque 500s — the dashboard UI
// renders them directly.
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Message == "" {
		jsonErr(w, http.StatusBadRequest, "message is required")
		return
	}

	ex := h.sys.SendChat(r.Context(), req.Message, chat.Options{
		ConversationID: req.ConversationID,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
	})
	h.metrics.ObserveExchange(ex)

	if !ex.Result.Success {
		code := http.StatusBadGateway
		if ex.Result.Kind == fault.KindNotInitialized {
			code = http.StatusServiceUnavailable
		}
		var suggestion string
		if cur := h.sys.Aggregator().Current(); cur != nil {
			suggestion = cur.Suggestion
		}
		jsonResp(w, code, ChatError{
			RequestID:  ex.RequestID,
			Kind:       string(ex.Result.Kind),
			Error:      ex.Result.Err,
			Suggestion: suggestion,
		})
		return
	}

	jsonResp(w, http.StatusOK, ChatResponse{
		RequestID:  ex.RequestID,
		Response:   ex.Result.Data.Response,
		ModelUsed:  ex.Result.Data.ModelUsed,
		TokensUsed: ex.Result.Data.TokensUsed,
		DurationMs: ex.Duration.Milliseconds(),
	})
}

// restart triggers POST /api/v1/restart — full re-probe and re-selection.
func (h *Handler) restart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	err := h.sys.Restart(r.Context())
	resp := map[string]string{"state": string(h.sys.State())}
	if err != nil {
		resp["error"] = err.Error()
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
