package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/lunbi/lunbi/internal/assistant"
	"github.com/lunbi/lunbi/internal/log"
	"github.com/lunbi/lunbi/internal/prompt"
)

// PromptService is the orchestration capability the handler needs.
type PromptService interface {
	Process(ctx context.Context, query, language string) (prompt.Response, error)
	ProcessStream(ctx context.Context, query, language string, onDelta assistant.StreamCallback) (prompt.Response, error)
	SamplePrompts() []string
	ListLatest(ctx context.Context, limit int) ([]prompt.Record, error)
}

// PromptHandler handles prompt endpoints.
type PromptHandler struct {
	service PromptService
	logger  log.Logger
}

// NewPromptHandler creates a prompt handler.
func NewPromptHandler(service PromptService, logger log.Logger) *PromptHandler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &PromptHandler{service: service, logger: logger}
}

// RegisterRoutes registers prompt routes on the given mux.
func (h *PromptHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/prompts", h.handleCreate)
	mux.HandleFunc("POST /api/prompts/stream", h.handleStream)
	mux.HandleFunc("GET /api/prompts", h.handleList)
	mux.HandleFunc("GET /api/prompts/samples", h.handleSamples)
}

// PromptRequest is the request body for prompt endpoints.
type PromptRequest struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
}

// SamplePromptsResponse is the response body for the samples endpoint.
type SamplePromptsResponse struct {
	Prompts []string `json:"prompts"`
}

// ListPromptsResponse is the response body for the listing endpoint.
type ListPromptsResponse struct {
	Prompts []prompt.Record `json:"prompts"`
}

func decodePromptRequest(r *http.Request) (PromptRequest, error) {
	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if req.Query == "" {
		return req, fmt.Errorf("query is required")
	}
	return req, nil
}

// handleCreate answers a query and returns the combined payload including
// the persisted record id.
func (h *PromptHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodePromptRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	resp, err := h.service.Process(r.Context(), req.Query, req.Language)
	if err != nil {
		h.logger.Error("prompt processing failed", "error", err,
			"request_id", RequestID(r.Context()))
		writeError(w, http.StatusBadGateway, "RETRIEVAL_ERROR",
			"the knowledge index is unavailable, please try again later")
		return
	}

	h.logger.Info("processed prompt", "prompt_id", resp.PromptID, "status", resp.Status)
	writeJSON(w, http.StatusOK, resp)
}

// handleStream answers a query over Server-Sent Events: one "chunk" event
// per content delta, then a "done" sentinel. No structured final payload is
// emitted over the stream; clients consume deltas and the sentinel only.
func (h *PromptHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	req, err := decodePromptRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	ctx := r.Context()
	h.logger.Info("SSE stream started", "request_id", RequestID(ctx))

	onDelta := func(ctx context.Context, chunk string) error {
		// Stop forwarding when the client is gone; persistence still runs.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		h.writeSSEChunk(w, flusher, chunk)
		return nil
	}

	resp, err := h.service.ProcessStream(ctx, req.Query, req.Language, onDelta)
	if err != nil {
		h.logger.Error("stream failed", "error", err, "request_id", RequestID(ctx))
		h.writeSSEError(w, flusher, "RETRIEVAL_ERROR",
			"the knowledge index is unavailable, please try again later")
		return
	}

	h.writeSSEDone(w, flusher)
	h.logger.Info("SSE stream completed",
		"prompt_id", resp.PromptID, "status", resp.Status,
		"request_id", RequestID(ctx))
}

// handleSamples serves the curated sample questions.
func (h *PromptHandler) handleSamples(w http.ResponseWriter, r *http.Request) {
	prompts := h.service.SamplePrompts()
	h.logger.Info("serving sample prompts", "count", len(prompts))
	writeJSON(w, http.StatusOK, SamplePromptsResponse{Prompts: prompts})
}

// handleList serves the latest prompt records.
func (h *PromptHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.service.ListLatest(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing prompts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "LIST_ERROR", "could not list prompts")
		return
	}
	writeJSON(w, http.StatusOK, ListPromptsResponse{Prompts: records})
}

// SSEChunkData is the data for "chunk" events.
type SSEChunkData struct {
	Content string `json:"content"`
}

// SSEErrorData is the data for "error" events.
type SSEErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeSSEChunk writes a chunk event to the SSE stream.
func (h *PromptHandler) writeSSEChunk(w http.ResponseWriter, flusher http.Flusher, content string) {
	data, _ := json.Marshal(SSEChunkData{Content: content})
	fmt.Fprintf(w, "event: chunk\ndata: %s\n\n", data)
	flusher.Flush()
}

// writeSSEDone writes the terminator sentinel. It carries no structured
// payload; clients treat it purely as end-of-stream.
func (h *PromptHandler) writeSSEDone(w http.ResponseWriter, flusher http.Flusher) {
	fmt.Fprint(w, "event: done\ndata: [DONE]\n\n")
	flusher.Flush()
}

// writeSSEError writes an error event to the SSE stream.
func (h *PromptHandler) writeSSEError(w http.ResponseWriter, flusher http.Flusher, code, message string) {
	data, _ := json.Marshal(SSEErrorData{Code: code, Message: message})
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
	flusher.Flush()
}
