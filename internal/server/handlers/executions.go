package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"finsweep/internal/engine"
	"finsweep/pkg/api"
)

// GetStatus handles GET /status.
// Returns currently running sweeps, aggregate stats, and the due backlog.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	backlog, err := h.store.CountDueRules(ctx, time.Now())
	if err != nil {
		h.httpError(w, "Failed to count due rules", http.StatusInternalServerError)
		return
	}

	running := h.tracker.Running()
	resp := api.StatusResponse{
		Running:    make([]api.ExecutionResponse, 0, len(running)),
		Stats:      statsResponse(engine.JobName, h.tracker.Stats(engine.JobName)),
		DueBacklog: backlog,
	}
	for _, e := range running {
		resp.Running = append(resp.Running, executionResponse(e))
	}

	h.respondJson(w, http.StatusOK, resp)
}

// GetExecution handles GET /executions/{id}.
// Returns one tracked sweep execution.
func (h *Handlers) GetExecution(w http.ResponseWriter, r *http.Request) {
	executionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid execution id", http.StatusBadRequest)
		return
	}

	execution, ok := h.tracker.Get(executionID)
	if !ok {
		h.httpError(w, "Execution not found", http.StatusNotFound)
		return
	}

	h.respondJson(w, http.StatusOK, executionResponse(execution))
}

// GetHistory handles GET /history.
// Returns finalized sweep executions, most recent first. An optional limit
// query parameter bounds the result.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			h.httpError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	history := h.tracker.History(engine.JobName, limit)
	resp := api.HistoryResponse{
		Executions: make([]api.ExecutionResponse, 0, len(history)),
	}
	for _, e := range history {
		resp.Executions = append(resp.Executions, executionResponse(e))
	}

	h.respondJson(w, http.StatusOK, resp)
}
