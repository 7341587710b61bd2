package handlers

import (
	"net/http"
	"time"

	"finsweep/pkg/api"
)

// TriggerSweep handles POST /internal/sweep.
// Runs one sweep pass synchronously and returns its result. Overlap with a
// scheduled sweep is safe: rule claims keep each occurrence exactly-once.
func (h *Handlers) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.RunSweep(r.Context(), time.Now())
	if err != nil {
		h.httpError(w, "Sweep failed", http.StatusInternalServerError)
		return
	}

	resp := api.SweepResponse{
		ExecutionID: result.ExecutionID.String(),
		Processed:   result.Processed,
		Skipped:     result.Skipped,
		Failed:      result.Failed,
		Generated:   result.Generated,
	}
	for _, re := range result.Errors {
		resp.Errors = append(resp.Errors, api.RuleErrorResponse{
			RuleID:  re.RuleID.String(),
			Message: re.Message,
		})
	}

	h.respondJson(w, http.StatusOK, resp)
}
