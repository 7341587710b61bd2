// Package handlers contains HTTP handlers for the scheduler API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"finsweep/internal/engine"
	"finsweep/internal/store"
	"finsweep/internal/tracker"
	"finsweep/pkg/api"
)

// Store combines the interfaces needed for the scheduler API to function.
type Store interface {
	Ping(ctx context.Context) error
	store.RuleStore
	store.TransactionStore
}

// SweepRunner runs one sweep pass. Satisfied by engine.Sweeper.
type SweepRunner interface {
	RunSweep(ctx context.Context, now time.Time) (engine.SweepResult, error)
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store   Store
	sweeper SweepRunner
	tracker *tracker.Tracker
}

// New creates a new Handlers instance with the given dependencies.
func New(s Store, sw SweepRunner, tr *tracker.Tracker) *Handlers {
	return &Handlers{store: s, sweeper: sw, tracker: tr}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

func executionResponse(e tracker.Execution) api.ExecutionResponse {
	resp := api.ExecutionResponse{
		ID:          e.ID.String(),
		JobName:     e.JobName,
		Status:      string(e.Status),
		StartedAt:   e.StartedAt,
		CompletedAt: e.CompletedAt,
		Result:      e.Result,
		Error:       e.Error,
	}
	if e.CompletedAt != nil {
		ms := e.DurationMS
		resp.DurationMS = &ms
	}
	return resp
}

func statsResponse(jobName string, s tracker.Stats) api.StatsResponse {
	resp := api.StatsResponse{
		JobName:       jobName,
		Total:         s.Total,
		Succeeded:     s.Succeeded,
		Failed:        s.Failed,
		AvgDurationMS: s.AvgDurationMS,
	}
	if s.LastExecution != nil {
		last := executionResponse(*s.LastExecution)
		resp.LastExecution = &last
	}
	return resp
}
