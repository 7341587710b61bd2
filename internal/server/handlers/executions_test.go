package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"finsweep/internal/engine"
	"finsweep/pkg/api"
)

func TestGetStatus(t *testing.T) {
	st := &mockStore{countDueResp: 3}
	h, tr := newTestHandlers(st, &mockSweeper{})

	// One finalized and one running execution
	doneID := tr.Start(engine.JobName)
	tr.Complete(doneID, "processed=2 skipped=0 failed=0 generated=2")
	tr.Start(engine.JobName)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	h.GetStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	var resp api.StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.DueBacklog != 3 {
		t.Errorf("got backlog %d, want 3", resp.DueBacklog)
	}
	if len(resp.Running) != 1 {
		t.Errorf("got %d running executions, want 1", len(resp.Running))
	}
	if resp.Stats.Total != 1 || resp.Stats.Succeeded != 1 {
		t.Errorf("unexpected stats: %+v", resp.Stats)
	}
}

func TestGetStatus_CountError(t *testing.T) {
	st := &mockStore{countDueErr: errDB}
	h, _ := newTestHandlers(st, &mockSweeper{})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	h.GetStatus(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestGetExecution(t *testing.T) {
	h, tr := newTestHandlers(&mockStore{}, &mockSweeper{})
	id := tr.Start(engine.JobName)
	tr.Complete(id, "processed=1 skipped=0 failed=0 generated=1")

	req := httptest.NewRequest(http.MethodGet, "/executions/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	rr := httptest.NewRecorder()
	h.GetExecution(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	var resp api.ExecutionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != id.String() {
		t.Errorf("got id %s, want %s", resp.ID, id)
	}
	if resp.Status != "completed" {
		t.Errorf("got status %s, want completed", resp.Status)
	}
}

func TestGetExecution_InvalidID(t *testing.T) {
	h, _ := newTestHandlers(&mockStore{}, &mockSweeper{})

	req := httptest.NewRequest(http.MethodGet, "/executions/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	rr := httptest.NewRecorder()
	h.GetExecution(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetExecution_NotFound(t *testing.T) {
	h, _ := newTestHandlers(&mockStore{}, &mockSweeper{})

	unknown := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/executions/"+unknown.String(), nil)
	req.SetPathValue("id", unknown.String())
	rr := httptest.NewRecorder()
	h.GetExecution(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetHistory_LimitAndOrder(t *testing.T) {
	h, tr := newTestHandlers(&mockStore{}, &mockSweeper{})
	for i := 0; i < 5; i++ {
		id := tr.Start(engine.JobName)
		tr.Complete(id, "ok")
	}

	req := httptest.NewRequest(http.MethodGet, "/history?limit=3", nil)
	rr := httptest.NewRecorder()
	h.GetHistory(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	var resp api.HistoryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Executions) != 3 {
		t.Errorf("got %d executions, want 3", len(resp.Executions))
	}
}

func TestGetHistory_InvalidLimit(t *testing.T) {
	h, _ := newTestHandlers(&mockStore{}, &mockSweeper{})

	req := httptest.NewRequest(http.MethodGet, "/history?limit=banana", nil)
	rr := httptest.NewRecorder()
	h.GetHistory(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
