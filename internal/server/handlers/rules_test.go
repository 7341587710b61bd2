package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"finsweep/internal/store"
	"finsweep/pkg/api"
)

func TestListDueRules(t *testing.T) {
	rule := sampleRule()
	st := &mockStore{listDueResp: []*store.RecurringRule{rule}}
	h, _ := newTestHandlers(st, &mockSweeper{})

	req := httptest.NewRequest(http.MethodGet, "/rules/due", nil)
	rr := httptest.NewRecorder()
	h.ListDueRules(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	var resp api.DueRulesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Rules) != 1 {
		t.Fatalf("got count %d with %d rules, want 1", resp.Count, len(resp.Rules))
	}
	got := resp.Rules[0]
	if got.ID != rule.ID.String() {
		t.Errorf("got rule id %s, want %s", got.ID, rule.ID)
	}
	if got.Amount != "45.00" {
		t.Errorf("got formatted amount %s, want 45.00", got.Amount)
	}
	if got.Frequency != "monthly" {
		t.Errorf("got frequency %s, want monthly", got.Frequency)
	}
}

func TestListDueRules_StoreError(t *testing.T) {
	st := &mockStore{listDueErr: errDB}
	h, _ := newTestHandlers(st, &mockSweeper{})

	req := httptest.NewRequest(http.MethodGet, "/rules/due", nil)
	rr := httptest.NewRecorder()
	h.ListDueRules(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestListRuleTransactions(t *testing.T) {
	rule := sampleRule()
	st := &mockStore{
		getRuleResp: rule,
		listTxnsResp: []*store.GeneratedTransaction{
			{
				ID:              uuid.New(),
				RuleID:          rule.ID,
				OccurrenceIndex: 1,
				AmountMinor:     4500,
				OccurredOn:      time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	h, _ := newTestHandlers(st, &mockSweeper{})

	req := httptest.NewRequest(http.MethodGet, "/rules/"+rule.ID.String()+"/transactions", nil)
	req.SetPathValue("id", rule.ID.String())
	rr := httptest.NewRecorder()
	h.ListRuleTransactions(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	var resp api.TransactionsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(resp.Transactions))
	}
	if resp.Transactions[0].OccurrenceIndex != 1 {
		t.Errorf("got occurrence index %d, want 1", resp.Transactions[0].OccurrenceIndex)
	}
	if st.capturedRuleID != rule.ID {
		t.Errorf("handler queried rule %s, want %s", st.capturedRuleID, rule.ID)
	}
}

func TestListRuleTransactions_InvalidID(t *testing.T) {
	h, _ := newTestHandlers(&mockStore{}, &mockSweeper{})

	req := httptest.NewRequest(http.MethodGet, "/rules/not-a-uuid/transactions", nil)
	req.SetPathValue("id", "not-a-uuid")
	rr := httptest.NewRecorder()
	h.ListRuleTransactions(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListRuleTransactions_RuleNotFound(t *testing.T) {
	st := &mockStore{getRuleErr: errDB}
	h, _ := newTestHandlers(st, &mockSweeper{})

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/rules/"+id.String()+"/transactions", nil)
	req.SetPathValue("id", id.String())
	rr := httptest.NewRecorder()
	h.ListRuleTransactions(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusNotFound)
	}
}
