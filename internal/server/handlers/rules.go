package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"finsweep/internal/money"
	"finsweep/internal/store"
	"finsweep/pkg/api"
)

// ListDueRules handles GET /rules/due.
// Returns the rules currently due for generation.
func (h *Handlers) ListDueRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.ListDueRules(r.Context(), time.Now())
	if err != nil {
		h.httpError(w, "Failed to list due rules", http.StatusInternalServerError)
		return
	}

	resp := api.DueRulesResponse{
		Count: len(rules),
		Rules: make([]api.RuleResponse, 0, len(rules)),
	}
	for _, rule := range rules {
		resp.Rules = append(resp.Rules, ruleResponse(rule))
	}

	h.respondJson(w, http.StatusOK, resp)
}

// ListRuleTransactions handles GET /rules/{id}/transactions.
// Returns the transactions generated from one rule, most recent first.
func (h *Handlers) ListRuleTransactions(w http.ResponseWriter, r *http.Request) {
	ruleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid rule id", http.StatusBadRequest)
		return
	}

	if _, err := h.store.GetRuleByID(r.Context(), ruleID); err != nil {
		h.httpError(w, "Rule not found", http.StatusNotFound)
		return
	}

	txns, err := h.store.ListTransactionsByRule(r.Context(), ruleID, 0)
	if err != nil {
		h.httpError(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	resp := api.TransactionsResponse{
		Transactions: make([]api.TransactionResponse, 0, len(txns)),
	}
	for _, txn := range txns {
		resp.Transactions = append(resp.Transactions, api.TransactionResponse{
			ID:              txn.ID.String(),
			RuleID:          txn.RuleID.String(),
			OccurrenceIndex: txn.OccurrenceIndex,
			AmountMinor:     txn.AmountMinor,
			Amount:          money.FormatMinor(txn.AmountMinor),
			OccurredOn:      txn.OccurredOn,
		})
	}

	h.respondJson(w, http.StatusOK, resp)
}

func ruleResponse(rule *store.RecurringRule) api.RuleResponse {
	return api.RuleResponse{
		ID:                   rule.ID.String(),
		Description:          rule.Description,
		Kind:                 string(rule.Kind),
		AmountMinor:          rule.AmountMinor,
		Amount:               money.FormatMinor(rule.AmountMinor),
		Frequency:            string(rule.Frequency),
		Interval:             rule.Interval,
		NextDueDate:          rule.NextDueDate,
		OccurrencesGenerated: rule.OccurrencesGenerated,
		IsInstallment:        rule.IsInstallment,
		Active:               rule.Active,
	}
}
