// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the scheduler.
package api

import "time"

// SweepResponse is the response body after a sweep run.
type SweepResponse struct {
	ExecutionID string              `json:"execution_id"`
	Processed   int                 `json:"processed"`
	Skipped     int                 `json:"skipped"`
	Failed      int                 `json:"failed"`
	Generated   int                 `json:"generated"`
	Errors      []RuleErrorResponse `json:"errors,omitempty"`
}

// RuleErrorResponse is a per-rule failure inside a sweep.
type RuleErrorResponse struct {
	RuleID  string `json:"rule_id"`
	Message string `json:"message"`
}

// ExecutionResponse represents a tracked sweep execution.
type ExecutionResponse struct {
	ID          string     `json:"id"`
	JobName     string     `json:"job_name"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  *int64     `json:"duration_ms,omitempty"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// StatsResponse aggregates execution history for one job name.
type StatsResponse struct {
	JobName       string             `json:"job_name"`
	Total         int                `json:"total"`
	Succeeded     int                `json:"succeeded"`
	Failed        int                `json:"failed"`
	AvgDurationMS int64              `json:"avg_duration_ms"`
	LastExecution *ExecutionResponse `json:"last_execution,omitempty"`
}

// StatusResponse is the scheduler status snapshot.
type StatusResponse struct {
	Running    []ExecutionResponse `json:"running"`
	Stats      StatsResponse       `json:"stats"`
	DueBacklog int64               `json:"due_backlog"`
}

// HistoryResponse is the response body for execution history queries.
type HistoryResponse struct {
	Executions []ExecutionResponse `json:"executions"`
}

// RuleResponse represents a recurring rule in API responses.
type RuleResponse struct {
	ID                   string    `json:"id"`
	Description          string    `json:"description"`
	Kind                 string    `json:"kind"`
	AmountMinor          int64     `json:"amount_minor"`
	Amount               string    `json:"amount"`
	Frequency            string    `json:"frequency"`
	Interval             int       `json:"interval"`
	NextDueDate          time.Time `json:"next_due_date"`
	OccurrencesGenerated int       `json:"occurrences_generated"`
	IsInstallment        bool      `json:"is_installment"`
	Active               bool      `json:"active"`
}

// DueRulesResponse is the response body for the due backlog listing.
type DueRulesResponse struct {
	Count int            `json:"count"`
	Rules []RuleResponse `json:"rules"`
}

// TransactionResponse represents a generated transaction.
type TransactionResponse struct {
	ID              string    `json:"id"`
	RuleID          string    `json:"rule_id"`
	OccurrenceIndex int       `json:"occurrence_index"`
	AmountMinor     int64     `json:"amount_minor"`
	Amount          string    `json:"amount"`
	OccurredOn      time.Time `json:"occurred_on"`
}

// TransactionsResponse is the response body for per-rule transaction listings.
type TransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
