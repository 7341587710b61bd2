package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finsweep/internal/engine"
	"finsweep/internal/schedule"
	"finsweep/internal/store"
	"finsweep/internal/tracker"
)

var errDB = errors.New("db unavailable")

// Mock Store
type mockStore struct {
	pingErr error

	listDueResp []*store.RecurringRule
	listDueErr  error

	countDueResp int64
	countDueErr  error

	getRuleResp *store.RecurringRule
	getRuleErr  error

	listTxnsResp []*store.GeneratedTransaction
	listTxnsErr  error

	// Spies (to verify arguments passed by handlers)
	capturedRuleID uuid.UUID
	capturedLimit  int
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockStore) ListDueRules(ctx context.Context, now time.Time) ([]*store.RecurringRule, error) {
	return m.listDueResp, m.listDueErr
}

func (m *mockStore) CountDueRules(ctx context.Context, now time.Time) (int64, error) {
	return m.countDueResp, m.countDueErr
}

func (m *mockStore) GetRuleByID(ctx context.Context, id uuid.UUID) (*store.RecurringRule, error) {
	m.capturedRuleID = id
	return m.getRuleResp, m.getRuleErr
}

func (m *mockStore) ClaimDueRule(ctx context.Context, ruleID, runToken uuid.UUID, now time.Time) (store.ClaimOutcome, error) {
	return store.ClaimNotDue, nil
}

func (m *mockStore) ReleaseClaim(ctx context.Context, ruleID, runToken uuid.UUID) error {
	return nil
}

func (m *mockStore) CommitOccurrence(ctx context.Context, txn *store.GeneratedTransaction, advance store.RuleAdvance) (bool, error) {
	return false, errors.New("not implemented")
}

func (m *mockStore) ListTransactionsByRule(ctx context.Context, ruleID uuid.UUID, limit int) ([]*store.GeneratedTransaction, error) {
	m.capturedRuleID = ruleID
	m.capturedLimit = limit
	return m.listTxnsResp, m.listTxnsErr
}

// Mock Sweeper
type mockSweeper struct {
	resp engine.SweepResult
	err  error

	calls int
}

func (m *mockSweeper) RunSweep(ctx context.Context, now time.Time) (engine.SweepResult, error) {
	m.calls++
	return m.resp, m.err
}

func newTestHandlers(st *mockStore, sw *mockSweeper) (*Handlers, *tracker.Tracker) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := tracker.New(log)
	return New(st, sw, tr), tr
}

func sampleRule() *store.RecurringRule {
	return &store.RecurringRule{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		Description:        "gym membership",
		Kind:               store.RuleKindExpense,
		AmountMinor:        4500,
		Frequency:          schedule.FrequencyMonthly,
		Interval:           1,
		NextDueDate:        time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		TransactionGroupID: uuid.New(),
		Active:             true,
	}
}
