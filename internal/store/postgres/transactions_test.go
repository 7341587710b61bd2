package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"finsweep/internal/store"
)

func testOccurrence() (*store.GeneratedTransaction, store.RuleAdvance) {
	ruleID := uuid.New()
	runToken := uuid.New()
	groupID := uuid.New()
	due := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	txn := &store.GeneratedTransaction{
		ID:                 uuid.New(),
		RuleID:             ruleID,
		TransactionGroupID: groupID,
		OccurrenceIndex:    0,
		UserID:             uuid.New(),
		Kind:               store.RuleKindExpense,
		Description:        "rent",
		AmountMinor:        80000,
		OccurredOn:         due,
	}
	advance := store.RuleAdvance{
		RuleID:                   ruleID,
		RunToken:                 runToken,
		NextDueDate:              due.AddDate(0, 1, 0),
		OccurrencesGenerated:     1,
		Active:                   true,
		FirstOccurrenceGenerated: true,
	}
	return txn, advance
}

func TestCommitOccurrence_Inserts(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	txn, advance := testOccurrence()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO generated_transactions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE recurring_rules\s+SET next_due_date = \$1`).
		WithArgs(advance.NextDueDate, advance.OccurrencesGenerated, advance.Active,
			advance.FirstOccurrenceGenerated, advance.RuleID, advance.RunToken).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inserted, err := s.CommitOccurrence(context.Background(), txn, advance)
	if err != nil {
		t.Fatalf("CommitOccurrence failed: %v", err)
	}
	if !inserted {
		t.Error("got inserted = false, want true")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// A conflict on the dedup key means the occurrence survived an earlier
// crashed run. The pass must still repair rule state without inserting a
// duplicate row.
func TestCommitOccurrence_DuplicateRepairsState(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	txn, advance := testOccurrence()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO generated_transactions`).
		WillReturnResult(sqlmock.NewResult(0, 0)) // ON CONFLICT DO NOTHING hit
	mock.ExpectExec(`UPDATE recurring_rules\s+SET next_due_date = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inserted, err := s.CommitOccurrence(context.Background(), txn, advance)
	if err != nil {
		t.Fatalf("CommitOccurrence failed: %v", err)
	}
	if inserted {
		t.Error("got inserted = true, want false for duplicate occurrence")
	}
}

func TestCommitOccurrence_ClaimLostRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	txn, advance := testOccurrence()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO generated_transactions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE recurring_rules\s+SET next_due_date = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0)) // claim no longer held
	mock.ExpectRollback()

	_, err := s.CommitOccurrence(context.Background(), txn, advance)
	if !errors.Is(err, store.ErrClaimNotHeld) {
		t.Fatalf("got %v, want ErrClaimNotHeld", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCommitOccurrence_InsertErrorRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	txn, advance := testOccurrence()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO generated_transactions`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.CommitOccurrence(context.Background(), txn, advance)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// The write helpers take either an open transaction or nil; a nil executor
// falls back to the connection pool.
func TestInsertOccurrence_NilTxUsesPool(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	txn, _ := testOccurrence()

	mock.ExpectExec(`INSERT INTO generated_transactions`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := s.insertOccurrence(context.Background(), nil, txn)
	if err != nil {
		t.Fatalf("insertOccurrence failed: %v", err)
	}
	if !inserted {
		t.Error("got inserted = false, want true")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestApplyRuleAdvance_ClaimNotHeld(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	_, advance := testOccurrence()

	mock.ExpectExec(`UPDATE recurring_rules\s+SET next_due_date = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.applyRuleAdvance(context.Background(), nil, advance)
	if !errors.Is(err, store.ErrClaimNotHeld) {
		t.Fatalf("got %v, want ErrClaimNotHeld", err)
	}
}

func TestListTransactionsByRule(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	ruleID := uuid.New()
	groupID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "rule_id", "transaction_group_id", "occurrence_index", "user_id",
		"kind", "description", "amount_minor", "category_id", "goal_id", "account_id",
		"occurred_on", "created_at",
	}).
		AddRow(uuid.New(), ruleID, groupID, 1, uuid.New(), "expense", "rent", int64(80000), nil, nil, nil, now, now).
		AddRow(uuid.New(), ruleID, groupID, 0, uuid.New(), "expense", "rent", int64(80000), nil, nil, nil, now.AddDate(0, -1, 0), now)

	mock.ExpectQuery(`SELECT (.+) FROM generated_transactions\s+WHERE rule_id = \$1`).
		WithArgs(ruleID, 50).
		WillReturnRows(rows)

	txns, err := s.ListTransactionsByRule(context.Background(), ruleID, 0)
	if err != nil {
		t.Fatalf("ListTransactionsByRule failed: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txns))
	}
	if txns[0].OccurrenceIndex != 1 {
		t.Errorf("got first occurrence index %d, want 1 (most recent first)", txns[0].OccurrenceIndex)
	}
}
