package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// RuleStore handles the persistence of recurring rules and their claim state.
type RuleStore interface {
	// ListDueRules returns all rules with active = true and
	// next_due_date <= now, respecting end dates.
	ListDueRules(ctx context.Context, now time.Time) ([]*RecurringRule, error)

	// CountDueRules returns the size of the current due backlog.
	CountDueRules(ctx context.Context, now time.Time) (int64, error)

	// GetRuleByID returns a rule by its ID.
	GetRuleByID(ctx context.Context, id uuid.UUID) (*RecurringRule, error)

	// ClaimDueRule attempts the atomic conditional claim described by
	// ClaimOutcome. Due-ness is re-checked inside the same statement to
	// close the race between selection and claim.
	ClaimDueRule(ctx context.Context, ruleID, runToken uuid.UUID, now time.Time) (ClaimOutcome, error)

	// ReleaseClaim clears the processing claim if runToken still holds it.
	ReleaseClaim(ctx context.Context, ruleID, runToken uuid.UUID) error
}

// TransactionStore handles generated transactions and the atomic
// generate-and-advance write.
type TransactionStore interface {
	// CommitOccurrence inserts the generated transaction and applies the
	// rule advance (including clearing the claim) in one database
	// transaction. The insert is keyed on (transaction_group_id,
	// occurrence_index); inserted is false when that occurrence already
	// exists, in which case only the rule state is repaired.
	CommitOccurrence(ctx context.Context, txn *GeneratedTransaction, advance RuleAdvance) (inserted bool, err error)

	// ListTransactionsByRule returns generated transactions for a rule,
	// most recent occurrence first.
	ListTransactionsByRule(ctx context.Context, ruleID uuid.UUID, limit int) ([]*GeneratedTransaction, error)
}
