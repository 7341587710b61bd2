package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"finsweep/internal/store"
)

const transactionColumns = `id, rule_id, transaction_group_id, occurrence_index, user_id,
	kind, description, amount_minor, category_id, goal_id, account_id,
	occurred_on, created_at`

// CommitOccurrence writes a generated occurrence and the corresponding rule
// advance as one database transaction, conditioned on the claim still being
// held. The insert is keyed on (transaction_group_id, occurrence_index); a
// conflict means a previous run durably wrote the transaction before
// crashing, so only the rule state is repaired and no duplicate row appears.
func (s *Store) CommitOccurrence(ctx context.Context, txn *store.GeneratedTransaction, advance store.RuleAdvance) (bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("begin commit occurrence: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.insertOccurrence(ctx, tx, txn)
	if err != nil {
		return false, err
	}

	if err := s.applyRuleAdvance(ctx, tx, advance); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit occurrence failed: %w", err)
	}

	return inserted, nil
}

// insertOccurrence writes the generated transaction row. inserted is false
// when the (transaction_group_id, occurrence_index) key already exists.
func (s *Store) insertOccurrence(ctx context.Context, tx store.DBTransaction, txn *store.GeneratedTransaction) (bool, error) {
	executor := s.getExecutor(tx)

	query := `
		INSERT INTO generated_transactions (id, rule_id, transaction_group_id, occurrence_index,
			user_id, kind, description, amount_minor, category_id, goal_id, account_id,
			occurred_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (transaction_group_id, occurrence_index) DO NOTHING
	`

	res, err := executor.ExecContext(ctx, query,
		txn.ID,
		txn.RuleID,
		txn.TransactionGroupID,
		txn.OccurrenceIndex,
		txn.UserID,
		txn.Kind,
		txn.Description,
		txn.AmountMinor,
		uuidOrNil(txn.CategoryID),
		uuidOrNil(txn.GoalID),
		uuidOrNil(txn.AccountID),
		txn.OccurredOn,
	)
	if err != nil {
		return false, fmt.Errorf("occurrence insert failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("occurrence rows affected failed: %w", err)
	}
	return affected == 1, nil
}

// applyRuleAdvance moves the rule forward and clears the claim, conditioned
// on runToken still holding it.
func (s *Store) applyRuleAdvance(ctx context.Context, tx store.DBTransaction, advance store.RuleAdvance) error {
	executor := s.getExecutor(tx)

	query := `
		UPDATE recurring_rules
		SET next_due_date = $1,
		    occurrences_generated = $2,
		    active = $3,
		    first_occurrence_generated = $4,
		    last_processed_at = NOW(),
		    processing_claim = NULL,
		    claimed_at = NULL,
		    updated_at = NOW()
		WHERE id = $5 AND processing_claim = $6
	`

	res, err := executor.ExecContext(ctx, query,
		advance.NextDueDate,
		advance.OccurrencesGenerated,
		advance.Active,
		advance.FirstOccurrenceGenerated,
		advance.RuleID,
		advance.RunToken,
	)
	if err != nil {
		return fmt.Errorf("rule advance failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rule advance rows affected failed: %w", err)
	}
	if affected == 0 {
		// Claim stolen after expiry. The insert rolls back with us; the
		// current holder owns the occurrence now.
		return store.ErrClaimNotHeld
	}
	return nil
}

// ListTransactionsByRule returns generated transactions for a rule, most
// recent occurrence first.
func (s *Store) ListTransactionsByRule(ctx context.Context, ruleID uuid.UUID, limit int) ([]*store.GeneratedTransaction, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM generated_transactions
		WHERE rule_id = $1
		ORDER BY occurrence_index DESC
		LIMIT $2
	`, transactionColumns)

	rows, err := s.db.QueryContext(ctx, query, ruleID, limit)
	if err != nil {
		return nil, fmt.Errorf("transactions query failed: %w", err)
	}
	defer rows.Close()

	var txns []*store.GeneratedTransaction
	for rows.Next() {
		var t store.GeneratedTransaction
		var categoryID, goalID, accountID uuid.NullUUID
		err := rows.Scan(
			&t.ID, &t.RuleID, &t.TransactionGroupID, &t.OccurrenceIndex, &t.UserID,
			&t.Kind, &t.Description, &t.AmountMinor, &categoryID, &goalID, &accountID,
			&t.OccurredOn, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("transactions scan failed: %w", err)
		}
		if categoryID.Valid {
			t.CategoryID = &categoryID.UUID
		}
		if goalID.Valid {
			t.GoalID = &goalID.UUID
		}
		if accountID.Valid {
			t.AccountID = &accountID.UUID
		}
		txns = append(txns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transactions rows error: %w", err)
	}

	return txns, nil
}

// uuidOrNil converts an optional UUID to a driver-friendly nullable value.
func uuidOrNil(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
