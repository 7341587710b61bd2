package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finsweep/internal/store"
)

// ruleColumns is the canonical column list for recurring_rules scans.
const ruleColumns = `id, user_id, description, amount_minor, total_amount_minor, kind,
	category_id, goal_id, account_id, start_date, frequency, frequency_interval,
	anchor_weekday, anchor_day, next_due_date, end_date, total_occurrences,
	occurrences_generated, is_installment, processing_claim, claimed_at,
	last_processed_at, first_occurrence_generated, transaction_group_id,
	external_ref, active, notes, created_at, updated_at`

// ListDueRules returns every rule eligible for processing at now:
// active, due on or before now, and not past its end date.
func (s *Store) ListDueRules(ctx context.Context, now time.Time) ([]*store.RecurringRule, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s
		FROM recurring_rules
		WHERE active = TRUE
		  AND next_due_date <= $1
		  AND (end_date IS NULL OR next_due_date <= end_date)
		ORDER BY next_due_date ASC
	`, ruleColumns)

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("due rules query failed: %w", err)
	}
	defer rows.Close()

	var rules []*store.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("due rules scan failed: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("due rules rows error: %w", err)
	}

	return rules, nil
}

// CountDueRules returns the size of the current due backlog. Used by the
// backlog gauge, so storage errors must not fail a metrics scrape.
func (s *Store) CountDueRules(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		SELECT COUNT(*)
		FROM recurring_rules
		WHERE active = TRUE
		  AND next_due_date <= $1
		  AND (end_date IS NULL OR next_due_date <= end_date)
	`

	var count int64
	if err := s.db.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("due rules count failed: %w", err)
	}
	return count, nil
}

func (s *Store) GetRuleByID(ctx context.Context, id uuid.UUID) (*store.RecurringRule, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM recurring_rules WHERE id = $1", ruleColumns)

	rule, err := scanRule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// ClaimDueRule performs the atomic conditional claim. The single UPDATE
// re-checks due-ness and claim freshness under the row lock, which closes
// the race between selecting a rule and claiming it.
func (s *Store) ClaimDueRule(ctx context.Context, ruleID, runToken uuid.UUID, now time.Time) (store.ClaimOutcome, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	staleBefore := now.Add(-s.staleClaimAfter)

	query := `
		UPDATE recurring_rules
		SET processing_claim = $1, claimed_at = $2, last_processed_at = $2, updated_at = $2
		WHERE id = $3
		  AND active = TRUE
		  AND next_due_date <= $2
		  AND (end_date IS NULL OR next_due_date <= end_date)
		  AND (processing_claim IS NULL OR claimed_at IS NULL OR claimed_at <= $4)
	`

	res, err := s.db.ExecContext(ctx, query, runToken, now, ruleID, staleBefore)
	if err != nil {
		return store.ClaimNotDue, fmt.Errorf("claim update failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return store.ClaimNotDue, fmt.Errorf("claim rows affected failed: %w", err)
	}
	if affected == 1 {
		return store.ClaimClaimed, nil
	}

	// The conditional update missed. Look at the row to tell a concurrent
	// holder apart from a rule that simply stopped being due.
	var claim uuid.NullUUID
	var claimedAt sql.NullTime
	err = s.db.QueryRowContext(ctx,
		"SELECT processing_claim, claimed_at FROM recurring_rules WHERE id = $1",
		ruleID,
	).Scan(&claim, &claimedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ClaimNotDue, nil
		}
		return store.ClaimNotDue, fmt.Errorf("claim inspection failed: %w", err)
	}

	if claim.Valid && claimedAt.Valid && claimedAt.Time.After(staleBefore) {
		return store.ClaimAlreadyHeld, nil
	}
	return store.ClaimNotDue, nil
}

// ReleaseClaim clears the processing claim if runToken still holds it.
// Releasing a claim that was already taken over is a no-op, not an error.
func (s *Store) ReleaseClaim(ctx context.Context, ruleID, runToken uuid.UUID) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		UPDATE recurring_rules
		SET processing_claim = NULL, claimed_at = NULL, updated_at = NOW()
		WHERE id = $1 AND processing_claim = $2
	`

	if _, err := s.db.ExecContext(ctx, query, ruleID, runToken); err != nil {
		return fmt.Errorf("claim release failed: %w", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*store.RecurringRule, error) {
	var r store.RecurringRule
	var totalAmount sql.NullInt64
	var categoryID, goalID, accountID, claim uuid.NullUUID
	var anchorWeekday, anchorDay, totalOccurrences sql.NullInt64
	var endDate, claimedAt, lastProcessedAt sql.NullTime
	var externalRef sql.NullString

	err := row.Scan(
		&r.ID, &r.UserID, &r.Description, &r.AmountMinor, &totalAmount, &r.Kind,
		&categoryID, &goalID, &accountID, &r.StartDate, &r.Frequency, &r.Interval,
		&anchorWeekday, &anchorDay, &r.NextDueDate, &endDate, &totalOccurrences,
		&r.OccurrencesGenerated, &r.IsInstallment, &claim, &claimedAt,
		&lastProcessedAt, &r.FirstOccurrenceGenerated, &r.TransactionGroupID,
		&externalRef, &r.Active, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if totalAmount.Valid {
		r.TotalAmountMinor = &totalAmount.Int64
	}
	if categoryID.Valid {
		r.CategoryID = &categoryID.UUID
	}
	if goalID.Valid {
		r.GoalID = &goalID.UUID
	}
	if accountID.Valid {
		r.AccountID = &accountID.UUID
	}
	if anchorWeekday.Valid {
		v := int(anchorWeekday.Int64)
		r.AnchorWeekday = &v
	}
	if anchorDay.Valid {
		v := int(anchorDay.Int64)
		r.AnchorDay = &v
	}
	if endDate.Valid {
		r.EndDate = &endDate.Time
	}
	if totalOccurrences.Valid {
		v := int(totalOccurrences.Int64)
		r.TotalOccurrences = &v
	}
	if claim.Valid {
		r.ProcessingClaim = &claim.UUID
	}
	if claimedAt.Valid {
		r.ClaimedAt = &claimedAt.Time
	}
	if lastProcessedAt.Valid {
		r.LastProcessedAt = &lastProcessedAt.Time
	}
	if externalRef.Valid {
		r.ExternalRef = &externalRef.String
	}

	return &r, nil
}
