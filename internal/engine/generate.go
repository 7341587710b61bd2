package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finsweep/internal/logger"
	"finsweep/internal/money"
	"finsweep/internal/schedule"
	"finsweep/internal/store"
)

// errClaimLost marks a generate cycle whose claim expired and was taken
// over mid-flight. Internal to the engine; surfaced to callers as a skip.
var errClaimLost = errors.New("claim lost during generation")

// processRule runs claim/generate cycles for one rule until it is no longer
// due. Each cycle is atomic on its own: the claim is taken by a conditional
// write, and the occurrence insert, rule advance, and claim clear commit as
// one storage transaction. An overdue rule therefore catches up one
// occurrence at a time, never holding a claim across occurrences.
//
// Returns how many occurrences were generated. Zero with a nil error means
// the rule was skipped (claimed elsewhere, or no longer due).
func (s *Sweeper) processRule(ctx context.Context, rule *store.RecurringRule, runToken uuid.UUID, now time.Time) (int, error) {
	if !rule.Active {
		// Stale selection; the rule was deactivated after the due query.
		return 0, nil
	}

	generated := 0
	for generated < s.maxCatchUp {
		outcome, err := s.store.ClaimDueRule(ctx, rule.ID, runToken, now)
		if err != nil {
			return generated, fmt.Errorf("%w: claiming rule: %v", ErrStorage, err)
		}
		if outcome != store.ClaimClaimed {
			// AlreadyHeld is the expected race outcome under overlapping
			// sweeps; NotDue means a concurrent run finished the work.
			return generated, nil
		}

		done, err := s.generateOnce(ctx, rule, runToken)
		if errors.Is(err, errClaimLost) {
			// The occurrence belongs to whichever run took the claim over;
			// nothing was written here.
			return generated, nil
		}
		if err != nil {
			return generated, err
		}
		generated++

		if done || !rule.Active || rule.NextDueDate.After(now) {
			return generated, nil
		}
	}

	logger.FromContext(ctx, s.log).Warn("rule hit catch-up bound, remainder deferred to next sweep",
		slog.String("rule_id", rule.ID.String()),
		slog.Int("generated", generated))
	return generated, nil
}

// generateOnce materializes the occurrence at the rule's current NextDueDate
// and advances the in-memory rule to mirror the committed state. Must be
// called holding a valid claim; the commit clears it.
//
// done is true when the rule deactivated (cap or end date reached).
func (s *Sweeper) generateOnce(ctx context.Context, rule *store.RecurringRule, runToken uuid.UUID) (bool, error) {
	amount, err := s.occurrenceAmount(rule)
	if err != nil {
		s.releaseAfterFailure(ctx, rule.ID, runToken)
		return false, err
	}

	nextDue, err := schedule.Next(rule.NextDueDate, rule.Frequency, rule.Interval, rule.AnchorWeekday, rule.AnchorDay)
	if err != nil {
		s.releaseAfterFailure(ctx, rule.ID, runToken)
		return false, err
	}

	txn := &store.GeneratedTransaction{
		ID:                 uuid.New(),
		RuleID:             rule.ID,
		TransactionGroupID: rule.TransactionGroupID,
		OccurrenceIndex:    rule.OccurrencesGenerated,
		UserID:             rule.UserID,
		Kind:               rule.Kind,
		Description:        rule.Description,
		AmountMinor:        amount,
		CategoryID:         rule.CategoryID,
		GoalID:             rule.GoalID,
		AccountID:          rule.AccountID,
		OccurredOn:         rule.NextDueDate,
	}

	occurrences := rule.OccurrencesGenerated + 1
	active := rule.Active
	if rule.TotalOccurrences != nil && occurrences >= *rule.TotalOccurrences {
		active = false
	}
	if rule.EndDate != nil && nextDue.After(*rule.EndDate) {
		active = false
	}

	advance := store.RuleAdvance{
		RuleID:                   rule.ID,
		RunToken:                 runToken,
		NextDueDate:              nextDue,
		OccurrencesGenerated:     occurrences,
		Active:                   active,
		FirstOccurrenceGenerated: true,
	}

	inserted, err := s.store.CommitOccurrence(ctx, txn, advance)
	if err != nil {
		if errors.Is(err, store.ErrClaimNotHeld) {
			// Another run took over after our claim went stale. It owns the
			// occurrence; nothing to release or repair.
			return false, errClaimLost
		}
		s.releaseAfterFailure(ctx, rule.ID, runToken)
		return false, fmt.Errorf("%w: committing occurrence: %v", ErrStorage, err)
	}
	if !inserted {
		// The occurrence row outlived a crashed run. The commit above
		// repaired the rule state; the dedup key prevented a duplicate.
		logger.FromContext(ctx, s.log).Info("recovered already-generated occurrence",
			slog.String("rule_id", rule.ID.String()),
			slog.Int("occurrence_index", txn.OccurrenceIndex))
	}

	rule.NextDueDate = nextDue
	rule.OccurrencesGenerated = occurrences
	rule.Active = active
	rule.FirstOccurrenceGenerated = true

	return !active, nil
}

// occurrenceAmount computes the minor-unit amount for the rule's next
// occurrence: the installment share when the total is split across a fixed
// count, the flat amount otherwise.
func (s *Sweeper) occurrenceAmount(rule *store.RecurringRule) (int64, error) {
	if rule.IsInstallment {
		if rule.TotalAmountMinor == nil || rule.TotalOccurrences == nil {
			return 0, fmt.Errorf("%w: installment rule missing total amount or occurrence count", ErrAmountComputation)
		}
		return money.InstallmentShare(*rule.TotalAmountMinor, *rule.TotalOccurrences, rule.OccurrencesGenerated)
	}
	if rule.AmountMinor <= 0 {
		return 0, fmt.Errorf("%w: flat amount %d, must be positive", ErrAmountComputation, rule.AmountMinor)
	}
	return rule.AmountMinor, nil
}

// releaseAfterFailure clears the claim so the rule can be retried by the
// next sweep. Release failures are logged, not propagated: the stale-claim
// expiry recovers the rule even if this write is lost.
func (s *Sweeper) releaseAfterFailure(ctx context.Context, ruleID, runToken uuid.UUID) {
	if err := s.store.ReleaseClaim(ctx, ruleID, runToken); err != nil {
		logger.FromContext(ctx, s.log).Warn("failed to release claim after error",
			slog.String("rule_id", ruleID.String()),
			slog.String("err", err.Error()))
	}
}
