// Package store contains the database layer for finsweep.
package store

import (
	"time"

	"github.com/google/uuid"

	"finsweep/internal/schedule"
)

// RuleKind classifies what a recurring rule produces.
type RuleKind string

const (
	RuleKindExpense  RuleKind = "expense"
	RuleKindIncome   RuleKind = "income"
	RuleKindTransfer RuleKind = "transfer"
)

// RecurringRule is the durable definition of a repeating financial event.
// The sweep engine is the only writer of its processing state (NextDueDate,
// OccurrencesGenerated, claim fields, Active on completion); everything else
// is owned by user-facing collaborators.
type RecurringRule struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Description string

	// AmountMinor is the flat per-occurrence amount in minor units.
	// Installment rules derive the per-occurrence amount from
	// TotalAmountMinor / TotalOccurrences instead.
	AmountMinor      int64
	TotalAmountMinor *int64

	Kind       RuleKind
	CategoryID *uuid.UUID
	GoalID     *uuid.UUID
	AccountID  *uuid.UUID

	StartDate     time.Time
	Frequency     schedule.Frequency
	Interval      int
	AnchorWeekday *int // weekly rules only, 0=Sunday..6=Saturday
	AnchorDay     *int // monthly/yearly rules only, 1..31

	// NextDueDate is the authoritative "when to fire next". It is never left
	// in the past after a successful processing pass.
	NextDueDate time.Time
	EndDate     *time.Time

	TotalOccurrences     *int
	OccurrencesGenerated int
	IsInstallment        bool

	// ProcessingClaim is non-nil only while a processing attempt is in
	// flight. A claim older than the stale threshold may be taken over.
	ProcessingClaim *uuid.UUID
	ClaimedAt       *time.Time
	LastProcessedAt *time.Time

	FirstOccurrenceGenerated bool

	// TransactionGroupID is shared by every transaction spawned from this
	// rule. Together with the occurrence index it is the dedup key.
	TransactionGroupID uuid.UUID
	ExternalRef        *string

	Active    bool
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GeneratedTransaction is an immutable record produced by one rule
// occurrence. Rows survive rule deactivation; they are the durable audit
// trail of the engine.
type GeneratedTransaction struct {
	ID                 uuid.UUID
	RuleID             uuid.UUID
	TransactionGroupID uuid.UUID
	OccurrenceIndex    int
	UserID             uuid.UUID
	Kind               RuleKind
	Description        string
	AmountMinor        int64
	CategoryID         *uuid.UUID
	GoalID             *uuid.UUID
	AccountID          *uuid.UUID

	// OccurredOn is the rule's due date at generation time, not the wall
	// clock. Backfilled and late runs stay historically accurate.
	OccurredOn time.Time
	CreatedAt  time.Time
}

// RuleAdvance is the post-generation state written back to a rule together
// with the occurrence insert, as one atomic unit.
type RuleAdvance struct {
	RuleID                   uuid.UUID
	RunToken                 uuid.UUID
	NextDueDate              time.Time
	OccurrencesGenerated     int
	Active                   bool
	FirstOccurrenceGenerated bool
}
