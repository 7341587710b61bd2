package engine

import (
	"errors"

	"finsweep/internal/money"
	"finsweep/internal/schedule"
)

// The engine's error taxonomy. Data errors (frequency config, installment
// math) should alert rather than retry; storage errors are transient and
// picked up by the next scheduled sweep - the engine never retries within
// the same run.
var (
	// ErrInvalidFrequencyConfig: the rule's descriptor can never produce a
	// due date. Surfaced from the due-date calculator.
	ErrInvalidFrequencyConfig = schedule.ErrInvalidFrequencyConfig

	// ErrAmountComputation: installment math cannot produce a valid
	// minor-unit amount. Surfaced from the money package.
	ErrAmountComputation = money.ErrAmountComputation

	// ErrStorage wraps transient storage failures so callers can tell them
	// apart from data errors when deciding whether a rule needs attention.
	ErrStorage = errors.New("storage error")
)
