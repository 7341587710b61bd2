// Package money provides minor-unit amount arithmetic for installment rules.
// Amounts are int64 minor units (cents); there is no floating point anywhere
// in the generation path.
package money

import (
	"errors"
	"fmt"
)

// ErrAmountComputation indicates installment math cannot produce a valid
// minor-unit amount for an occurrence.
var ErrAmountComputation = errors.New("amount computation failed")

// InstallmentShare returns the amount of the occurrence at the given
// zero-based index when totalMinor is split across totalOccurrences.
//
// Every occurrence except the last gets the truncated even share; the final
// occurrence absorbs the rounding remainder so the shares sum to totalMinor
// exactly (100.00 over 3 becomes 33.33, 33.33, 33.34).
func InstallmentShare(totalMinor int64, totalOccurrences, index int) (int64, error) {
	if totalOccurrences < 1 {
		return 0, fmt.Errorf("%w: total occurrences %d, must be >= 1", ErrAmountComputation, totalOccurrences)
	}
	if index < 0 || index >= totalOccurrences {
		return 0, fmt.Errorf("%w: occurrence index %d out of range [0,%d)", ErrAmountComputation, index, totalOccurrences)
	}
	if totalMinor <= 0 {
		return 0, fmt.Errorf("%w: total amount %d, must be positive", ErrAmountComputation, totalMinor)
	}

	share := totalMinor / int64(totalOccurrences)
	if index == totalOccurrences-1 {
		final := totalMinor - share*int64(totalOccurrences-1)
		if final <= 0 {
			return 0, fmt.Errorf("%w: final share %d for total %d over %d occurrences", ErrAmountComputation, final, totalMinor, totalOccurrences)
		}
		return final, nil
	}
	if share <= 0 {
		return 0, fmt.Errorf("%w: share %d for total %d over %d occurrences", ErrAmountComputation, share, totalMinor, totalOccurrences)
	}
	return share, nil
}

// FormatMinor renders a minor-unit amount as a decimal string, e.g. 3334 -> "33.34".
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
