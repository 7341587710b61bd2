// Package schedule computes recurring due dates. It is pure calendar
// arithmetic with no I/O, so every edge case (leap years, short months,
// weekday anchoring) can be covered by table tests.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Frequency is how often a recurring rule fires.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// ErrInvalidFrequencyConfig indicates a rule's frequency descriptor can never
// produce a valid due date. Rules carrying it should be alerted on, not retried.
var ErrInvalidFrequencyConfig = errors.New("invalid frequency configuration")

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Next returns the due date that follows current.
//
// For weekly rules with an anchor weekday (0=Sunday..6=Saturday), the anchor
// takes precedence over naive addition: the result is rolled forward to the
// next occurrence of that weekday. For monthly and yearly rules with an
// anchor day-of-month, the day is re-derived from the anchor on every
// advance and clipped to the last valid day of the target month, so a rule
// anchored to day 31 lands on Feb 29, Mar 31, Apr 30 rather than drifting.
//
// anchorWeekday is only valid for weekly rules, anchorDay only for monthly
// and yearly rules; setting either elsewhere is ErrInvalidFrequencyConfig.
func Next(current time.Time, freq Frequency, interval int, anchorWeekday, anchorDay *int) (time.Time, error) {
	if err := validate(freq, interval, anchorWeekday, anchorDay); err != nil {
		return time.Time{}, err
	}

	switch freq {
	case FrequencyDaily:
		return current.AddDate(0, 0, interval), nil

	case FrequencyWeekly:
		next := current.AddDate(0, 0, 7*interval)
		if anchorWeekday != nil {
			// Roll forward to the anchored weekday (at most 6 days).
			delta := (*anchorWeekday - int(next.Weekday()) + 7) % 7
			next = next.AddDate(0, 0, delta)
		}
		return next, nil

	case FrequencyMonthly:
		return addMonths(current, interval, anchorDay), nil

	case FrequencyYearly:
		return addMonths(current, 12*interval, anchorDay), nil
	}

	return time.Time{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidFrequencyConfig, freq)
}

func validate(freq Frequency, interval int, anchorWeekday, anchorDay *int) error {
	if !freq.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidFrequencyConfig, freq)
	}
	if interval < 1 {
		return fmt.Errorf("%w: interval %d, must be >= 1", ErrInvalidFrequencyConfig, interval)
	}
	if anchorWeekday != nil {
		if freq != FrequencyWeekly {
			return fmt.Errorf("%w: anchor weekday set for %s frequency", ErrInvalidFrequencyConfig, freq)
		}
		if *anchorWeekday < 0 || *anchorWeekday > 6 {
			return fmt.Errorf("%w: anchor weekday %d out of range [0,6]", ErrInvalidFrequencyConfig, *anchorWeekday)
		}
	}
	if anchorDay != nil {
		if freq != FrequencyMonthly && freq != FrequencyYearly {
			return fmt.Errorf("%w: anchor day-of-month set for %s frequency", ErrInvalidFrequencyConfig, freq)
		}
		if *anchorDay < 1 || *anchorDay > 31 {
			return fmt.Errorf("%w: anchor day %d out of range [1,31]", ErrInvalidFrequencyConfig, *anchorDay)
		}
	}
	return nil
}

// addMonths advances by the given number of months without the normalization
// time.AddDate performs (Jan 31 + 1 month must not become Mar 2). The target
// day is taken from the anchor when set, otherwise from current, and clipped
// to the length of the target month.
func addMonths(current time.Time, months int, anchorDay *int) time.Time {
	year, month, day := current.Date()

	total := int(month) - 1 + months
	year += total / 12
	month = time.Month(total%12 + 1)

	if anchorDay != nil {
		day = *anchorDay
	}
	if last := daysIn(year, month); day > last {
		day = last
	}

	hour, min, sec := current.Clock()
	return time.Date(year, month, day, hour, min, sec, current.Nanosecond(), current.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
