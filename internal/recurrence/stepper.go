// Package recurrence implements date stepping and bounded expansion of
// recurring rules.
//
// This file implements the Strategy Pattern for advancing a date by one
// occurrence. Each frequency type (daily, weekly, monthly, yearly) has its
// own stepper that encapsulates the calendar arithmetic for that frequency.
package recurrence

import (
	"fmt"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
)

// Stepper is the strategy interface for computing the next occurrence of a
// recurring rule. The returned date is always strictly after the input.
type Stepper interface {
	// Next returns the first occurrence after date. dayOfMonth (1-31, 0
	// when unset) and dayOfWeek (0-6, -1 when unset) anchor monthly and
	// weekly rules respectively; the other frequencies ignore them.
	Next(date core.Date, dayOfMonth, dayOfWeek int) core.Date
}

// DailyStepper advances by exactly one day.
type DailyStepper struct{}

func (DailyStepper) Next(date core.Date, _, _ int) core.Date {
	return date.AddDays(1)
}

// WeeklyStepper advances by seven days, then realigns onto the target
// weekday when one is configured.
type WeeklyStepper struct{}

func (WeeklyStepper) Next(date core.Date, _, dayOfWeek int) core.Date {
	next := date.AddDays(7)
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return next
	}
	current := int(next.Weekday())
	if current == dayOfWeek {
		return next
	}
	diff := (dayOfWeek - current + 7) % 7
	if diff == 0 {
		// Never emit a zero-length extra hop.
		diff = 7
	}
	return next.AddDays(diff)
}

// MonthlyStepper advances the month by one, rolling the year, and clamps
// the target day to the last day of the resulting month. With dayOfMonth
// set, an anchor on the 31st lands on Feb 28/29 and back on the 31st in
// March; without it the previous occurrence's day is carried, so callers
// that want a stable anchor pass the anchor's day (see Expand).
type MonthlyStepper struct{}

func (MonthlyStepper) Next(date core.Date, dayOfMonth, _ int) core.Date {
	year, month := date.Year(), date.Month()+1
	if month > 12 {
		month = 1
		year++
	}
	day := date.Day()
	if dayOfMonth >= 1 {
		day = dayOfMonth
	}
	return core.NewDate(year, month, core.ClampDay(day, year, month))
}

// YearlyStepper advances the year by one, keeping month and day. A Feb 29
// anchor falls back to Feb 28 in non-leap years.
type YearlyStepper struct{}

func (YearlyStepper) Next(date core.Date, _, _ int) core.Date {
	year := date.Year() + 1
	month := date.Month()
	return core.NewDate(year, month, core.ClampDay(date.Day(), year, month))
}

// steppers maps frequencies to their corresponding stepper. The registry
// gives O(1) lookup and keeps new frequencies a one-line addition.
var steppers = map[core.Frequency]Stepper{
	core.Daily:   DailyStepper{},
	core.Weekly:  WeeklyStepper{},
	core.Monthly: MonthlyStepper{},
	core.Yearly:  YearlyStepper{},
}

// GetStepper returns the stepper for a frequency, or an error for an
// unsupported one.
func GetStepper(frequency core.Frequency) (Stepper, error) {
	s, ok := steppers[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return s, nil
}

// NextOccurrence advances a date by one occurrence of the given frequency.
// It is total over valid calendar dates; termination of repeated stepping
// is the caller's concern (see Expand's iteration cap).
func NextOccurrence(date core.Date, frequency core.Frequency, dayOfMonth, dayOfWeek int) (core.Date, error) {
	s, err := GetStepper(frequency)
	if err != nil {
		return core.Date{}, err
	}
	return s.Next(date, dayOfMonth, dayOfWeek), nil
}
