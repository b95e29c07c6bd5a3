package recurrence

import (
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
)

// MaxIterations bounds every expansion walk. The walk starts at the rule's
// start date, not at the window, so a daily rule anchored decades in the
// past still terminates within this many steps.
const MaxIterations = 10000

// Expand enumerates the occurrence dates of a rule that fall inside
// [windowStart, windowEnd], both inclusive.
//
// The walk always begins at rule.StartDate so that monthly and weekly
// anchoring stays correct: occurrences before the window are walked through
// but not emitted. An inactive rule expands to nothing. The sequence is
// ordered and finite; it stops at the window end, at the rule's end date
// when present, or at the iteration cap, whichever comes first.
func Expand(rule core.RecurringRule, windowStart, windowEnd core.Date) ([]core.Date, error) {
	if !rule.Active {
		return nil, nil
	}
	stepper, err := GetStepper(rule.Frequency)
	if err != nil {
		return nil, err
	}

	dayOfMonth := rule.DayOfMonth
	if rule.Frequency == core.Monthly && dayOfMonth == 0 {
		// An unset day anchors on the start date, so a clamped
		// occurrence (Jan 31 -> Feb 28) recovers in longer months
		// instead of drifting to the 28th forever.
		dayOfMonth = rule.StartDate.Day()
	}

	var out []core.Date
	current := rule.StartDate
	for i := 0; i < MaxIterations; i++ {
		if current.After(windowEnd.Time) {
			break
		}
		if !rule.EndDate.IsZero() && current.After(rule.EndDate.Time) {
			break
		}
		if !current.Before(windowStart.Time) {
			out = append(out, current)
		}
		current = stepper.Next(current, dayOfMonth, rule.DayOfWeek)
	}
	return out, nil
}
