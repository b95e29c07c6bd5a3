package core

import (
	"errors"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	FlowIn  FlowType = "in"
	FlowOut FlowType = "out"
)

type (
	// Frequency is how often a recurring rule fires.
	Frequency string

	// FlowType is the direction of a money movement. Amounts are always
	// non-negative magnitudes; the sign lives here.
	FlowType string

	// Date is a local calendar date. The time-of-day portion is always
	// midnight UTC and never meaningful.
	Date struct {
		time.Time
	}

	// Transaction is an immutable fact of money that actually moved,
	// either entered by the user or effectuated from a recurring rule.
	Transaction struct {
		ID     int64
		Date   Date
		Type   FlowType
		Amount Money
	}

	// RecurringRule describes a repeating in/out movement. DayOfMonth is
	// only meaningful for monthly rules, DayOfWeek only for weekly ones.
	// An inactive rule is paused: it expands to nothing but keeps its
	// history.
	RecurringRule struct {
		ID         int64
		Type       FlowType
		Amount     Money
		Active     bool
		StartDate  Date
		EndDate    Date // zero value means no end
		Frequency  Frequency
		DayOfMonth int // 1-31, 0 when unset
		DayOfWeek  int // 0 (Sunday) - 6, -1 when unset
	}

	// CreditCard carries the two day-of-month values that define its
	// billing cycle. Both are clamped to the actual last day of a month
	// at resolution time.
	CreditCard struct {
		ID         int64
		Name       string
		ClosingDay int // 1-31
		DueDay     int // 1-31
	}

	// CardCharge is one already-split installment of a card purchase,
	// dated at the original purchase date, not the billing date.
	CardCharge struct {
		ID     int64
		CardID int64
		Date   Date
		Amount Money // installment amount
	}

	// Debt is a single pending obligation, always an outflow when due.
	Debt struct {
		ID      int64
		Amount  Money
		DueDate Date // zero value means no due date
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidFlowType   = errors.New("invalid flow type")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
	ErrInvalidDayOfWeek  = errors.New("day of week must be between 0 and 6")
	ErrZeroDate          = errors.New("date cannot be zero")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// SameMonth reports whether two dates fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay clamps a day-of-month value to what the given month actually has,
// so day 31 resolves to 28/29 in February.
func ClampDay(day, year, month int) int {
	last := LastDayOfMonth(year, month)
	if day > last {
		return last
	}
	return day
}

func (f FlowType) Validate() error {
	switch f {
	case FlowIn, FlowOut:
		return nil
	default:
		return ErrInvalidFlowType
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	return t.Amount.Validate()
}

// Delta is the signed contribution of the transaction to a balance.
func (t Transaction) Delta() Money {
	if t.Type == FlowOut {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

func (r RecurringRule) Validate() error {
	if err := r.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate.Time) {
		return errors.New("end date must not be before start date")
	}
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.DayOfMonth != 0 {
		if r.Frequency != Monthly {
			return errors.New("day of month is only valid for monthly rules")
		}
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return ErrInvalidDayOfMonth
		}
	}
	if r.DayOfWeek < -1 || r.DayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}
	if r.DayOfWeek >= 0 && r.Frequency != Weekly {
		return errors.New("day of week is only valid for weekly rules")
	}
	return r.Amount.Validate()
}

// Delta is the signed contribution of one occurrence of the rule.
func (r RecurringRule) Delta() Money {
	if r.Type == FlowOut {
		return Money{Cents: -r.Amount.Cents}
	}
	return r.Amount
}

func (c CreditCard) Validate() error {
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return errors.New("closing day must be between 1 and 31")
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return errors.New("due day must be between 1 and 31")
	}
	return nil
}

func (c CardCharge) Validate() error {
	if c.CardID == 0 {
		return errors.New("charge must reference a card")
	}
	if err := c.Date.Validate(); err != nil {
		return err
	}
	return c.Amount.Validate()
}

func (d Debt) Validate() error {
	// A due date is optional; a debt without one never enters a forecast.
	return d.Amount.Validate()
}
