// Package billing resolves credit-card purchases onto statement periods.
//
// A billing cycle is defined by the card's closing day, not by the calendar
// month: a purchase made after closing already belongs to the next cycle
// even though its transaction date looks like "this month". Resolution rolls
// twice, first the statement period and then the due period, and both rolls
// wrap across year boundaries.
package billing

import (
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
)

// Statement identifies the billing period a purchase belongs to and the
// period its payment falls due in.
type Statement struct {
	Month    int // statement month, 1-12
	Year     int
	DueMonth int // 1-12
	DueYear  int
}

// ResolveStatement determines which statement a purchase belongs to.
//
// The card's closing day is clamped to the last day of the purchase month,
// so closingDay=31 closes February on the 28th/29th. A purchase strictly
// after the clamped closing date rolls into the next month's statement.
// When the due day is on or before the closing day, payment falls due in
// the month after the statement month; otherwise it is due within the
// statement month itself.
func ResolveStatement(card core.CreditCard, purchase core.Date) Statement {
	year, month := purchase.Year(), purchase.Month()

	closingDay := core.ClampDay(card.ClosingDay, year, month)
	if purchase.Day() > closingDay {
		month++
		if month > 12 {
			month = 1
			year++
		}
	}

	st := Statement{Month: month, Year: year, DueMonth: month, DueYear: year}
	if card.DueDay <= card.ClosingDay {
		st.DueMonth++
		if st.DueMonth > 12 {
			st.DueMonth = 1
			st.DueYear++
		}
	}
	return st
}

// DueDate is the calendar date the statement must be paid on, with the
// card's due day clamped to the due month's length.
func (s Statement) DueDate(card core.CreditCard) core.Date {
	return core.NewDate(s.DueYear, s.DueMonth, core.ClampDay(card.DueDay, s.DueYear, s.DueMonth))
}

// DueIn reports whether the statement's payment falls in the given month.
func (s Statement) DueIn(year, month int) bool {
	return s.DueYear == year && s.DueMonth == month
}
